package kyc

import (
	"fmt"

	"studwork_backend/internal/models"
)

// Action names an edge of the verification state machine.
type Action string

const (
	ActionSubmit     Action = "submit"
	ActionApprove    Action = "approve"
	ActionReject     Action = "reject"
	ActionSuspend    Action = "suspend"
	ActionReactivate Action = "reactivate"
)

// legalEdges is the whole state machine:
//
//	not_submitted -> pending -> {approved, rejected}
//	rejected      -> pending (resubmit)
//	approved|pending -> suspended -> pending (reactivate, re-review)
var legalEdges = map[Action]map[models.KycStatus]bool{
	ActionSubmit: {
		models.KycStatusNotSubmitted: true,
		models.KycStatusRejected:     true,
	},
	ActionApprove: {
		models.KycStatusPending: true,
	},
	ActionReject: {
		models.KycStatusPending: true,
	},
	ActionSuspend: {
		models.KycStatusApproved: true,
		models.KycStatusPending:  true,
	},
	ActionReactivate: {
		models.KycStatusSuspended: true,
	},
}

// CanTransition reports whether action is a legal edge from the given status.
func CanTransition(from models.KycStatus, action Action) bool {
	return legalEdges[action][from]
}

// CheckTransition returns ErrInvalidTransition, wrapped with a message a
// caller can show verbatim ("already under review", "already approved"...),
// when the edge is illegal.
func CheckTransition(from models.KycStatus, action Action) error {
	if CanTransition(from, action) {
		return nil
	}
	return fmt.Errorf("%w: cannot %s while %s", ErrInvalidTransition, action, describeStatus(from))
}

func describeStatus(s models.KycStatus) string {
	switch s {
	case models.KycStatusNotSubmitted:
		return "nothing has been submitted"
	case models.KycStatusPending:
		return "already under review"
	case models.KycStatusApproved:
		return "already approved"
	case models.KycStatusRejected:
		return "rejected"
	case models.KycStatusSuspended:
		return "suspended"
	}
	return string(s)
}
