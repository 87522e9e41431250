package kyc

import (
	"testing"

	"studwork_backend/internal/models"

	"github.com/stretchr/testify/assert"
)

var allStatuses = []models.KycStatus{
	models.KycStatusNotSubmitted,
	models.KycStatusPending,
	models.KycStatusApproved,
	models.KycStatusRejected,
	models.KycStatusSuspended,
}

func TestCanTransition_LegalEdges(t *testing.T) {
	legal := map[Action][]models.KycStatus{
		ActionSubmit:     {models.KycStatusNotSubmitted, models.KycStatusRejected},
		ActionApprove:    {models.KycStatusPending},
		ActionReject:     {models.KycStatusPending},
		ActionSuspend:    {models.KycStatusApproved, models.KycStatusPending},
		ActionReactivate: {models.KycStatusSuspended},
	}

	for action, allowed := range legal {
		allowedSet := make(map[models.KycStatus]bool)
		for _, s := range allowed {
			allowedSet[s] = true
		}

		for _, from := range allStatuses {
			assert.Equal(t, allowedSet[from], CanTransition(from, action),
				"%s from %s", action, from)
		}
	}
}

func TestCheckTransition_LegalEdgeReturnsNil(t *testing.T) {
	assert.NoError(t, CheckTransition(models.KycStatusNotSubmitted, ActionSubmit))
	assert.NoError(t, CheckTransition(models.KycStatusPending, ActionApprove))
	assert.NoError(t, CheckTransition(models.KycStatusSuspended, ActionReactivate))
}

func TestCheckTransition_IllegalEdge(t *testing.T) {
	err := CheckTransition(models.KycStatusPending, ActionSubmit)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Contains(t, err.Error(), "already under review")

	err = CheckTransition(models.KycStatusApproved, ActionApprove)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Contains(t, err.Error(), "already approved")

	err = CheckTransition(models.KycStatusApproved, ActionSubmit)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

// An approved subject cannot be approved or rejected again without going
// through a new submission.
func TestCheckTransition_TerminalStatesNeedResubmit(t *testing.T) {
	for _, action := range []Action{ActionApprove, ActionReject} {
		assert.Error(t, CheckTransition(models.KycStatusApproved, action))
		assert.Error(t, CheckTransition(models.KycStatusRejected, action))
		assert.Error(t, CheckTransition(models.KycStatusNotSubmitted, action))
	}
}
