// Package kyc holds the pure part of the verification state machine: the
// canonical status projection, the transition table and the consistency
// check between a user's denormalized flags and their verification record.
// Nothing in this package touches the database.
package kyc

import (
	"time"

	"studwork_backend/internal/models"
)

// CanonicalStatus is the single source of truth for what the account flags
// should say, derived purely from the verification record.
type CanonicalStatus struct {
	Status          models.KycStatus `json:"status"`
	IsVerified      bool             `json:"is_verified"`
	SubmittedAt     *time.Time       `json:"submitted_at,omitempty"`
	VerifiedAt      *time.Time       `json:"verified_at,omitempty"`
	RejectedAt      *time.Time       `json:"rejected_at,omitempty"`
	RejectionReason string           `json:"rejection_reason,omitempty"`
	CanResubmit     bool             `json:"can_resubmit"`
}

// Project computes the canonical view of a verification record. A nil record
// means the subject never submitted. Suspension is not derivable here; it is
// an account-level override applied by Expected.
func Project(record *models.VerificationRecord) CanonicalStatus {
	if record == nil {
		return CanonicalStatus{
			Status:      models.KycStatusNotSubmitted,
			IsVerified:  false,
			CanResubmit: true,
		}
	}

	submittedAt := record.SubmittedAt
	cs := CanonicalStatus{
		Status:      models.KycStatus(record.Status),
		IsVerified:  record.Status == models.VerificationStatusApproved,
		SubmittedAt: &submittedAt,
		CanResubmit: record.Status == models.VerificationStatusRejected,
	}

	switch record.Status {
	case models.VerificationStatusApproved:
		cs.VerifiedAt = record.ApprovedAt
	case models.VerificationStatusRejected:
		cs.RejectedAt = record.RejectedAt
		cs.RejectionReason = record.RejectionReason
	}

	return cs
}

// Expected is the projection with the suspension override applied: what the
// account flags must say right now. Used by the transition engine after every
// mutation and by the reconciliation repair path.
func Expected(record *models.VerificationRecord) CanonicalStatus {
	cs := Project(record)
	if record.IsSuspended() {
		cs.Status = models.KycStatusSuspended
		cs.IsVerified = false
		cs.CanResubmit = false
	}
	return cs
}

// CurrentStatus is the five-value status of a subject given its active
// record, the value every transition is checked against.
func CurrentStatus(record *models.VerificationRecord) models.KycStatus {
	return Expected(record).Status
}
