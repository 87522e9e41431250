package kyc

import (
	"testing"
	"time"

	"studwork_backend/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestConsistent_NoRecord(t *testing.T) {
	user := &models.User{KycStatus: models.KycStatusNotSubmitted}
	assert.True(t, Consistent(user, nil))

	user.KycStatus = models.KycStatusApproved
	user.IsVerified = true
	assert.False(t, Consistent(user, nil), "flags claim approved but no record exists")
}

func TestDiff_CleanApprovedAccount(t *testing.T) {
	now := time.Now()
	user := &models.User{
		KycStatus:     models.KycStatusApproved,
		IsVerified:    true,
		KycVerifiedAt: &now,
	}
	record := &models.VerificationRecord{
		Status:      models.VerificationStatusApproved,
		SubmittedAt: now.Add(-time.Hour),
		ApprovedAt:  &now,
	}

	assert.Empty(t, Diff(user, record))
}

func TestDiff_StatusDrift(t *testing.T) {
	now := time.Now()
	user := &models.User{
		KycStatus:    models.KycStatusPending,
		KycPendingAt: &now,
	}
	record := &models.VerificationRecord{
		Status:      models.VerificationStatusApproved,
		SubmittedAt: now.Add(-time.Hour),
		ApprovedAt:  &now,
	}

	diff := Diff(user, record)
	assert.NotEmpty(t, diff)

	fields := make(map[string]Mismatch)
	for _, m := range diff {
		fields[m.Field] = m
	}

	assert.Contains(t, fields, "kyc_status")
	assert.Equal(t, "approved", fields["kyc_status"].Expected)
	assert.Equal(t, "pending", fields["kyc_status"].Actual)
	assert.Contains(t, fields, "is_verified")
}

func TestDiff_VerifiedFlagDrift(t *testing.T) {
	now := time.Now()
	// is_verified stuck true after a rejection.
	user := &models.User{
		KycStatus:     models.KycStatusRejected,
		IsVerified:    true,
		KycRejectedAt: &now,
	}
	record := &models.VerificationRecord{
		Status:      models.VerificationStatusRejected,
		SubmittedAt: now.Add(-time.Hour),
		RejectedAt:  &now,
	}

	diff := Diff(user, record)
	if assert.Len(t, diff, 1) {
		assert.Equal(t, "is_verified", diff[0].Field)
	}
}

func TestDiff_TimestampDrift(t *testing.T) {
	now := time.Now()
	// Approved but kyc_verified_at never set.
	user := &models.User{
		KycStatus:  models.KycStatusApproved,
		IsVerified: true,
	}
	record := &models.VerificationRecord{
		Status:      models.VerificationStatusApproved,
		SubmittedAt: now.Add(-time.Hour),
		ApprovedAt:  &now,
	}

	diff := Diff(user, record)
	if assert.Len(t, diff, 1) {
		assert.Equal(t, "kyc_verified_at", diff[0].Field)
	}
}

func TestDiff_SuspendedRecord(t *testing.T) {
	now := time.Now()
	user := &models.User{
		KycStatus:  models.KycStatusSuspended,
		IsVerified: false,
	}
	record := &models.VerificationRecord{
		Status:      models.VerificationStatusApproved,
		SubmittedAt: now.Add(-time.Hour),
		ApprovedAt:  &now,
		SuspendedAt: &now,
	}

	assert.True(t, Consistent(user, record))

	// The stale pre-suspension flags must be flagged as drift.
	user.KycStatus = models.KycStatusApproved
	user.IsVerified = true
	user.KycVerifiedAt = &now
	assert.False(t, Consistent(user, record))
}
