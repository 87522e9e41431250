package models

import (
	"time"

	"gorm.io/datatypes"
)

// VerificationRecord is the authoritative document for one verification
// submission. The state-machine fields live in this envelope; the
// subject-type specific profile fields (names, registration numbers,
// document references) are an opaque JSON payload the state machine never
// inspects.
type VerificationRecord struct {
	BaseModel
	UserID      string             `gorm:"type:uuid;not null;index:idx_verification_subject"`
	SubjectType SubjectType        `gorm:"type:varchar(32);not null;index:idx_verification_subject"`
	Status      VerificationStatus `gorm:"type:varchar(20);not null;default:'pending'"`
	Profile     datatypes.JSON

	SubmittedAt     time.Time `gorm:"not null"`
	ReviewedAt      *time.Time
	ApprovedAt      *time.Time
	RejectedAt      *time.Time
	RejectionReason string
	ReviewedBy      string

	// SuspendedAt is the account-override annotation: non-nil while the
	// subject is frozen by an admin. It never changes Status.
	SuspendedAt *time.Time

	// Archived records are invisible to the state machine. Set when an
	// employer switches category; records are never physically deleted.
	IsArchived bool `gorm:"not null;default:false"`
}

func (r *VerificationRecord) IsSuspended() bool {
	return r != nil && r.SuspendedAt != nil
}
