package models

type UserRole string
type SubjectType string
type KycStatus string
type VerificationStatus string
type AuditAction string

const (
	UserRoleStudent  UserRole = "student"
	UserRoleEmployer UserRole = "employer"
	UserRoleAdmin    UserRole = "admin"

	SubjectTypeStudent               SubjectType = "student"
	SubjectTypeIndividualEmployer    SubjectType = "individual_employer"
	SubjectTypeCorporateEmployer     SubjectType = "corporate_employer"
	SubjectTypeLocalBusinessEmployer SubjectType = "local_business_employer"

	// Account-level status. Denormalized onto users for O(1) authorization
	// checks; the verification record stays authoritative.
	KycStatusNotSubmitted KycStatus = "not_submitted"
	KycStatusPending      KycStatus = "pending"
	KycStatusApproved     KycStatus = "approved"
	KycStatusRejected     KycStatus = "rejected"
	KycStatusSuspended    KycStatus = "suspended"

	// Record-level status. Suspension never overloads this domain, it is an
	// account override mirrored by VerificationRecord.SuspendedAt.
	VerificationStatusPending  VerificationStatus = "pending"
	VerificationStatusApproved VerificationStatus = "approved"
	VerificationStatusRejected VerificationStatus = "rejected"

	AuditActionSubmitted   AuditAction = "submitted"
	AuditActionResubmitted AuditAction = "resubmitted"
	AuditActionApproved    AuditAction = "approved"
	AuditActionRejected    AuditAction = "rejected"
	AuditActionSuspended   AuditAction = "suspended"
	AuditActionReactivated AuditAction = "reactivated"
	// AuditActionReconciled is only used for the single batch summary entry
	// written by the reconciliation job.
	AuditActionReconciled AuditAction = "reconciled"
)

// SystemActorID is the reserved actor recorded on reconciliation repairs.
const SystemActorID = "system:reconciliation"

func (r UserRole) Valid() bool {
	switch r {
	case UserRoleStudent, UserRoleEmployer, UserRoleAdmin:
		return true
	}
	return false
}

func (a AuditAction) Valid() bool {
	switch a {
	case AuditActionSubmitted, AuditActionResubmitted, AuditActionApproved,
		AuditActionRejected, AuditActionSuspended, AuditActionReactivated,
		AuditActionReconciled:
		return true
	}
	return false
}

func (t SubjectType) Valid() bool {
	switch t {
	case SubjectTypeStudent, SubjectTypeIndividualEmployer,
		SubjectTypeCorporateEmployer, SubjectTypeLocalBusinessEmployer:
		return true
	}
	return false
}

func (t SubjectType) IsEmployer() bool {
	switch t {
	case SubjectTypeIndividualEmployer, SubjectTypeCorporateEmployer, SubjectTypeLocalBusinessEmployer:
		return true
	}
	return false
}

// AllowedFor reports whether a subject type may be submitted by a user with
// the given role.
func (t SubjectType) AllowedFor(role UserRole) bool {
	if t == SubjectTypeStudent {
		return role == UserRoleStudent
	}
	return t.IsEmployer() && role == UserRoleEmployer
}
