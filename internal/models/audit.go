package models

import "time"

// KycAuditEntry is an immutable ledger row. Exactly one is written inside
// the same transaction as every successful verification transition. The
// repository exposes no update or delete for it.
type KycAuditEntry struct {
	ID        string    `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()"`
	CreatedAt time.Time `gorm:"not null;default:now();index:idx_kyc_audit_subject,priority:2;index:idx_kyc_audit_actor,priority:2;index:idx_kyc_audit_action,priority:2"`

	// Not a uuid column: the reconciliation summary entry is keyed by the
	// reserved system actor id.
	UserID  string      `gorm:"not null;index:idx_kyc_audit_subject,priority:1"`
	ActorID string      `gorm:"not null;index:idx_kyc_audit_actor,priority:1"`
	Action  AuditAction `gorm:"type:varchar(20);not null;index:idx_kyc_audit_action,priority:1"`
	Reason  string

	PrevStatus KycStatus `gorm:"type:varchar(20)"`
	NewStatus  KycStatus `gorm:"type:varchar(20)"`

	// Request provenance, best effort.
	IPAddress string
	ClientID  string
}
