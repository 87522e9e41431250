package models

import "time"

type User struct {
	BaseModel
	Email        string   `gorm:"uniqueIndex;not null"`
	PasswordHash string   `gorm:"not null"`
	Name         string   `gorm:"not null"`
	City         string
	Role         UserRole `gorm:"type:varchar(20);not null"`

	// Denormalized KYC flags. Written only by the verification service;
	// everything else treats them as a read-only cache.
	KycStatus     KycStatus `gorm:"type:varchar(20);not null;default:'not_submitted'"`
	IsVerified    bool      `gorm:"not null;default:false"`
	KycVerifiedAt *time.Time
	KycRejectedAt *time.Time
	KycPendingAt  *time.Time
}
