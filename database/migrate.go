package database

import (
	"fmt"

	"studwork_backend/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Connect opens the postgres connection through GORM.
func Connect(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// AutoMigrate migrates all models and ensures the indexes AutoMigrate
// cannot express.
func AutoMigrate(db *gorm.DB) error {
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`).Error; err != nil {
		return err
	}

	err := db.AutoMigrate(
		&models.User{},
		&models.VerificationRecord{},
		&models.KycAuditEntry{},
		&models.Notification{},
	)
	if err != nil {
		return err
	}

	_, err = EnsureKycIndexes(db)
	return err
}

// EnsureKycIndexes creates the partial unique index guarding the "one active
// record per subject and type" invariant. Partial indexes are outside
// AutoMigrate's vocabulary, so this runs as raw SQL; the reconciliation job
// also calls it and reports what it ensured.
func EnsureKycIndexes(db *gorm.DB) ([]string, error) {
	indexes := map[string]string{
		"uniq_active_verification_per_subject": `
			CREATE UNIQUE INDEX IF NOT EXISTS uniq_active_verification_per_subject
			ON verification_records (user_id, subject_type)
			WHERE NOT is_archived`,
	}

	var ensured []string
	for name, stmt := range indexes {
		if err := db.Exec(stmt).Error; err != nil {
			return ensured, fmt.Errorf("failed to ensure index %s: %w", name, err)
		}
		ensured = append(ensured, name)
	}
	return ensured, nil
}
