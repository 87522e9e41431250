package repositories

import (
	"errors"
	"time"

	"studwork_backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrVerificationNotFound = errors.New("verification record not found")

// VerificationRepository is the store for verification records. Every lookup
// is scoped to non-archived records; archived history stays in the table but
// is invisible to the state machine.
type VerificationRepository interface {
	WithTx(tx *gorm.DB) VerificationRepository

	Create(record *models.VerificationRecord) error
	Update(record *models.VerificationRecord) error

	// FindActiveByUser returns the subject's single active record across all
	// subject types, or ErrVerificationNotFound.
	FindActiveByUser(userID string) (*models.VerificationRecord, error)
	// FindActiveByUserForUpdate additionally takes a row lock so the status
	// re-check inside a transaction cannot race a concurrent review.
	FindActiveByUserForUpdate(userID string) (*models.VerificationRecord, error)

	// Archive hides the subject's active record from the state machine,
	// used when an employer switches category. Never deletes.
	Archive(userID string) error

	FindByStatus(status models.VerificationStatus, page, pageSize int) ([]models.VerificationRecord, int64, error)
	CountByStatus() (map[models.VerificationStatus]int64, error)
}

type VerificationRepositoryImpl struct {
	db *gorm.DB
}

func NewVerificationRepository(db *gorm.DB) VerificationRepository {
	return &VerificationRepositoryImpl{db: db}
}

func (r *VerificationRepositoryImpl) WithTx(tx *gorm.DB) VerificationRepository {
	return &VerificationRepositoryImpl{db: tx}
}

func (r *VerificationRepositoryImpl) active() *gorm.DB {
	return r.db.Where("is_archived = ?", false)
}

func (r *VerificationRepositoryImpl) Create(record *models.VerificationRecord) error {
	return r.db.Create(record).Error
}

func (r *VerificationRepositoryImpl) Update(record *models.VerificationRecord) error {
	// Full-row save: transitions clear fields (rejection reason, review
	// timestamps), so partial updates with struct zero-value skipping are
	// not usable here.
	return r.db.Model(record).Select(
		"status", "profile", "submitted_at", "reviewed_at", "approved_at",
		"rejected_at", "rejection_reason", "reviewed_by", "suspended_at",
		"is_archived", "subject_type", "updated_at",
	).Updates(record).Error
}

func (r *VerificationRepositoryImpl) FindActiveByUser(userID string) (*models.VerificationRecord, error) {
	var record models.VerificationRecord
	err := r.active().First(&record, "user_id = ?", userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVerificationNotFound
		}
		return nil, err
	}
	return &record, nil
}

func (r *VerificationRepositoryImpl) FindActiveByUserForUpdate(userID string) (*models.VerificationRecord, error) {
	var record models.VerificationRecord
	err := r.active().Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&record, "user_id = ?", userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVerificationNotFound
		}
		return nil, err
	}
	return &record, nil
}

func (r *VerificationRepositoryImpl) Archive(userID string) error {
	return r.db.Model(&models.VerificationRecord{}).
		Where("user_id = ? AND is_archived = ?", userID, false).
		Updates(map[string]interface{}{
			"is_archived": true,
			"updated_at":  time.Now(),
		}).Error
}

func (r *VerificationRepositoryImpl) FindByStatus(status models.VerificationStatus, page, pageSize int) ([]models.VerificationRecord, int64, error) {
	query := r.active().Model(&models.VerificationRecord{}).
		Where("status = ? AND suspended_at IS NULL", status)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var records []models.VerificationRecord
	err := query.Order("submitted_at ASC").
		Limit(pageSize).Offset((page - 1) * pageSize).
		Find(&records).Error

	return records, total, err
}

func (r *VerificationRepositoryImpl) CountByStatus() (map[models.VerificationStatus]int64, error) {
	var rows []struct {
		Status models.VerificationStatus
		Count  int64
	}
	err := r.active().Model(&models.VerificationRecord{}).
		Select("status, COUNT(*) as count").
		Group("status").Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make(map[models.VerificationStatus]int64, len(rows))
	for _, row := range rows {
		out[row.Status] = row.Count
	}
	return out, nil
}
