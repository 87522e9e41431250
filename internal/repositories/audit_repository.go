package repositories

import (
	"studwork_backend/internal/models"

	"gorm.io/gorm"
)

// AuditRepository is append-only by construction: there is no update or
// delete method, and the ledger is used for reporting only, never by the
// transition engine's correctness logic.
type AuditRepository interface {
	WithTx(tx *gorm.DB) AuditRepository

	Append(entry *models.KycAuditEntry) error

	FindBySubject(userID string, page, pageSize int) ([]models.KycAuditEntry, int64, error)
	FindByActor(actorID string, page, pageSize int) ([]models.KycAuditEntry, int64, error)
	FindByAction(action models.AuditAction, page, pageSize int) ([]models.KycAuditEntry, int64, error)
}

type AuditRepositoryImpl struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) AuditRepository {
	return &AuditRepositoryImpl{db: db}
}

func (r *AuditRepositoryImpl) WithTx(tx *gorm.DB) AuditRepository {
	return &AuditRepositoryImpl{db: tx}
}

func (r *AuditRepositoryImpl) Append(entry *models.KycAuditEntry) error {
	return r.db.Create(entry).Error
}

func (r *AuditRepositoryImpl) FindBySubject(userID string, page, pageSize int) ([]models.KycAuditEntry, int64, error) {
	return r.find("user_id = ?", userID, page, pageSize)
}

func (r *AuditRepositoryImpl) FindByActor(actorID string, page, pageSize int) ([]models.KycAuditEntry, int64, error) {
	return r.find("actor_id = ?", actorID, page, pageSize)
}

func (r *AuditRepositoryImpl) FindByAction(action models.AuditAction, page, pageSize int) ([]models.KycAuditEntry, int64, error) {
	return r.find("action = ?", action, page, pageSize)
}

func (r *AuditRepositoryImpl) find(cond string, value interface{}, page, pageSize int) ([]models.KycAuditEntry, int64, error) {
	query := r.db.Model(&models.KycAuditEntry{}).Where(cond, value)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var entries []models.KycAuditEntry
	err := query.Order("created_at DESC").
		Limit(pageSize).Offset((page - 1) * pageSize).
		Find(&entries).Error

	return entries, total, err
}
