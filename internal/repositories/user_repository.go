package repositories

import (
	"errors"
	"time"

	"studwork_backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrUserAlreadyExists = errors.New("user already exists")
)

type UserRepository interface {
	// WithTx returns a copy of the repository bound to the given transaction.
	WithTx(tx *gorm.DB) UserRepository

	FindByID(id string) (*models.User, error)
	FindByEmail(email string) (*models.User, error)
	// FindByIDForUpdate locks the user row for the duration of the enclosing
	// transaction. The user row is the unit of mutual exclusion for all KYC
	// mutations of one subject.
	FindByIDForUpdate(id string) (*models.User, error)
	Create(user *models.User) error

	// UpdateKycFlags overwrites the denormalized flag set. Only the
	// verification service may call this.
	UpdateKycFlags(userID string, flags KycFlags) error

	// FindBatch pages through all accounts in a stable order, used by the
	// reconciliation job.
	FindBatch(afterID string, limit int) ([]models.User, error)
	CountAll() (int64, error)
}

// KycFlags is the full denormalized flag set; UpdateKycFlags always writes
// every field so stale timestamps cannot survive a status change.
type KycFlags struct {
	Status     models.KycStatus
	IsVerified bool
	VerifiedAt *time.Time
	RejectedAt *time.Time
	PendingAt  *time.Time
}

type UserRepositoryImpl struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &UserRepositoryImpl{db: db}
}

func (r *UserRepositoryImpl) WithTx(tx *gorm.DB) UserRepository {
	return &UserRepositoryImpl{db: tx}
}

func (r *UserRepositoryImpl) FindByID(id string) (*models.User, error) {
	var user models.User
	err := r.db.First(&user, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *UserRepositoryImpl) FindByEmail(email string) (*models.User, error) {
	var user models.User
	err := r.db.First(&user, "email = ?", email).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *UserRepositoryImpl) FindByIDForUpdate(id string) (*models.User, error) {
	var user models.User
	err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&user, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *UserRepositoryImpl) Create(user *models.User) error {
	var existing models.User
	if err := r.db.Where("email = ?", user.Email).First(&existing).Error; err == nil {
		return ErrUserAlreadyExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	return r.db.Create(user).Error
}

func (r *UserRepositoryImpl) UpdateKycFlags(userID string, flags KycFlags) error {
	result := r.db.Model(&models.User{}).Where("id = ?", userID).Updates(map[string]interface{}{
		"kyc_status":      flags.Status,
		"is_verified":     flags.IsVerified,
		"kyc_verified_at": flags.VerifiedAt,
		"kyc_rejected_at": flags.RejectedAt,
		"kyc_pending_at":  flags.PendingAt,
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *UserRepositoryImpl) FindBatch(afterID string, limit int) ([]models.User, error) {
	var users []models.User
	query := r.db.Order("id")
	if afterID != "" {
		query = query.Where("id > ?", afterID)
	}
	err := query.Limit(limit).Find(&users).Error
	return users, err
}

func (r *UserRepositoryImpl) CountAll() (int64, error) {
	var count int64
	err := r.db.Model(&models.User{}).Count(&count).Error
	return count, err
}
