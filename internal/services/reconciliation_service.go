package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"studwork_backend/database"
	"studwork_backend/internal/logger"
	"studwork_backend/internal/models"
	"studwork_backend/internal/repositories"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// ReconcileSummary is the report of one reconciliation run.
type ReconcileSummary struct {
	StartedAt      time.Time     `json:"started_at"`
	Duration       time.Duration `json:"duration"`
	Scanned        int64         `json:"scanned"`
	Inconsistent   int64         `json:"inconsistent"`
	Repaired       int64         `json:"repaired"`
	IndexesEnsured []string      `json:"indexes_ensured,omitempty"`
	Errors         []string      `json:"errors,omitempty"`
}

// ReconciliationService walks every account, detects drift between the
// denormalized KYC flags and the verification record, and repairs it through
// the verification service's repair path. Re-running it with no intervening
// changes repairs nothing.
type ReconciliationService interface {
	Run(ctx context.Context) (*ReconcileSummary, error)
}

type reconciliationService struct {
	db           *gorm.DB
	userRepo     repositories.UserRepository
	verification VerificationService
	auditRepo    repositories.AuditRepository

	batchSize int
	workers   int
}

func NewReconciliationService(
	db *gorm.DB,
	userRepo repositories.UserRepository,
	verification VerificationService,
	auditRepo repositories.AuditRepository,
	batchSize, workers int,
) ReconciliationService {
	if batchSize <= 0 {
		batchSize = 200
	}
	if workers <= 0 {
		workers = 4
	}
	return &reconciliationService{
		db:           db,
		userRepo:     userRepo,
		verification: verification,
		auditRepo:    auditRepo,
		batchSize:    batchSize,
		workers:      workers,
	}
}

func (s *reconciliationService) Run(ctx context.Context) (*ReconcileSummary, error) {
	log := logger.FromContext(ctx)
	summary := &ReconcileSummary{StartedAt: time.Now()}

	ensured, err := database.EnsureKycIndexes(s.db)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure kyc indexes: %w", err)
	}
	summary.IndexesEnsured = ensured

	var mu sync.Mutex
	afterID := ""

	for {
		users, err := s.userRepo.FindBatch(afterID, s.batchSize)
		if err != nil {
			return nil, fmt.Errorf("failed to load account batch: %w", err)
		}
		if len(users) == 0 {
			break
		}
		afterID = users[len(users)-1].ID

		// Unrelated subjects are independent; repairs run in parallel with
		// bounded concurrency to limit transaction contention.
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(s.workers)

		for i := range users {
			user := users[i]
			g.Go(func() error {
				repaired, diff, err := s.verification.RepairFlags(gctx, user.ID)

				mu.Lock()
				defer mu.Unlock()
				summary.Scanned++
				if err != nil {
					// One bad subject must not abort the batch.
					summary.Errors = append(summary.Errors, fmt.Sprintf("%s: %v", user.ID, err))
					log.Error("reconciliation failed for subject", "user_id", user.ID, "error", err)
					return nil
				}
				if len(diff) > 0 {
					summary.Inconsistent++
					log.Warn("kyc drift repaired", "user_id", user.ID, "mismatches", len(diff))
				}
				if repaired {
					summary.Repaired++
				}
				return nil
			})
		}

		if err := g.Wait(); err != nil {
			return nil, err
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
	}

	summary.Duration = time.Since(summary.StartedAt)

	// One summary entry for the whole batch, attributed to the system
	// actor, instead of one entry per repaired subject.
	if err := s.appendSummaryEntry(summary); err != nil {
		log.Error("failed to append reconciliation audit entry", "error", err)
	}

	log.Info("reconciliation run finished",
		"scanned", summary.Scanned,
		"inconsistent", summary.Inconsistent,
		"repaired", summary.Repaired,
		"errors", len(summary.Errors),
		"duration", summary.Duration,
	)
	return summary, nil
}

func (s *reconciliationService) appendSummaryEntry(summary *ReconcileSummary) error {
	payload, err := json.Marshal(summary)
	if err != nil {
		return err
	}
	return s.auditRepo.Append(&models.KycAuditEntry{
		UserID:  models.SystemActorID,
		ActorID: models.SystemActorID,
		Action:  models.AuditActionReconciled,
		Reason:  string(payload),
	})
}
