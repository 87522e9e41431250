package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"studwork_backend/internal/kyc"
	"studwork_backend/internal/logger"
	"studwork_backend/internal/models"
	"studwork_backend/internal/repositories"
	"studwork_backend/internal/services/dto"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// StatusGateway pushes a status change to connected clients. Delivery is
// fire-and-forget; the engine never blocks on or retries it.
type StatusGateway interface {
	EmitStatusChange(userID string, event dto.KycStatusEvent)
}

// KycNotifier persists an inbox entry (and sends the decision email).
// Failures are logged and swallowed, never propagated into the transition.
type KycNotifier interface {
	NotifyKycStatus(userID string, event dto.KycStatusEvent, actorID string) error
}

// VerificationService is the transition engine: the only component allowed
// to mutate verification state. Every operation writes the record, the
// denormalized user flags and one audit entry in a single transaction.
type VerificationService interface {
	Submit(ctx context.Context, userID string, req *dto.SubmitVerificationRequest, meta dto.RequestMeta) (*kyc.CanonicalStatus, error)
	Approve(ctx context.Context, userID string, meta dto.RequestMeta) (*kyc.CanonicalStatus, error)
	Reject(ctx context.Context, userID, reason string, meta dto.RequestMeta) (*kyc.CanonicalStatus, error)
	Suspend(ctx context.Context, userID, reason string, meta dto.RequestMeta) (*kyc.CanonicalStatus, error)
	Reactivate(ctx context.Context, userID string, meta dto.RequestMeta) (*kyc.CanonicalStatus, error)

	// Status projects the subject's canonical status (suspension override
	// applied). Read-only.
	Status(ctx context.Context, userID string) (*kyc.CanonicalStatus, error)

	// CheckConsistency runs the consistency validator for one subject.
	CheckConsistency(ctx context.Context, userID string) ([]kyc.Mismatch, error)

	// RepairFlags is the reconciliation repair path: forces the user's flags
	// to match the record's projected canonical status. Writes no per-subject
	// audit entry; the job records one summary entry for the batch.
	RepairFlags(ctx context.Context, userID string) (bool, []kyc.Mismatch, error)

	AuditTrail(ctx context.Context, userID string, page, pageSize int) (*dto.AuditTrailResponse, error)
	AuditByActor(ctx context.Context, actorID string, page, pageSize int) (*dto.AuditTrailResponse, error)
	AuditByAction(ctx context.Context, action models.AuditAction, page, pageSize int) (*dto.AuditTrailResponse, error)
	PendingQueue(ctx context.Context, page, pageSize int) (*dto.PendingQueueResponse, error)
	Stats(ctx context.Context) (*dto.KycStatsResponse, error)
}

// maxTxAttempts bounds retries of transactions aborted by concurrent
// mutations. Non-conflict failures are never retried so a transition can
// never produce duplicate audit entries.
const maxTxAttempts = 3

type verificationService struct {
	db               *gorm.DB
	userRepo         repositories.UserRepository
	verificationRepo repositories.VerificationRepository
	auditRepo        repositories.AuditRepository

	gateway  StatusGateway
	notifier KycNotifier
}

func NewVerificationService(
	db *gorm.DB,
	userRepo repositories.UserRepository,
	verificationRepo repositories.VerificationRepository,
	auditRepo repositories.AuditRepository,
	gateway StatusGateway,
	notifier KycNotifier,
) VerificationService {
	return &verificationService{
		db:               db,
		userRepo:         userRepo,
		verificationRepo: verificationRepo,
		auditRepo:        auditRepo,
		gateway:          gateway,
		notifier:         notifier,
	}
}

// transitionOutcome is what a committed transition hands to the side-effect
// step.
type transitionOutcome struct {
	status kyc.CanonicalStatus
	action models.AuditAction
	reason string
}

// mutateFunc applies one state-machine edge to the locked record. It gets
// the record as found (nil when absent), a tx-bound record store for
// archival, and returns the record to persist plus the audit action and
// reason to log.
type mutateFunc func(user *models.User, record *models.VerificationRecord, records repositories.VerificationRepository, now time.Time) (*models.VerificationRecord, models.AuditAction, string, error)

// ---- Operations ----

func (s *verificationService) Submit(ctx context.Context, userID string, req *dto.SubmitVerificationRequest, meta dto.RequestMeta) (*kyc.CanonicalStatus, error) {
	subjectType := models.SubjectType(req.SubjectType)
	if !subjectType.Valid() {
		return nil, fmt.Errorf("%w: unknown subject type %q", kyc.ErrSubjectTypeNotAllowed, req.SubjectType)
	}

	profileJSON, err := json.Marshal(req.Profile)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal profile payload: %w", err)
	}

	return s.runTransition(ctx, userID, kyc.ActionSubmit, meta,
		func(user *models.User, record *models.VerificationRecord, records repositories.VerificationRepository, now time.Time) (*models.VerificationRecord, models.AuditAction, string, error) {
			if !subjectType.AllowedFor(user.Role) {
				return nil, "", "", fmt.Errorf("%w: %s cannot submit as %s", kyc.ErrSubjectTypeNotAllowed, user.Role, subjectType)
			}

			action := models.AuditActionSubmitted

			if record != nil && record.SubjectType != subjectType {
				// Employer switched category: the old record is archived and
				// a fresh one is created. History is never deleted.
				if err := records.Archive(userID); err != nil {
					return nil, "", "", err
				}
				record = nil
				action = models.AuditActionResubmitted
			}

			if record == nil {
				return &models.VerificationRecord{
					UserID:      userID,
					SubjectType: subjectType,
					Status:      models.VerificationStatusPending,
					Profile:     datatypes.JSON(profileJSON),
					SubmittedAt: now,
				}, action, "", nil
			}

			// Resubmission after rejection: same record identity, review
			// fields wiped.
			record.Status = models.VerificationStatusPending
			record.Profile = datatypes.JSON(profileJSON)
			record.SubmittedAt = now
			record.ReviewedAt = nil
			record.ApprovedAt = nil
			record.RejectedAt = nil
			record.RejectionReason = ""
			record.ReviewedBy = ""
			return record, models.AuditActionResubmitted, "", nil
		})
}

func (s *verificationService) Approve(ctx context.Context, userID string, meta dto.RequestMeta) (*kyc.CanonicalStatus, error) {
	return s.runTransition(ctx, userID, kyc.ActionApprove, meta,
		func(user *models.User, record *models.VerificationRecord, records repositories.VerificationRepository, now time.Time) (*models.VerificationRecord, models.AuditAction, string, error) {
			record.Status = models.VerificationStatusApproved
			record.ApprovedAt = &now
			record.ReviewedAt = &now
			record.ReviewedBy = meta.ActorID
			record.RejectedAt = nil
			record.RejectionReason = ""
			return record, models.AuditActionApproved, "", nil
		})
}

func (s *verificationService) Reject(ctx context.Context, userID, reason string, meta dto.RequestMeta) (*kyc.CanonicalStatus, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		// Checked before the transaction opens: no write may happen.
		return nil, fmt.Errorf("%w: rejection reason", kyc.ErrReasonRequired)
	}

	return s.runTransition(ctx, userID, kyc.ActionReject, meta,
		func(user *models.User, record *models.VerificationRecord, records repositories.VerificationRepository, now time.Time) (*models.VerificationRecord, models.AuditAction, string, error) {
			record.Status = models.VerificationStatusRejected
			record.RejectedAt = &now
			record.ReviewedAt = &now
			record.ReviewedBy = meta.ActorID
			record.RejectionReason = reason
			record.ApprovedAt = nil
			return record, models.AuditActionRejected, reason, nil
		})
}

func (s *verificationService) Suspend(ctx context.Context, userID, reason string, meta dto.RequestMeta) (*kyc.CanonicalStatus, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, fmt.Errorf("%w: suspension reason", kyc.ErrReasonRequired)
	}

	return s.runTransition(ctx, userID, kyc.ActionSuspend, meta,
		func(user *models.User, record *models.VerificationRecord, records repositories.VerificationRepository, now time.Time) (*models.VerificationRecord, models.AuditAction, string, error) {
			// Account-level override: the record status is untouched, only
			// the annotation is set.
			record.SuspendedAt = &now
			return record, models.AuditActionSuspended, reason, nil
		})
}

func (s *verificationService) Reactivate(ctx context.Context, userID string, meta dto.RequestMeta) (*kyc.CanonicalStatus, error) {
	return s.runTransition(ctx, userID, kyc.ActionReactivate, meta,
		func(user *models.User, record *models.VerificationRecord, records repositories.VerificationRepository, now time.Time) (*models.VerificationRecord, models.AuditAction, string, error) {
			// Back to pending, not silently back to approved: an admin has
			// to re-review the subject.
			record.SuspendedAt = nil
			record.Status = models.VerificationStatusPending
			record.ReviewedAt = nil
			record.ApprovedAt = nil
			record.RejectedAt = nil
			record.RejectionReason = ""
			record.ReviewedBy = ""
			return record, models.AuditActionReactivated, "", nil
		})
}

// ---- Transaction driver ----

func (s *verificationService) runTransition(ctx context.Context, userID string, action kyc.Action, meta dto.RequestMeta, mutate mutateFunc) (*kyc.CanonicalStatus, error) {
	log := logger.FromContext(ctx)

	var outcome *transitionOutcome
	var err error
	for attempt := 1; ; attempt++ {
		outcome, err = s.attemptTransition(ctx, userID, action, meta, mutate)
		if err == nil {
			break
		}
		if !isRetryableTxError(err) || attempt >= maxTxAttempts {
			return nil, s.classifyError(err, action)
		}
		log.Warn("verification transaction conflict, retrying",
			"user_id", userID, "action", string(action), "attempt", attempt)
	}

	s.dispatchSideEffects(ctx, userID, meta, outcome)

	status := outcome.status
	return &status, nil
}

func (s *verificationService) attemptTransition(ctx context.Context, userID string, action kyc.Action, meta dto.RequestMeta, mutate mutateFunc) (*transitionOutcome, error) {
	var outcome *transitionOutcome

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		users := s.userRepo.WithTx(tx)
		records := s.verificationRepo.WithTx(tx)
		audits := s.auditRepo.WithTx(tx)

		// The user row is the unit of mutual exclusion for one subject;
		// locking it first serializes even first-time submits where no
		// record row exists yet.
		user, err := users.FindByIDForUpdate(userID)
		if err != nil {
			if errors.Is(err, repositories.ErrUserNotFound) {
				return kyc.ErrUserNotFound
			}
			return err
		}

		record, err := records.FindActiveByUserForUpdate(userID)
		if err != nil && !errors.Is(err, repositories.ErrVerificationNotFound) {
			return err
		}

		// The legality re-check happens here, inside the transaction and
		// under the row locks, so a concurrent reviewer cannot slip between
		// check and write.
		prevStatus := kyc.CurrentStatus(record)
		if err := kyc.CheckTransition(prevStatus, action); err != nil {
			return err
		}

		now := time.Now()
		updated, auditAction, reason, err := mutate(user, record, records, now)
		if err != nil {
			return err
		}

		// A record without an ID is new (first submit, or a fresh record
		// after the old one was archived on a category switch).
		if updated.ID == "" {
			if err := records.Create(updated); err != nil {
				return err
			}
		} else {
			if err := records.Update(updated); err != nil {
				return err
			}
		}

		expected := kyc.Expected(updated)
		if err := users.UpdateKycFlags(userID, flagsFor(expected, now)); err != nil {
			return err
		}

		entry := &models.KycAuditEntry{
			UserID:     userID,
			ActorID:    meta.ActorID,
			Action:     auditAction,
			Reason:     reason,
			PrevStatus: prevStatus,
			NewStatus:  expected.Status,
			IPAddress:  meta.IPAddress,
			ClientID:   meta.ClientID,
		}
		if err := audits.Append(entry); err != nil {
			return err
		}

		outcome = &transitionOutcome{
			status: expected,
			action: auditAction,
			reason: reason,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return outcome, nil
}

// flagsFor derives the full denormalized flag set from the canonical status.
// All three timestamps are always written so none can survive a status
// change stale.
func flagsFor(cs kyc.CanonicalStatus, now time.Time) repositories.KycFlags {
	flags := repositories.KycFlags{
		Status:     cs.Status,
		IsVerified: cs.IsVerified,
	}
	switch cs.Status {
	case models.KycStatusApproved:
		flags.VerifiedAt = orNow(cs.VerifiedAt, now)
	case models.KycStatusRejected:
		flags.RejectedAt = orNow(cs.RejectedAt, now)
	case models.KycStatusPending:
		flags.PendingAt = orNow(cs.SubmittedAt, now)
	}
	return flags
}

func orNow(t *time.Time, now time.Time) *time.Time {
	if t != nil {
		return t
	}
	return &now
}

// ---- Side effects (best effort, after commit) ----

func (s *verificationService) dispatchSideEffects(ctx context.Context, userID string, meta dto.RequestMeta, outcome *transitionOutcome) {
	log := logger.FromContext(ctx)

	event := dto.KycStatusEvent{
		Status:     string(outcome.status.Status),
		IsVerified: outcome.status.IsVerified,
		Message:    statusMessage(outcome.action),
		Action:     string(outcome.action),
		Reason:     outcome.reason,
	}

	if s.gateway != nil {
		s.gateway.EmitStatusChange(userID, event)
	}

	if s.notifier != nil {
		if err := s.notifier.NotifyKycStatus(userID, event, meta.ActorID); err != nil {
			log.Error("failed to create kyc notification",
				"user_id", userID, "action", event.Action, "error", err)
		}
	}
}

func statusMessage(action models.AuditAction) string {
	switch action {
	case models.AuditActionSubmitted:
		return "Your verification has been submitted and is under review"
	case models.AuditActionResubmitted:
		return "Your verification has been resubmitted and is under review"
	case models.AuditActionApproved:
		return "Your account has been verified"
	case models.AuditActionRejected:
		return "Your verification was rejected"
	case models.AuditActionSuspended:
		return "Your account has been suspended"
	case models.AuditActionReactivated:
		return "Your account is pending re-review"
	}
	return "Your verification status changed"
}

// ---- Error classification ----

func isRetryableTxError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// Serialization failure or deadlock: safe to retry the whole
		// transaction.
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	return false
}

func (s *verificationService) classifyError(err error, action kyc.Action) error {
	switch {
	case errors.Is(err, kyc.ErrInvalidTransition),
		errors.Is(err, kyc.ErrReasonRequired),
		errors.Is(err, kyc.ErrSubjectTypeNotAllowed),
		errors.Is(err, kyc.ErrUserNotFound),
		errors.Is(err, kyc.ErrRecordNotFound):
		return err
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			// The partial unique index caught a concurrent first submit.
			return fmt.Errorf("%w: cannot %s, already under review", kyc.ErrInvalidTransition, action)
		case "40001", "40P01":
			return fmt.Errorf("%w: %v", kyc.ErrWriteConflict, err)
		}
	}

	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return fmt.Errorf("%w: %v", kyc.ErrStoreUnavailable, err)
	}

	return err
}

// ---- Read paths ----

func (s *verificationService) Status(ctx context.Context, userID string) (*kyc.CanonicalStatus, error) {
	if _, err := s.userRepo.FindByID(userID); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, kyc.ErrUserNotFound
		}
		return nil, err
	}

	record, err := s.verificationRepo.FindActiveByUser(userID)
	if err != nil && !errors.Is(err, repositories.ErrVerificationNotFound) {
		return nil, err
	}

	status := kyc.Expected(record)
	return &status, nil
}

func (s *verificationService) CheckConsistency(ctx context.Context, userID string) ([]kyc.Mismatch, error) {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, kyc.ErrUserNotFound
		}
		return nil, err
	}

	record, err := s.verificationRepo.FindActiveByUser(userID)
	if err != nil && !errors.Is(err, repositories.ErrVerificationNotFound) {
		return nil, err
	}

	diff := kyc.Diff(user, record)
	if len(diff) > 0 {
		logger.FromContext(ctx).Warn("kyc flag drift detected",
			"user_id", userID, "mismatches", len(diff))
	}
	return diff, nil
}

func (s *verificationService) RepairFlags(ctx context.Context, userID string) (bool, []kyc.Mismatch, error) {
	var repaired bool
	var diff []kyc.Mismatch

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		users := s.userRepo.WithTx(tx)
		records := s.verificationRepo.WithTx(tx)

		user, err := users.FindByIDForUpdate(userID)
		if err != nil {
			if errors.Is(err, repositories.ErrUserNotFound) {
				return kyc.ErrUserNotFound
			}
			return err
		}

		record, err := records.FindActiveByUserForUpdate(userID)
		if err != nil && !errors.Is(err, repositories.ErrVerificationNotFound) {
			return err
		}

		diff = kyc.Diff(user, record)
		if len(diff) == 0 {
			return nil
		}

		expected := kyc.Expected(record)
		if err := users.UpdateKycFlags(userID, flagsFor(expected, time.Now())); err != nil {
			return err
		}
		repaired = true
		return nil
	})
	if err != nil {
		return false, nil, s.classifyError(err, "repair")
	}
	return repaired, diff, nil
}

func (s *verificationService) AuditTrail(ctx context.Context, userID string, page, pageSize int) (*dto.AuditTrailResponse, error) {
	entries, total, err := s.auditRepo.FindBySubject(userID, page, pageSize)
	if err != nil {
		return nil, err
	}
	return buildAuditTrail(entries, total, page, pageSize), nil
}

func (s *verificationService) AuditByActor(ctx context.Context, actorID string, page, pageSize int) (*dto.AuditTrailResponse, error) {
	entries, total, err := s.auditRepo.FindByActor(actorID, page, pageSize)
	if err != nil {
		return nil, err
	}
	return buildAuditTrail(entries, total, page, pageSize), nil
}

func (s *verificationService) AuditByAction(ctx context.Context, action models.AuditAction, page, pageSize int) (*dto.AuditTrailResponse, error) {
	entries, total, err := s.auditRepo.FindByAction(action, page, pageSize)
	if err != nil {
		return nil, err
	}
	return buildAuditTrail(entries, total, page, pageSize), nil
}

func (s *verificationService) PendingQueue(ctx context.Context, page, pageSize int) (*dto.PendingQueueResponse, error) {
	records, total, err := s.verificationRepo.FindByStatus(models.VerificationStatusPending, page, pageSize)
	if err != nil {
		return nil, err
	}

	items := make([]dto.PendingVerificationResponse, 0, len(records))
	for _, record := range records {
		item := dto.PendingVerificationResponse{
			UserID:      record.UserID,
			SubjectType: string(record.SubjectType),
			SubmittedAt: record.SubmittedAt,
		}
		if len(record.Profile) > 0 {
			var profile map[string]interface{}
			if err := json.Unmarshal(record.Profile, &profile); err == nil {
				item.Profile = profile
			}
		}
		items = append(items, item)
	}

	return &dto.PendingQueueResponse{
		Items:      items,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: calculateTotalPages(total, pageSize),
	}, nil
}

func (s *verificationService) Stats(ctx context.Context) (*dto.KycStatsResponse, error) {
	total, err := s.userRepo.CountAll()
	if err != nil {
		return nil, err
	}

	counts, err := s.verificationRepo.CountByStatus()
	if err != nil {
		return nil, err
	}

	byStatus := make(map[string]int64, len(counts))
	for status, count := range counts {
		byStatus[string(status)] = count
	}

	return &dto.KycStatsResponse{
		TotalAccounts: total,
		ByStatus:      byStatus,
	}, nil
}

func buildAuditTrail(entries []models.KycAuditEntry, total int64, page, pageSize int) *dto.AuditTrailResponse {
	out := make([]dto.AuditEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, dto.AuditEntryResponse{
			ID:         e.ID,
			UserID:     e.UserID,
			ActorID:    e.ActorID,
			Action:     string(e.Action),
			Reason:     e.Reason,
			PrevStatus: string(e.PrevStatus),
			NewStatus:  string(e.NewStatus),
			IPAddress:  e.IPAddress,
			ClientID:   e.ClientID,
			CreatedAt:  e.CreatedAt,
		})
	}
	return &dto.AuditTrailResponse{
		Entries:    out,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: calculateTotalPages(total, pageSize),
	}
}

func calculateTotalPages(total int64, pageSize int) int {
	if pageSize <= 0 {
		return 0
	}
	pages := int(total) / pageSize
	if int(total)%pageSize != 0 {
		pages++
	}
	return pages
}
