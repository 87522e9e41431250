package services

import (
	"encoding/json"

	"studwork_backend/internal/email"
	"studwork_backend/internal/logger"
	"studwork_backend/internal/models"
	"studwork_backend/internal/repositories"
	"studwork_backend/internal/services/dto"

	"gorm.io/datatypes"
)

type NotificationService interface {
	// NotifyKycStatus persists an inbox entry for a verification status
	// change and sends the decision email. Implements the verification
	// service's KycNotifier capability.
	NotifyKycStatus(userID string, event dto.KycStatusEvent, actorID string) error

	GetUserNotifications(userID string, page, pageSize int) (*dto.NotificationListResponse, error)
	MarkAsRead(userID, notificationID string) error
}

type notificationService struct {
	notificationRepo repositories.NotificationRepository
	userRepo         repositories.UserRepository
	emailProvider    email.Provider
}

func NewNotificationService(
	notificationRepo repositories.NotificationRepository,
	userRepo repositories.UserRepository,
	emailProvider email.Provider,
) NotificationService {
	return &notificationService{
		notificationRepo: notificationRepo,
		userRepo:         userRepo,
		emailProvider:    emailProvider,
	}
}

func (s *notificationService) NotifyKycStatus(userID string, event dto.KycStatusEvent, actorID string) error {
	data, err := json.Marshal(map[string]interface{}{
		"action":   event.Action,
		"status":   event.Status,
		"actor_id": actorID,
		"reason":   event.Reason,
	})
	if err != nil {
		return err
	}

	notification := &models.Notification{
		UserID:  userID,
		Type:    repositories.NotificationTypeKyc,
		Title:   notificationTitle(event.Action),
		Message: event.Message,
		Data:    datatypes.JSON(data),
	}
	if err := s.notificationRepo.Create(notification); err != nil {
		return err
	}

	s.sendDecisionEmail(userID, event)
	return nil
}

// sendDecisionEmail is best effort on top of best effort: even when the
// inbox entry was written, a failed email only logs.
func (s *notificationService) sendDecisionEmail(userID string, event dto.KycStatusEvent) {
	if s.emailProvider == nil {
		return
	}

	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		logger.Warn("skipping kyc email, user lookup failed", "user_id", userID, "error", err)
		return
	}

	var msg *email.Message
	switch models.AuditAction(event.Action) {
	case models.AuditActionApproved:
		msg = email.KycApprovedMessage(user.Email, user.Name)
	case models.AuditActionRejected:
		msg = email.KycRejectedMessage(user.Email, user.Name, event.Reason)
	case models.AuditActionSuspended:
		msg = email.KycSuspendedMessage(user.Email, user.Name, event.Reason)
	default:
		return
	}

	if err := s.emailProvider.Send(msg); err != nil {
		logger.Warn("failed to send kyc email", "user_id", userID, "error", err)
	}
}

func notificationTitle(action string) string {
	switch models.AuditAction(action) {
	case models.AuditActionSubmitted, models.AuditActionResubmitted:
		return "Verification submitted"
	case models.AuditActionApproved:
		return "Account verified"
	case models.AuditActionRejected:
		return "Verification rejected"
	case models.AuditActionSuspended:
		return "Account suspended"
	case models.AuditActionReactivated:
		return "Account pending re-review"
	}
	return "Verification update"
}

func (s *notificationService) GetUserNotifications(userID string, page, pageSize int) (*dto.NotificationListResponse, error) {
	notifications, total, err := s.notificationRepo.FindUserNotifications(userID, page, pageSize)
	if err != nil {
		return nil, err
	}

	unread, err := s.notificationRepo.GetUnreadCount(userID)
	if err != nil {
		return nil, err
	}

	out := make([]dto.NotificationResponse, 0, len(notifications))
	for _, n := range notifications {
		resp := dto.NotificationResponse{
			ID:        n.ID,
			UserID:    n.UserID,
			Type:      n.Type,
			Title:     n.Title,
			Message:   n.Message,
			IsRead:    n.IsRead,
			ReadAt:    n.ReadAt,
			CreatedAt: n.CreatedAt,
		}
		if len(n.Data) > 0 {
			var data map[string]interface{}
			if err := json.Unmarshal(n.Data, &data); err == nil {
				resp.Data = data
			}
		}
		out = append(out, resp)
	}

	return &dto.NotificationListResponse{
		Notifications: out,
		UnreadCount:   unread,
		Total:         total,
		Page:          page,
		PageSize:      pageSize,
	}, nil
}

func (s *notificationService) MarkAsRead(userID, notificationID string) error {
	return s.notificationRepo.MarkAsRead(userID, notificationID)
}
