package dto

import "time"

type SubmitVerificationRequest struct {
	SubjectType string                 `json:"subject_type" validate:"required,is-subject-type"`
	Profile     map[string]interface{} `json:"profile" validate:"required"`
}

type ReviewRequest struct {
	Reason string `json:"reason"`
}

// RequestMeta carries the acting admin (or the subject on submit) and the
// request provenance recorded on the audit entry.
type RequestMeta struct {
	ActorID   string
	IPAddress string
	ClientID  string
}

// KycStatusEvent is the payload pushed to the realtime gateway and used to
// build the inbox notification after a successful transition.
type KycStatusEvent struct {
	Status     string `json:"status"`
	IsVerified bool   `json:"is_verified"`
	Message    string `json:"message"`
	Action     string `json:"action"`
	Reason     string `json:"reason,omitempty"`
}

type AuditEntryResponse struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	ActorID    string    `json:"actor_id"`
	Action     string    `json:"action"`
	Reason     string    `json:"reason,omitempty"`
	PrevStatus string    `json:"prev_status"`
	NewStatus  string    `json:"new_status"`
	IPAddress  string    `json:"ip_address,omitempty"`
	ClientID   string    `json:"client_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

type AuditTrailResponse struct {
	Entries    []AuditEntryResponse `json:"entries"`
	Total      int64                `json:"total"`
	Page       int                  `json:"page"`
	PageSize   int                  `json:"page_size"`
	TotalPages int                  `json:"total_pages"`
}

type PendingVerificationResponse struct {
	UserID      string                 `json:"user_id"`
	SubjectType string                 `json:"subject_type"`
	Profile     map[string]interface{} `json:"profile,omitempty"`
	SubmittedAt time.Time              `json:"submitted_at"`
}

// KycStatsResponse is the review-dashboard summary: how many accounts exist
// and how the active verification records split by status.
type KycStatsResponse struct {
	TotalAccounts int64            `json:"total_accounts"`
	ByStatus      map[string]int64 `json:"by_status"`
}

type PendingQueueResponse struct {
	Items      []PendingVerificationResponse `json:"items"`
	Total      int64                         `json:"total"`
	Page       int                           `json:"page"`
	PageSize   int                           `json:"page_size"`
	TotalPages int                           `json:"total_pages"`
}
