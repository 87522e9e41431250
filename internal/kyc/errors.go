package kyc

import "errors"

// Error taxonomy of the verification state machine. Handlers map these onto
// HTTP codes via pkg/apperrors; the reconciliation job collects them per
// subject without aborting the batch.
var (
	// ErrInvalidTransition: the requested edge is not legal from the
	// subject's current status. Caller error, never retried.
	ErrInvalidTransition = errors.New("invalid verification transition")

	// ErrReasonRequired: reject/suspend called without a reason. Rejected
	// before any write happens.
	ErrReasonRequired = errors.New("a non-empty reason is required")

	// ErrSubjectTypeNotAllowed: the submitted subject type does not match
	// the account's role (e.g. a student submitting an employer profile).
	ErrSubjectTypeNotAllowed = errors.New("subject type not allowed for this account")

	ErrUserNotFound   = errors.New("user not found")
	ErrRecordNotFound = errors.New("verification record not found")

	// ErrWriteConflict: the transaction aborted due to a concurrent
	// mutation. Retryable a small bounded number of times.
	ErrWriteConflict = errors.New("verification write conflict")

	// ErrStoreUnavailable: the backing store is unreachable. Surfaced to the
	// caller, never retried indefinitely.
	ErrStoreUnavailable = errors.New("verification store unavailable")
)
