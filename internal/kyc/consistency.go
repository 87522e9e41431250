package kyc

import (
	"fmt"

	"studwork_backend/internal/models"
)

// Mismatch describes one field where the account flags disagree with the
// canonical status.
type Mismatch struct {
	Field    string `json:"field"`
	Expected string `json:"expected"`
	Actual   string `json:"actual"`
}

func (m Mismatch) String() string {
	return fmt.Sprintf("%s: expected %q, got %q", m.Field, m.Expected, m.Actual)
}

// Consistent reports whether a user's denormalized flags agree with the
// canonical status projected from their active verification record. Pure
// comparison; callers log mismatches so batch scans can continue.
func Consistent(user *models.User, record *models.VerificationRecord) bool {
	return len(Diff(user, record)) == 0
}

// Diff is the diagnostic variant: every mismatched field, empty when the
// flags are consistent.
func Diff(user *models.User, record *models.VerificationRecord) []Mismatch {
	expected := Expected(record)

	var out []Mismatch
	if user.KycStatus != expected.Status {
		out = append(out, Mismatch{
			Field:    "kyc_status",
			Expected: string(expected.Status),
			Actual:   string(user.KycStatus),
		})
	}
	if user.IsVerified != expected.IsVerified {
		out = append(out, Mismatch{
			Field:    "is_verified",
			Expected: fmt.Sprintf("%t", expected.IsVerified),
			Actual:   fmt.Sprintf("%t", user.IsVerified),
		})
	}

	// The three flag timestamps are mutually exclusive and follow kyc_status.
	if ts := timestampDrift(user, expected.Status); ts != nil {
		out = append(out, *ts)
	}

	return out
}

func timestampDrift(user *models.User, expected models.KycStatus) *Mismatch {
	check := func(field string, set bool, want bool) *Mismatch {
		if set == want {
			return nil
		}
		return &Mismatch{
			Field:    field,
			Expected: fmt.Sprintf("set=%t", want),
			Actual:   fmt.Sprintf("set=%t", set),
		}
	}

	if m := check("kyc_verified_at", user.KycVerifiedAt != nil, expected == models.KycStatusApproved); m != nil {
		return m
	}
	if m := check("kyc_rejected_at", user.KycRejectedAt != nil, expected == models.KycStatusRejected); m != nil {
		return m
	}
	if m := check("kyc_pending_at", user.KycPendingAt != nil, expected == models.KycStatusPending); m != nil {
		return m
	}
	return nil
}
