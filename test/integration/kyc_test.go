package integration_test

import (
	"encoding/json"
	"net/http"
	"sync"
	"testing"

	"studwork_backend/internal/models"
	"studwork_backend/test/helpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func submitBody(subjectType string) map[string]interface{} {
	return map[string]interface{}{
		"subject_type": subjectType,
		"profile": map[string]interface{}{
			"full_name":   "Test Subject",
			"document_id": "AB1234567",
		},
	}
}

type statusResponse struct {
	Status      string `json:"status"`
	IsVerified  bool   `json:"is_verified"`
	CanResubmit bool   `json:"can_resubmit"`
}

func parseStatus(t *testing.T, body string) statusResponse {
	var s statusResponse
	require.NoError(t, json.Unmarshal([]byte(body), &s))
	return s
}

// Full lifecycle: submit, approve, suspend, reactivate. After every step
// the denormalized user flags must agree with the returned status.
func TestKycLifecycle_ApproveSuspendReactivate(t *testing.T) {
	t.Parallel()

	ts := GetTestServer(t)
	studentToken, student := helpers.CreateAndLoginStudent(t, ts)
	adminToken, _ := helpers.CreateAndLoginAdmin(t, ts)

	// Submit.
	res, body := ts.SendRequest(t, http.MethodPost, "/api/v1/kyc", studentToken, submitBody("student"))
	require.Equal(t, http.StatusCreated, res.StatusCode, body)
	assert.Equal(t, "pending", parseStatus(t, body).Status)

	user := helpers.ReloadUser(t, ts.DB, student.ID)
	assert.Equal(t, models.KycStatusPending, user.KycStatus)
	assert.False(t, user.IsVerified)
	assert.NotNil(t, user.KycPendingAt)

	// Approve.
	res, body = ts.SendRequest(t, http.MethodPost, "/api/v1/admin/kyc/"+student.ID+"/approve", adminToken, nil)
	require.Equal(t, http.StatusOK, res.StatusCode, body)
	status := parseStatus(t, body)
	assert.Equal(t, "approved", status.Status)
	assert.True(t, status.IsVerified)

	user = helpers.ReloadUser(t, ts.DB, student.ID)
	assert.Equal(t, models.KycStatusApproved, user.KycStatus)
	assert.True(t, user.IsVerified)
	assert.NotNil(t, user.KycVerifiedAt)
	assert.Nil(t, user.KycPendingAt)

	// Suspend.
	res, body = ts.SendRequest(t, http.MethodPost, "/api/v1/admin/kyc/"+student.ID+"/suspend", adminToken,
		map[string]interface{}{"reason": "fraud investigation"})
	require.Equal(t, http.StatusOK, res.StatusCode, body)
	status = parseStatus(t, body)
	assert.Equal(t, "suspended", status.Status)
	assert.False(t, status.IsVerified, "suspension must clear is_verified")

	user = helpers.ReloadUser(t, ts.DB, student.ID)
	assert.Equal(t, models.KycStatusSuspended, user.KycStatus)
	assert.False(t, user.IsVerified)

	// The record status itself stays approved; suspension is an override.
	record := helpers.ActiveRecord(t, ts.DB, student.ID)
	require.NotNil(t, record)
	assert.Equal(t, models.VerificationStatusApproved, record.Status)
	assert.NotNil(t, record.SuspendedAt)

	// Reactivate puts the subject back under review, not back to approved.
	res, body = ts.SendRequest(t, http.MethodPost, "/api/v1/admin/kyc/"+student.ID+"/reactivate", adminToken, nil)
	require.Equal(t, http.StatusOK, res.StatusCode, body)
	assert.Equal(t, "pending", parseStatus(t, body).Status)

	user = helpers.ReloadUser(t, ts.DB, student.ID)
	assert.Equal(t, models.KycStatusPending, user.KycStatus)
	assert.False(t, user.IsVerified)

	// Audit trail covers every transition in order.
	entries := helpers.AuditEntries(t, ts.DB, student.ID)
	require.Len(t, entries, 4)
	assert.Equal(t, models.AuditActionSubmitted, entries[0].Action)
	assert.Equal(t, models.AuditActionApproved, entries[1].Action)
	assert.Equal(t, models.AuditActionSuspended, entries[2].Action)
	assert.Equal(t, "fraud investigation", entries[2].Reason)
	assert.Equal(t, models.AuditActionReactivated, entries[3].Action)
}

func TestKycRejectAndResubmit(t *testing.T) {
	t.Parallel()

	ts := GetTestServer(t)
	employerToken, employer := helpers.CreateAndLoginEmployer(t, ts)
	adminToken, _ := helpers.CreateAndLoginAdmin(t, ts)

	res, body := ts.SendRequest(t, http.MethodPost, "/api/v1/kyc", employerToken, submitBody("individual_employer"))
	require.Equal(t, http.StatusCreated, res.StatusCode, body)

	res, body = ts.SendRequest(t, http.MethodPost, "/api/v1/admin/kyc/"+employer.ID+"/reject", adminToken,
		map[string]interface{}{"reason": "document unreadable"})
	require.Equal(t, http.StatusOK, res.StatusCode, body)
	status := parseStatus(t, body)
	assert.Equal(t, "rejected", status.Status)
	assert.True(t, status.CanResubmit, "a rejected subject may resubmit")

	// The stored rejection reason surfaces on the status read.
	res, body = ts.SendRequest(t, http.MethodGet, "/api/v1/kyc/status", employerToken, nil)
	require.Equal(t, http.StatusOK, res.StatusCode, body)
	assert.Contains(t, body, "document unreadable")

	// Resubmission wipes the review fields and goes back to pending.
	res, body = ts.SendRequest(t, http.MethodPost, "/api/v1/kyc", employerToken, submitBody("individual_employer"))
	require.Equal(t, http.StatusCreated, res.StatusCode, body)
	assert.Equal(t, "pending", parseStatus(t, body).Status)

	record := helpers.ActiveRecord(t, ts.DB, employer.ID)
	require.NotNil(t, record)
	assert.Equal(t, models.VerificationStatusPending, record.Status)
	assert.Empty(t, record.RejectionReason)
	assert.Nil(t, record.RejectedAt)

	entries := helpers.AuditEntries(t, ts.DB, employer.ID)
	require.Len(t, entries, 3)
	assert.Equal(t, models.AuditActionRejected, entries[1].Action)
	assert.Equal(t, models.AuditActionResubmitted, entries[2].Action)
}

// An employer switching category gets a fresh record; the old one is
// archived, never deleted.
func TestKycEmployerCategorySwitch(t *testing.T) {
	t.Parallel()

	ts := GetTestServer(t)
	employerToken, employer := helpers.CreateAndLoginEmployer(t, ts)
	adminToken, _ := helpers.CreateAndLoginAdmin(t, ts)

	res, body := ts.SendRequest(t, http.MethodPost, "/api/v1/kyc", employerToken, submitBody("individual_employer"))
	require.Equal(t, http.StatusCreated, res.StatusCode, body)

	res, body = ts.SendRequest(t, http.MethodPost, "/api/v1/admin/kyc/"+employer.ID+"/reject", adminToken,
		map[string]interface{}{"reason": "wrong category"})
	require.Equal(t, http.StatusOK, res.StatusCode, body)

	res, body = ts.SendRequest(t, http.MethodPost, "/api/v1/kyc", employerToken, submitBody("corporate_employer"))
	require.Equal(t, http.StatusCreated, res.StatusCode, body)

	record := helpers.ActiveRecord(t, ts.DB, employer.ID)
	require.NotNil(t, record)
	assert.Equal(t, models.SubjectTypeCorporateEmployer, record.SubjectType)
	assert.Equal(t, models.VerificationStatusPending, record.Status)

	var archived int64
	require.NoError(t, ts.DB.Model(&models.VerificationRecord{}).
		Where("user_id = ? AND is_archived = true", employer.ID).Count(&archived).Error)
	assert.Equal(t, int64(1), archived)
}

func TestKycIllegalTransitions(t *testing.T) {
	t.Parallel()

	ts := GetTestServer(t)
	studentToken, student := helpers.CreateAndLoginStudent(t, ts)
	adminToken, _ := helpers.CreateAndLoginAdmin(t, ts)

	// Approve before any submission.
	res, body := ts.SendRequest(t, http.MethodPost, "/api/v1/admin/kyc/"+student.ID+"/approve", adminToken, nil)
	assert.Equal(t, http.StatusConflict, res.StatusCode, body)
	assert.Contains(t, body, "INVALID_TRANSITION")

	// Double submit.
	res, body = ts.SendRequest(t, http.MethodPost, "/api/v1/kyc", studentToken, submitBody("student"))
	require.Equal(t, http.StatusCreated, res.StatusCode, body)
	res, body = ts.SendRequest(t, http.MethodPost, "/api/v1/kyc", studentToken, submitBody("student"))
	assert.Equal(t, http.StatusConflict, res.StatusCode, body)
	assert.Contains(t, body, "already under review")

	// Approve, then approve again.
	res, body = ts.SendRequest(t, http.MethodPost, "/api/v1/admin/kyc/"+student.ID+"/approve", adminToken, nil)
	require.Equal(t, http.StatusOK, res.StatusCode, body)
	res, body = ts.SendRequest(t, http.MethodPost, "/api/v1/admin/kyc/"+student.ID+"/approve", adminToken, nil)
	assert.Equal(t, http.StatusConflict, res.StatusCode, body)
	assert.Contains(t, body, "already approved")

	// Failed transitions must not write audit entries.
	entries := helpers.AuditEntries(t, ts.DB, student.ID)
	assert.Len(t, entries, 2)
}

func TestKycValidation(t *testing.T) {
	t.Parallel()

	ts := GetTestServer(t)
	studentToken, student := helpers.CreateAndLoginStudent(t, ts)
	adminToken, _ := helpers.CreateAndLoginAdmin(t, ts)

	// Unknown subject type.
	res, body := ts.SendRequest(t, http.MethodPost, "/api/v1/kyc", studentToken, submitBody("freelancer"))
	assert.Equal(t, http.StatusBadRequest, res.StatusCode, body)

	// Subject type not allowed for the role.
	res, body = ts.SendRequest(t, http.MethodPost, "/api/v1/kyc", studentToken, submitBody("corporate_employer"))
	assert.Equal(t, http.StatusBadRequest, res.StatusCode, body)

	// Reject without a reason.
	res, _ = ts.SendRequest(t, http.MethodPost, "/api/v1/kyc", studentToken, submitBody("student"))
	require.Equal(t, http.StatusCreated, res.StatusCode)
	res, body = ts.SendRequest(t, http.MethodPost, "/api/v1/admin/kyc/"+student.ID+"/reject", adminToken,
		map[string]interface{}{"reason": "   "})
	assert.Equal(t, http.StatusBadRequest, res.StatusCode, body)

	// Non-admin on an admin route.
	res, body = ts.SendRequest(t, http.MethodPost, "/api/v1/admin/kyc/"+student.ID+"/approve", studentToken, nil)
	assert.Equal(t, http.StatusForbidden, res.StatusCode, body)
}

// Two admins race to decide the same pending verification. Exactly one
// decision wins; the loser sees a conflict and only one audit entry with a
// review outcome exists.
func TestKycConcurrentReview(t *testing.T) {
	t.Parallel()

	ts := GetTestServer(t)
	studentToken, student := helpers.CreateAndLoginStudent(t, ts)
	adminToken, _ := helpers.CreateAndLoginAdmin(t, ts)

	res, body := ts.SendRequest(t, http.MethodPost, "/api/v1/kyc", studentToken, submitBody("student"))
	require.Equal(t, http.StatusCreated, res.StatusCode, body)

	var wg sync.WaitGroup
	codes := make([]int, 2)

	wg.Add(2)
	go func() {
		defer wg.Done()
		r, _ := ts.SendRequest(t, http.MethodPost, "/api/v1/admin/kyc/"+student.ID+"/approve", adminToken, nil)
		codes[0] = r.StatusCode
	}()
	go func() {
		defer wg.Done()
		r, _ := ts.SendRequest(t, http.MethodPost, "/api/v1/admin/kyc/"+student.ID+"/reject", adminToken,
			map[string]interface{}{"reason": "concurrent denial"})
		codes[1] = r.StatusCode
	}()
	wg.Wait()

	winners := 0
	for _, code := range codes {
		switch code {
		case http.StatusOK:
			winners++
		case http.StatusConflict:
		default:
			t.Fatalf("unexpected status code %d", code)
		}
	}
	assert.Equal(t, 1, winners, "exactly one concurrent decision must win")

	// The surviving state is one decided record, consistent flags and
	// exactly two audit entries (submit + the winning decision).
	entries := helpers.AuditEntries(t, ts.DB, student.ID)
	assert.Len(t, entries, 2)

	user := helpers.ReloadUser(t, ts.DB, student.ID)
	record := helpers.ActiveRecord(t, ts.DB, student.ID)
	require.NotNil(t, record)
	if user.KycStatus == models.KycStatusApproved {
		assert.True(t, user.IsVerified)
		assert.Equal(t, models.VerificationStatusApproved, record.Status)
	} else {
		assert.Equal(t, models.KycStatusRejected, user.KycStatus)
		assert.False(t, user.IsVerified)
		assert.Equal(t, models.VerificationStatusRejected, record.Status)
	}
}

func TestKycPendingQueueAndAuditRoutes(t *testing.T) {
	t.Parallel()

	ts := GetTestServer(t)
	studentToken, student := helpers.CreateAndLoginStudent(t, ts)
	adminToken, admin := helpers.CreateAndLoginAdmin(t, ts)

	res, body := ts.SendRequest(t, http.MethodPost, "/api/v1/kyc", studentToken, submitBody("student"))
	require.Equal(t, http.StatusCreated, res.StatusCode, body)

	// The new submission shows up in the pending queue.
	res, body = ts.SendRequest(t, http.MethodGet, "/api/v1/admin/kyc/pending?page_size=100", adminToken, nil)
	require.Equal(t, http.StatusOK, res.StatusCode, body)
	assert.Contains(t, body, student.ID)

	// Stats count at least this account and its pending record.
	res, body = ts.SendRequest(t, http.MethodGet, "/api/v1/admin/kyc/stats", adminToken, nil)
	require.Equal(t, http.StatusOK, res.StatusCode, body)
	assert.Contains(t, body, "total_accounts")
	assert.Contains(t, body, `"pending"`)

	res, body = ts.SendRequest(t, http.MethodPost, "/api/v1/admin/kyc/"+student.ID+"/approve", adminToken, nil)
	require.Equal(t, http.StatusOK, res.StatusCode, body)

	// Audit by subject.
	res, body = ts.SendRequest(t, http.MethodGet, "/api/v1/admin/kyc/"+student.ID+"/audit", adminToken, nil)
	require.Equal(t, http.StatusOK, res.StatusCode, body)
	assert.Contains(t, body, `"approved"`)
	assert.Contains(t, body, `"submitted"`)

	// Audit by actor: the admin's decision is attributed to them.
	res, body = ts.SendRequest(t, http.MethodGet, "/api/v1/admin/kyc/audit/actor/"+admin.ID, adminToken, nil)
	require.Equal(t, http.StatusOK, res.StatusCode, body)
	assert.Contains(t, body, student.ID)

	// The subject sees their own trail.
	res, body = ts.SendRequest(t, http.MethodGet, "/api/v1/kyc/audit", studentToken, nil)
	require.Equal(t, http.StatusOK, res.StatusCode, body)
	assert.Contains(t, body, `"approved"`)
}
