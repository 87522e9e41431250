package integration_test

import (
	"context"
	"net/http"
	"testing"

	"studwork_backend/internal/models"
	"studwork_backend/test/helpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// corruptFlags simulates a partial failure: the record says approved but
// the denormalized user flags were never updated.
func corruptFlags(t *testing.T, ts *helpers.TestServer, userID string) {
	err := ts.DB.Exec(`
		UPDATE users
		SET kyc_status = 'pending', is_verified = false,
		    kyc_verified_at = NULL, kyc_rejected_at = NULL
		WHERE id = ?
	`, userID).Error
	require.NoError(t, err)
}

func approvedSubject(t *testing.T, ts *helpers.TestServer) (string, *models.User) {
	studentToken, student := helpers.CreateAndLoginStudent(t, ts)
	adminToken, _ := helpers.CreateAndLoginAdmin(t, ts)

	res, body := ts.SendRequest(t, http.MethodPost, "/api/v1/kyc", studentToken, submitBody("student"))
	require.Equal(t, http.StatusCreated, res.StatusCode, body)
	res, body = ts.SendRequest(t, http.MethodPost, "/api/v1/admin/kyc/"+student.ID+"/approve", adminToken, nil)
	require.Equal(t, http.StatusOK, res.StatusCode, body)

	return adminToken, student
}

func TestReconciliationRepairsDrift(t *testing.T) {
	t.Parallel()

	ts := GetTestServer(t)
	adminToken, student := approvedSubject(t, ts)

	corruptFlags(t, ts, student.ID)

	// The consistency endpoint sees the drift before repair.
	res, body := ts.SendRequest(t, http.MethodGet, "/api/v1/admin/kyc/"+student.ID+"/consistency", adminToken, nil)
	require.Equal(t, http.StatusOK, res.StatusCode, body)
	assert.Contains(t, body, `"consistent":false`)
	assert.Contains(t, body, "kyc_status")

	summary, err := ts.Reconciliation.Run(context.Background())
	require.NoError(t, err)
	assert.GreaterOrEqual(t, summary.Repaired, int64(1))
	assert.GreaterOrEqual(t, summary.Scanned, int64(1))

	// Flags restored from the record.
	user := helpers.ReloadUser(t, ts.DB, student.ID)
	assert.Equal(t, models.KycStatusApproved, user.KycStatus)
	assert.True(t, user.IsVerified)
	assert.NotNil(t, user.KycVerifiedAt)
	assert.Nil(t, user.KycPendingAt)

	res, body = ts.SendRequest(t, http.MethodGet, "/api/v1/admin/kyc/"+student.ID+"/consistency", adminToken, nil)
	require.Equal(t, http.StatusOK, res.StatusCode, body)
	assert.Contains(t, body, `"consistent":true`)
}

// Repair must not invent per-subject audit entries; the pass records a
// single summary entry under the system actor.
func TestReconciliationAuditShape(t *testing.T) {
	t.Parallel()

	ts := GetTestServer(t)
	_, student := approvedSubject(t, ts)

	corruptFlags(t, ts, student.ID)

	var summaryEntriesBefore int64
	require.NoError(t, ts.DB.Model(&models.KycAuditEntry{}).
		Where("actor_id = ?", models.SystemActorID).Count(&summaryEntriesBefore).Error)

	_, err := ts.Reconciliation.Run(context.Background())
	require.NoError(t, err)

	// The subject's own trail still only has submit and approve.
	entries := helpers.AuditEntries(t, ts.DB, student.ID)
	assert.Len(t, entries, 2)

	// Other tests may run passes of their own in parallel, so the count
	// only ever grows.
	var summaryEntriesAfter int64
	require.NoError(t, ts.DB.Model(&models.KycAuditEntry{}).
		Where("actor_id = ?", models.SystemActorID).Count(&summaryEntriesAfter).Error)
	assert.GreaterOrEqual(t, summaryEntriesAfter, summaryEntriesBefore+1)

	var summaryEntry models.KycAuditEntry
	require.NoError(t, ts.DB.Where("actor_id = ?", models.SystemActorID).
		Order("created_at DESC").First(&summaryEntry).Error)
	assert.Equal(t, models.AuditActionReconciled, summaryEntry.Action)
	assert.Equal(t, models.SystemActorID, summaryEntry.UserID)
	assert.Contains(t, summaryEntry.Reason, "repaired")
}

// A second pass over already-repaired state must change nothing.
func TestReconciliationIdempotence(t *testing.T) {
	t.Parallel()

	ts := GetTestServer(t)
	_, student := approvedSubject(t, ts)

	corruptFlags(t, ts, student.ID)

	_, err := ts.Reconciliation.Run(context.Background())
	require.NoError(t, err)

	first := helpers.ReloadUser(t, ts.DB, student.ID)

	_, err = ts.Reconciliation.Run(context.Background())
	require.NoError(t, err)

	second := helpers.ReloadUser(t, ts.DB, student.ID)
	assert.Equal(t, first.KycStatus, second.KycStatus)
	assert.Equal(t, first.IsVerified, second.IsVerified)
	assert.Equal(t, first.KycVerifiedAt, second.KycVerifiedAt)
	assert.Equal(t, first.UpdatedAt, second.UpdatedAt, "an idempotent pass must not rewrite the row")

	entries := helpers.AuditEntries(t, ts.DB, student.ID)
	assert.Len(t, entries, 2, "repair never writes per-subject audit entries")
}

// The admin endpoint exposes the same pass.
func TestReconciliationAdminEndpoint(t *testing.T) {
	t.Parallel()

	ts := GetTestServer(t)
	adminToken, student := approvedSubject(t, ts)

	corruptFlags(t, ts, student.ID)

	res, body := ts.SendRequest(t, http.MethodPost, "/api/v1/admin/kyc/reconcile", adminToken, nil)
	require.Equal(t, http.StatusOK, res.StatusCode, body)
	assert.Contains(t, body, "scanned")

	user := helpers.ReloadUser(t, ts.DB, student.ID)
	assert.Equal(t, models.KycStatusApproved, user.KycStatus)
	assert.True(t, user.IsVerified)
}
