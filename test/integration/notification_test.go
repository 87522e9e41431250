package integration_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"studwork_backend/test/helpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Every successful transition leaves an inbox notification for the subject.
func TestKycNotifications(t *testing.T) {
	t.Parallel()

	ts := GetTestServer(t)
	studentToken, student := helpers.CreateAndLoginStudent(t, ts)
	adminToken, _ := helpers.CreateAndLoginAdmin(t, ts)

	res, body := ts.SendRequest(t, http.MethodPost, "/api/v1/kyc", studentToken, submitBody("student"))
	require.Equal(t, http.StatusCreated, res.StatusCode, body)
	res, body = ts.SendRequest(t, http.MethodPost, "/api/v1/admin/kyc/"+student.ID+"/approve", adminToken, nil)
	require.Equal(t, http.StatusOK, res.StatusCode, body)

	res, body = ts.SendRequest(t, http.MethodGet, "/api/v1/notifications", studentToken, nil)
	require.Equal(t, http.StatusOK, res.StatusCode, body)

	var list struct {
		Notifications []struct {
			ID     string `json:"id"`
			Type   string `json:"type"`
			Title  string `json:"title"`
			IsRead bool   `json:"is_read"`
		} `json:"notifications"`
		UnreadCount int64 `json:"unread_count"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &list))
	require.Len(t, list.Notifications, 2)
	assert.Equal(t, int64(2), list.UnreadCount)
	// Reverse chronological: the decision first.
	assert.Equal(t, "Account verified", list.Notifications[0].Title)
	assert.Equal(t, "kyc", list.Notifications[0].Type)

	// Mark the decision as read.
	res, body = ts.SendRequest(t, http.MethodPost, "/api/v1/notifications/"+list.Notifications[0].ID+"/read", studentToken, nil)
	require.Equal(t, http.StatusOK, res.StatusCode, body)

	res, body = ts.SendRequest(t, http.MethodGet, "/api/v1/notifications", studentToken, nil)
	require.Equal(t, http.StatusOK, res.StatusCode, body)
	require.NoError(t, json.Unmarshal([]byte(body), &list))
	assert.Equal(t, int64(1), list.UnreadCount)
}
