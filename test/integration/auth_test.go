package integration_test

import (
	"net/http"
	"testing"

	"studwork_backend/test/helpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthFlow(t *testing.T) {
	t.Parallel()

	ts := GetTestServer(t)
	email := helpers.UniqueEmail("register")

	registerBody := map[string]interface{}{
		"name":     "New Student",
		"email":    email,
		"password": "super_password123",
		"role":     "student",
		"city":     "Almaty",
	}

	res, body := ts.SendRequest(t, http.MethodPost, "/api/v1/auth/register", "", registerBody)
	require.Equal(t, http.StatusCreated, res.StatusCode, body)
	assert.Contains(t, body, "access_token")
	assert.Contains(t, body, `"kyc_status":"not_submitted"`)

	res, body = ts.SendRequest(t, http.MethodPost, "/api/v1/auth/login", "", map[string]interface{}{
		"email":    email,
		"password": "super_password123",
	})
	require.Equal(t, http.StatusOK, res.StatusCode, body)
	assert.Contains(t, body, "access_token")
}

func TestRegister_DuplicateEmail(t *testing.T) {
	t.Parallel()

	ts := GetTestServer(t)
	email := helpers.UniqueEmail("duplicate")

	registerBody := map[string]interface{}{
		"name":     "First",
		"email":    email,
		"password": "super_password123",
		"role":     "employer",
	}

	res, body := ts.SendRequest(t, http.MethodPost, "/api/v1/auth/register", "", registerBody)
	require.Equal(t, http.StatusCreated, res.StatusCode, body)

	res, body = ts.SendRequest(t, http.MethodPost, "/api/v1/auth/register", "", registerBody)
	assert.Equal(t, http.StatusConflict, res.StatusCode, body)
}

func TestLogin_WrongPassword(t *testing.T) {
	t.Parallel()

	ts := GetTestServer(t)
	_, user := helpers.CreateAndLoginStudent(t, ts)

	res, body := ts.SendRequest(t, http.MethodPost, "/api/v1/auth/login", "", map[string]interface{}{
		"email":    user.Email,
		"password": "not_the_password",
	})
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode, body)
}

func TestGetCurrentUser(t *testing.T) {
	t.Parallel()

	ts := GetTestServer(t)
	token, user := helpers.CreateAndLoginStudent(t, ts)

	res, body := ts.SendRequest(t, http.MethodGet, "/api/v1/users/me", token, nil)
	require.Equal(t, http.StatusOK, res.StatusCode, body)
	assert.Contains(t, body, user.Email)

	// No token.
	res, _ = ts.SendRequest(t, http.MethodGet, "/api/v1/users/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
}

func TestRegister_InvalidRole(t *testing.T) {
	t.Parallel()

	ts := GetTestServer(t)

	res, body := ts.SendRequest(t, http.MethodPost, "/api/v1/auth/register", "", map[string]interface{}{
		"name":     "Nobody",
		"email":    helpers.UniqueEmail("badrole"),
		"password": "super_password123",
		"role":     "superuser",
	})
	assert.Equal(t, http.StatusBadRequest, res.StatusCode, body)
}
