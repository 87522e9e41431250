package helpers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"studwork_backend/internal/models"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// CreateUser inserts a user, hashing the password when it is given raw.
func CreateUser(t *testing.T, db *gorm.DB, user *models.User) {
	if user.PasswordHash != "" && !strings.HasPrefix(user.PasswordHash, "$2a$") {
		hashed, err := bcrypt.GenerateFromPassword([]byte(user.PasswordHash), bcrypt.DefaultCost)
		require.NoError(t, err, "failed to hash test password")
		user.PasswordHash = string(hashed)
	}

	if user.KycStatus == "" {
		user.KycStatus = models.KycStatusNotSubmitted
	}

	require.NoError(t, db.Create(user).Error, "failed to create test user %s", user.Email)
}

// CreateAndLoginUser creates a user and logs in through the API, returning
// the access token.
func CreateAndLoginUser(t *testing.T, ts *TestServer, name, email, password string, role models.UserRole) (string, *models.User) {
	user := &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: password,
		Role:         role,
	}
	CreateUser(t, ts.DB, user)

	loginBody := map[string]interface{}{
		"email":    email,
		"password": password,
	}

	res, bodyStr := ts.SendRequest(t, http.MethodPost, "/api/v1/auth/login", "", loginBody)
	require.Equal(t, http.StatusOK, res.StatusCode, "login should succeed, got: %s", bodyStr)

	var loginResponse struct {
		Token string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal([]byte(bodyStr), &loginResponse))
	require.NotEmpty(t, loginResponse.Token)

	return loginResponse.Token, user
}

// UniqueEmail builds an email no other test run used.
func UniqueEmail(prefix string) string {
	return fmt.Sprintf("%s_%d@test.com", prefix, time.Now().UnixNano())
}

func CreateAndLoginStudent(t *testing.T, ts *TestServer) (string, *models.User) {
	return CreateAndLoginUser(t, ts, "Test Student", UniqueEmail("student"), "password123", models.UserRoleStudent)
}

func CreateAndLoginEmployer(t *testing.T, ts *TestServer) (string, *models.User) {
	return CreateAndLoginUser(t, ts, "Test Employer", UniqueEmail("employer"), "password123", models.UserRoleEmployer)
}

func CreateAndLoginAdmin(t *testing.T, ts *TestServer) (string, *models.User) {
	return CreateAndLoginUser(t, ts, "Test Admin", UniqueEmail("admin"), "password123", models.UserRoleAdmin)
}

// ReloadUser fetches the current committed state of a user row.
func ReloadUser(t *testing.T, db *gorm.DB, userID string) *models.User {
	var user models.User
	require.NoError(t, db.Where("id = ?", userID).First(&user).Error)
	return &user
}

// ActiveRecord fetches the subject's active verification record, or nil.
func ActiveRecord(t *testing.T, db *gorm.DB, userID string) *models.VerificationRecord {
	var record models.VerificationRecord
	err := db.Where("user_id = ? AND is_archived = false", userID).First(&record).Error
	if err == gorm.ErrRecordNotFound {
		return nil
	}
	require.NoError(t, err)
	return &record
}

// AuditEntries fetches all audit entries for a subject, oldest first.
func AuditEntries(t *testing.T, db *gorm.DB, userID string) []models.KycAuditEntry {
	var entries []models.KycAuditEntry
	require.NoError(t, db.Where("user_id = ?", userID).Order("created_at ASC").Find(&entries).Error)
	return entries
}
