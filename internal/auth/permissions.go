package auth

import "errors"

const (
	RoleStudent  = "student"
	RoleEmployer = "employer"
	RoleAdmin    = "admin"
)

// Permissions per role. Admins review verifications; students and
// employers submit their own.
var Permissions = map[string][]string{
	RoleAdmin: {
		"kyc:review",
		"kyc:audit:read",
		"kyc:reconcile",
		"users:read",
	},
	RoleStudent: {
		"kyc:submit:self",
		"kyc:status:self",
		"notifications:read:self",
	},
	RoleEmployer: {
		"kyc:submit:self",
		"kyc:status:self",
		"notifications:read:self",
	},
}

func HasPermission(role, permission string) bool {
	permissions, exists := Permissions[role]
	if !exists {
		return false
	}

	for _, p := range permissions {
		if p == permission {
			return true
		}
	}
	return false
}

func IsAdmin(claims *Claims) bool {
	return claims.Role == RoleAdmin
}

func ValidateRole(role string) error {
	switch role {
	case RoleStudent, RoleEmployer, RoleAdmin:
		return nil
	default:
		return errors.New("invalid role")
	}
}
