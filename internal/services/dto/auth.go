package dto

type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Name     string `json:"name" validate:"required"`
	City     string `json:"city"`
	Role     string `json:"role" validate:"required,oneof=student employer"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type AuthResponse struct {
	AccessToken string       `json:"access_token"`
	User        UserResponse `json:"user"`
}

type UserResponse struct {
	ID         string `json:"id"`
	Email      string `json:"email"`
	Name       string `json:"name"`
	City       string `json:"city,omitempty"`
	Role       string `json:"role"`
	KycStatus  string `json:"kyc_status"`
	IsVerified bool   `json:"is_verified"`
}
