package auth

import (
	"time"

	"github.com/medimitra/medimitra-backend/internal/users"
	"github.com/medimitra/medimitra-backend/pkg/enums"
)

// LoginRequest captures the user credentials sent to the login endpoint.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RegisterRequest is the self-service sign-up payload. Only patient and
// doctor accounts can be self-registered.
type RegisterRequest struct {
	Name     string         `json:"name" validate:"required,max=120"`
	Email    string         `json:"email" validate:"required,email"`
	Password string         `json:"password" validate:"required,min=8,max=128"`
	Role     enums.UserRole `json:"role,omitempty"`
}

// CreateUserRequest is used by admins to provision any account, including other admins.
type CreateUserRequest struct {
	Name     string         `json:"name" validate:"required,max=120"`
	Email    string         `json:"email" validate:"required,email"`
	Password string         `json:"password" validate:"required,min=8,max=128"`
	Role     enums.UserRole `json:"role" validate:"required"`
	IsActive *bool          `json:"isActive,omitempty"`
}

// LoginResponse contains the access token and the authenticated user.
type LoginResponse struct {
	AccessToken string         `json:"accessToken"`
	ExpiresAt   time.Time      `json:"expiresAt"`
	User        *users.UserDTO `json:"user"`
}
