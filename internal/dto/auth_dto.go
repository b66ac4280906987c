package dto

import "time"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type RegisterRequest struct {
	Name            string  `json:"name"            validate:"required,min=2,max=100"`
	Email           string  `json:"email"           validate:"required,email"`
	Password        string  `json:"password"        validate:"required,min=6"`
	ConfirmPassword string  `json:"confirmPassword" validate:"required"`
	Role            string  `json:"role"            validate:"omitempty,oneof=creator verifier viewer"`
	Department      *string `json:"department"`
}

type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=1"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type CheckEmailRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type CreateUserRequest struct {
	Name       string  `json:"name"       validate:"required,min=2,max=100"`
	Email      string  `json:"email"      validate:"required,email"`
	Password   string  `json:"password"   validate:"required,min=6"`
	Role       string  `json:"role"       validate:"required,oneof=admin creator verifier viewer"`
	Department *string `json:"department"`
}

type UpdateUserRequest struct {
	Name       *string `json:"name"       validate:"omitempty,min=2,max=100"`
	Email      *string `json:"email"      validate:"omitempty,email"`
	Role       *string `json:"role"       validate:"omitempty,oneof=admin creator verifier viewer"`
	Department *string `json:"department"`
	Active     *bool   `json:"active"`
}

type ResetPasswordRequest struct {
	Password string `json:"password" validate:"required,min=6"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type UserResponse struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Email      string     `json:"email"`
	Role       string     `json:"role"`
	Department *string    `json:"department,omitempty"`
	Active     bool       `json:"active"`
	LastLogin  *time.Time `json:"lastLogin,omitempty"`
}

type LoginResponse struct {
	Success      bool         `json:"success"`
	Token        string       `json:"token"`
	RefreshToken string       `json:"refresh_token"`
	TokenType    string       `json:"token_type"`
	ExpiresIn    int          `json:"expires_in"` // seconds
	User         UserResponse `json:"user"`
}

type CheckEmailResponse struct {
	Exists bool `json:"exists"`
}
