package dto

import "github.com/oishine/backoffice/internal/domain"

// LoginRequest payload.
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginUser is the identity echoed back on login.
type LoginUser struct {
	ID    string           `json:"id"`
	Email string           `json:"email"`
	Name  string           `json:"name"`
	Role  domain.AdminRole `json:"role"`
}

// LoginResponse standard response for a successful login.
type LoginResponse struct {
	Success bool      `json:"success"`
	Token   string    `json:"token"`
	User    LoginUser `json:"user"`
}

// MessageResponse is a bare success acknowledgement.
type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// ProfileUpdateRequest payload. Absent fields are left unchanged.
type ProfileUpdateRequest struct {
	Name  *string `json:"name" validate:"omitempty,min=1,max=120"`
	Email *string `json:"email" validate:"omitempty,email"`
}

// PasswordChangeRequest payload for authenticated password changes.
type PasswordChangeRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=6"`
}

// SetActiveRequest toggles an administrator's active flag.
type SetActiveRequest struct {
	IsActive *bool `json:"isActive" validate:"required"`
}
