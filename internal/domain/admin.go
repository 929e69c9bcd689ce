package domain

import "time"

// AdminRole enumerates back-office privilege levels.
type AdminRole string

const (
	AdminRoleAdmin      AdminRole = "ADMIN"
	AdminRoleSuperAdmin AdminRole = "SUPER_ADMIN"
)

// Valid reports whether the role is one of the known values.
func (r AdminRole) Valid() bool {
	return r == AdminRoleAdmin || r == AdminRoleSuperAdmin
}

// Admin is a back-office operator. Only active admins may hold a session.
type Admin struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	Role         AdminRole
	IsActive     bool
	LastLogin    *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// AdminPublic is the projection of an Admin that may leave the process.
type AdminPublic struct {
	ID       string    `json:"id"`
	Email    string    `json:"email"`
	Name     string    `json:"name"`
	Role     AdminRole `json:"role"`
	IsActive bool      `json:"isActive"`
}

// Public strips secrets from the admin record.
func (a *Admin) Public() AdminPublic {
	return AdminPublic{
		ID:       a.ID,
		Email:    a.Email,
		Name:     a.Name,
		Role:     a.Role,
		IsActive: a.IsActive,
	}
}
