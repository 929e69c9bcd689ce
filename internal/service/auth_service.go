package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/oishine/backoffice/internal/auth"
	"github.com/oishine/backoffice/internal/config"
	"github.com/oishine/backoffice/internal/domain"
	"github.com/oishine/backoffice/internal/repository"
	apperrors "github.com/oishine/backoffice/pkg/util"
)

// Login failures. Unknown email and wrong password share one message.
var (
	ErrInvalidCredentials       = apperrors.NewDomainError("INVALID_CREDENTIALS", "invalid email or password", http.StatusUnauthorized)
	ErrAccountDeactivated       = apperrors.NewDomainError("ACCOUNT_DEACTIVATED", "account is deactivated", http.StatusUnauthorized)
	ErrTooManyLoginAttempts     = apperrors.NewDomainError("TOO_MANY_REQUESTS", "too many login attempts, try again later", http.StatusTooManyRequests)
	ErrCurrentPasswordIncorrect = apperrors.NewDomainError("VALIDATION_FAILED", "current password is incorrect", http.StatusBadRequest)
	ErrEmailTaken               = apperrors.NewDomainError("CONFLICT", "email already in use", http.StatusConflict)
	ErrCannotDeactivateSelf     = apperrors.NewDomainError("FORBIDDEN", "cannot deactivate your own account", http.StatusForbidden)
)

// LoginGuard throttles repeated failed logins for one email.
type LoginGuard interface {
	Allowed(ctx context.Context, email string) bool
	RecordFailure(ctx context.Context, email string)
	Reset(ctx context.Context, email string)
}

// SessionRevoker drops live realtime privileges of one admin.
type SessionRevoker interface {
	RevokeAdmin(adminID string) int
}

type noopGuard struct{}

func (noopGuard) Allowed(context.Context, string) bool  { return true }
func (noopGuard) RecordFailure(context.Context, string) {}
func (noopGuard) Reset(context.Context, string)         {}

// AuthService coordinates admin login and profile flows.
type AuthService struct {
	admins     repository.AdminRepository
	tokenMgr   *auth.TokenManager
	guard      LoginGuard
	revoker    SessionRevoker
	bcryptCost int
	logger     *zap.Logger
	now        func() time.Time
}

// AuthDependencies encapsulates requirements for the auth service.
type AuthDependencies struct {
	AdminRepo  repository.AdminRepository
	Tokens     *auth.TokenManager
	Guard      LoginGuard
	Revoker    SessionRevoker
	BcryptCost int
	Logger     *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(deps AuthDependencies) *AuthService {
	guard := deps.Guard
	if guard == nil {
		guard = noopGuard{}
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		admins:     deps.AdminRepo,
		tokenMgr:   deps.Tokens,
		guard:      guard,
		revoker:    deps.Revoker,
		bcryptCost: deps.BcryptCost,
		logger:     logger,
		now:        time.Now,
	}
}

// LoginResult is a freshly minted session.
type LoginResult struct {
	Admin     domain.AdminPublic
	Token     string
	ExpiresAt time.Time
}

// Login authenticates an admin by exact email and password.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	if !s.guard.Allowed(ctx, email) {
		return nil, ErrTooManyLoginAttempts
	}

	admin, err := s.admins.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			auth.CompareDummy(password)
			s.guard.RecordFailure(ctx, email)
			return nil, ErrInvalidCredentials
		}
		return nil, apperrors.NewInternalError(fmt.Errorf("lookup admin by email: %w", err))
	}
	if err := auth.ComparePassword(admin.PasswordHash, password); err != nil {
		s.guard.RecordFailure(ctx, email)
		return nil, ErrInvalidCredentials
	}
	if !admin.IsActive {
		return nil, ErrAccountDeactivated
	}

	now := s.now()
	if err := s.admins.UpdateLastLogin(ctx, admin.ID, now); err != nil {
		return nil, apperrors.NewInternalError(fmt.Errorf("record last login: %w", err))
	}
	admin.LastLogin = &now

	token, exp, err := s.tokenMgr.GenerateToken(admin)
	if err != nil {
		return nil, apperrors.NewInternalError(fmt.Errorf("sign token: %w", err))
	}
	s.guard.Reset(ctx, email)
	s.logger.Info("admin logged in", zap.String("admin_id", admin.ID))

	return &LoginResult{Admin: admin.Public(), Token: token, ExpiresAt: exp}, nil
}

// ProfileInput carries optional profile changes.
type ProfileInput struct {
	Name  *string
	Email *string
}

// UpdateProfile changes the admin's display name and/or email.
func (s *AuthService) UpdateProfile(ctx context.Context, adminID string, input ProfileInput) (*domain.AdminPublic, error) {
	admin, err := s.loadAdmin(ctx, adminID)
	if err != nil {
		return nil, err
	}
	name, email := admin.Name, admin.Email
	if input.Name != nil {
		name = strings.TrimSpace(*input.Name)
	}
	if input.Email != nil {
		email = strings.TrimSpace(*input.Email)
	}
	updated, err := s.admins.UpdateProfile(ctx, admin.ID, name, email)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("admin")
		}
		return nil, apperrors.MapError(err)
	}
	public := updated.Public()
	return &public, nil
}

// ChangePassword verifies the current password, then stores a new hash.
func (s *AuthService) ChangePassword(ctx context.Context, adminID, currentPassword, newPassword string) error {
	admin, err := s.loadAdmin(ctx, adminID)
	if err != nil {
		return err
	}
	if err := auth.ComparePassword(admin.PasswordHash, currentPassword); err != nil {
		return ErrCurrentPasswordIncorrect
	}
	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	if err := s.admins.UpdatePassword(ctx, admin.ID, hash); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("admin")
		}
		return apperrors.MapError(err)
	}
	s.logger.Info("admin password changed", zap.String("admin_id", admin.ID))
	return nil
}

// ListAdmins returns every administrator's public projection.
func (s *AuthService) ListAdmins(ctx context.Context) ([]domain.AdminPublic, error) {
	admins, err := s.admins.List(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	out := make([]domain.AdminPublic, 0, len(admins))
	for i := range admins {
		out = append(out, admins[i].Public())
	}
	return out, nil
}

// SetActive activates or deactivates another admin. Existing sessions of
// a deactivated admin fail their next verification and lose the admin
// realtime feed at once.
func (s *AuthService) SetActive(ctx context.Context, actorID, targetID string, active bool) (*domain.AdminPublic, error) {
	if actorID == targetID && !active {
		return nil, ErrCannotDeactivateSelf
	}
	admin, err := s.admins.SetActive(ctx, targetID, active)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("admin")
		}
		return nil, apperrors.MapError(err)
	}
	if !active && s.revoker != nil {
		s.revoker.RevokeAdmin(targetID)
	}
	s.logger.Info("admin activation changed",
		zap.String("actor_id", actorID),
		zap.String("admin_id", targetID),
		zap.Bool("active", active))
	public := admin.Public()
	return &public, nil
}

// EnsureSeedAdmin provisions a SUPER_ADMIN when the email is configured
// and no admin with it exists yet.
func (s *AuthService) EnsureSeedAdmin(ctx context.Context, seed config.SeedConfig) error {
	if seed.AdminEmail == "" || seed.AdminPassword == "" {
		return nil
	}
	if _, err := s.admins.GetByEmail(ctx, seed.AdminEmail); err == nil {
		return nil
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return err
	}

	hash, err := auth.HashPassword(seed.AdminPassword, s.bcryptCost)
	if err != nil {
		return err
	}
	admin := &domain.Admin{
		Email:        seed.AdminEmail,
		Name:         seed.AdminName,
		PasswordHash: hash,
		Role:         domain.AdminRoleSuperAdmin,
		IsActive:     true,
	}
	if err := s.admins.Create(ctx, admin); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil
		}
		return err
	}
	s.logger.Info("seeded super admin", zap.String("email", admin.Email))
	return nil
}

func (s *AuthService) loadAdmin(ctx context.Context, id string) (*domain.Admin, error) {
	admin, err := s.admins.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("admin")
		}
		return nil, apperrors.MapError(err)
	}
	return admin, nil
}
