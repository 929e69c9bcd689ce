package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/oishine/backoffice/internal/api/dto"
	"github.com/oishine/backoffice/internal/auth"
	"github.com/oishine/backoffice/internal/domain"
	"github.com/oishine/backoffice/internal/service"
	apperrors "github.com/oishine/backoffice/pkg/util"
)

// CookieSettings controls the session cookie.
type CookieSettings struct {
	Name   string
	MaxAge time.Duration
	Secure bool
}

// AuthHandler exposes admin login, logout and profile endpoints.
type AuthHandler struct {
	auth   *service.AuthService
	cookie CookieSettings
	logger *zap.Logger
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService, cookie CookieSettings, logger *zap.Logger) *AuthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthHandler{auth: authService, cookie: cookie, logger: logger}
}

// Login handles POST /api/admin/auth/login. Failures render {error} only.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return loginFailure(c, http.StatusBadRequest, "invalid payload")
	}
	if req.Email == "" || req.Password == "" {
		return loginFailure(c, http.StatusBadRequest, "email and password are required")
	}

	result, err := h.auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		domainErr := apperrors.ToDomainError(err)
		if domainErr.HTTPStatus >= http.StatusInternalServerError {
			h.logger.Error("login failed", zap.Error(err))
		}
		return loginFailure(c, domainErr.HTTPStatus, domainErr.Message)
	}

	c.Cookie(&fiber.Cookie{
		Name:     h.cookie.Name,
		Value:    result.Token,
		Path:     "/",
		MaxAge:   int(h.cookie.MaxAge.Seconds()),
		Expires:  result.ExpiresAt,
		HTTPOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})

	return c.JSON(dto.LoginResponse{
		Success: true,
		Token:   result.Token,
		User: dto.LoginUser{
			ID:    result.Admin.ID,
			Email: result.Admin.Email,
			Name:  result.Admin.Name,
			Role:  result.Admin.Role,
		},
	})
}

// Logout handles POST /api/admin/auth/logout. It never inspects the credential.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	c.Response().Header.Add(fiber.HeaderSetCookie, h.clearedCookie())
	return c.JSON(dto.MessageResponse{Success: true, Message: "logged out successfully"})
}

// Me handles GET /api/admin/auth/me.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "user": principal})
}

// UpdateProfile handles PUT /api/admin/profile.
func (h *AuthHandler) UpdateProfile(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var req dto.ProfileUpdateRequest
	if err := parseAndValidate(c, &req); err != nil {
		return err
	}
	if req.Name == nil && req.Email == nil {
		return apperrors.NewValidationError("name or email required")
	}

	updated, err := h.auth.UpdateProfile(c.UserContext(), principal.ID, service.ProfileInput{Name: req.Name, Email: req.Email})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "user": updated})
}

// ChangePassword handles PUT /api/admin/profile/password.
func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var req dto.PasswordChangeRequest
	if err := parseAndValidate(c, &req); err != nil {
		return err
	}
	if err := h.auth.ChangePassword(c.UserContext(), principal.ID, req.CurrentPassword, req.NewPassword); err != nil {
		return err
	}
	return c.JSON(dto.MessageResponse{Success: true, Message: "password updated"})
}

// clearedCookie renders an empty session cookie with Max-Age=0. fasthttp
// omits non-positive max-age values, so the attribute is appended here.
func (h *AuthHandler) clearedCookie() string {
	cookie := fasthttp.AcquireCookie()
	defer fasthttp.ReleaseCookie(cookie)

	cookie.SetKey(h.cookie.Name)
	cookie.SetPath("/")
	cookie.SetExpire(time.Unix(0, 0))
	cookie.SetHTTPOnly(true)
	cookie.SetSecure(h.cookie.Secure)
	cookie.SetSameSite(fasthttp.CookieSameSiteLaxMode)
	return cookie.String() + "; max-age=0"
}

func loginFailure(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{"error": message})
}

func parseAndValidate(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return apperrors.NewValidationError("invalid payload")
	}
	if err := dto.Validate(out); err != nil {
		return apperrors.NewValidationError(err.Error())
	}
	return nil
}

var errNoPrincipal = errors.New("no authenticated admin on request")

func requirePrincipal(c *fiber.Ctx) (*domain.AdminPublic, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return nil, apperrors.NewInternalError(errNoPrincipal)
	}
	return principal, nil
}
