package auth

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/oishine/backoffice/internal/domain"
	"github.com/oishine/backoffice/internal/observability"
	apperrors "github.com/oishine/backoffice/pkg/util"
)

const principalKey = "auth_principal"

// AuthMiddleware runs the verifier on protected routes.
type AuthMiddleware struct {
	verifier   *Verifier
	cookieName string
	logger     *zap.Logger
	metrics    *observability.Metrics
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(verifier *Verifier, cookieName string, logger *zap.Logger, metrics *observability.Metrics) *AuthMiddleware {
	return &AuthMiddleware{verifier: verifier, cookieName: cookieName, logger: logger, metrics: metrics}
}

// CredentialFromRequest collects the Authorization header and auth cookie.
func CredentialFromRequest(c *fiber.Ctx, cookieName string) CredentialSource {
	return CredentialSource{
		Authorization: c.Get(fiber.HeaderAuthorization),
		Cookie:        c.Cookies(cookieName),
	}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	admin, err := m.verifier.Verify(c.UserContext(), CredentialFromRequest(c, m.cookieName))
	if err != nil {
		if authErr, ok := AsError(err); ok {
			m.metrics.RecordAuthOutcome(string(authErr.Kind))
			m.logger.Debug("auth rejected",
				zap.String("kind", string(authErr.Kind)),
				zap.String("reason", authErr.Message),
				zap.String("path", c.Path()))
			return apperrors.NewUnauthorized(authErr.Message)
		}
		m.metrics.RecordAuthOutcome("error")
		return apperrors.NewInternalError(err)
	}

	m.metrics.RecordAuthOutcome("ok")
	c.Locals(principalKey, admin)
	return c.Next()
}

// PrincipalFromContext retrieves the authenticated admin.
func PrincipalFromContext(c *fiber.Ctx) (*domain.AdminPublic, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*domain.AdminPublic)
	return principal, ok
}
