package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/oishine/backoffice/internal/domain"
)

// Kind classifies why a credential was rejected.
type Kind string

const (
	KindMissingCredential   Kind = "MissingCredential"
	KindMalformedCredential Kind = "MalformedCredential"
	KindUnknownSubject      Kind = "UnknownSubject"
	KindDeactivated         Kind = "Deactivated"
)

// Messages surfaced to admin clients. Expired and malformed must differ.
const (
	MsgMissingCredential = "authentication required"
	MsgInvalidToken      = "invalid token"
	MsgExpiredToken      = "token expired"
	MsgMissingSubject    = "invalid token: missing subject"
	MsgUnknownSubject    = "admin not found"
	MsgDeactivated       = "admin account is deactivated"
)

// Error is an authorization failure. Every kind maps to 401.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Status is the HTTP status for the failure.
func (e *Error) Status() int {
	return http.StatusUnauthorized
}

// IsExpired distinguishes an expired credential from a malformed one.
func (e *Error) IsExpired() bool {
	return e.Kind == KindMalformedCredential && e.Message == MsgExpiredToken
}

func newError(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// AsError extracts an authorization failure from err.
func AsError(err error) (*Error, bool) {
	var authErr *Error
	if errors.As(err, &authErr) {
		return authErr, true
	}
	return nil, false
}

// CredentialSource carries the raw places a credential may arrive in.
type CredentialSource struct {
	Authorization string
	Cookie        string
}

// Token applies header-over-cookie precedence.
func (s CredentialSource) Token() (string, bool) {
	if token, ok := bearerToken(s.Authorization); ok {
		return token, true
	}
	if cookie := strings.TrimSpace(s.Cookie); cookie != "" {
		return cookie, true
	}
	return "", false
}

func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

// AdminFinder is the read path into the administrator store.
type AdminFinder interface {
	GetByID(ctx context.Context, id string) (*domain.Admin, error)
}

// Verifier resolves credentials to active administrators. It holds no
// mutable state and is safe for concurrent use.
type Verifier struct {
	tokens *TokenManager
	admins AdminFinder
}

// NewVerifier constructs a verifier.
func NewVerifier(tokens *TokenManager, admins AdminFinder) *Verifier {
	return &Verifier{tokens: tokens, admins: admins}
}

// Verify returns the admin's public projection, an *Error for rejected
// credentials, or a wrapped infrastructure error.
func (v *Verifier) Verify(ctx context.Context, src CredentialSource) (*domain.AdminPublic, error) {
	raw, ok := src.Token()
	if !ok {
		return nil, newError(KindMissingCredential, MsgMissingCredential)
	}

	claims, err := v.tokens.ParseToken(raw)
	if err != nil {
		if errors.Is(err, ErrTokenExpired) {
			return nil, newError(KindMalformedCredential, MsgExpiredToken)
		}
		return nil, newError(KindMalformedCredential, MsgInvalidToken)
	}
	if claims.Subject == "" {
		return nil, newError(KindMalformedCredential, MsgMissingSubject)
	}

	admin, err := v.admins.GetByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, newError(KindUnknownSubject, MsgUnknownSubject)
		}
		return nil, fmt.Errorf("load admin %s: %w", claims.Subject, err)
	}
	if !admin.IsActive {
		return nil, newError(KindDeactivated, MsgDeactivated)
	}

	public := admin.Public()
	return &public, nil
}
