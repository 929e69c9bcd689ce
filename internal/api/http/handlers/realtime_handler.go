package handlers

import (
	"context"
	"strings"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/oishine/backoffice/internal/auth"
	"github.com/oishine/backoffice/internal/domain"
	"github.com/oishine/backoffice/internal/realtime"
	apperrors "github.com/oishine/backoffice/pkg/util"
)

const (
	wsAdminKey      = "ws_admin"
	wsCredentialKey = "ws_credential"

	adminCheckTimeout = 5 * time.Second
)

// RealtimeHandler upgrades clients to websockets and binds them to the broadcaster.
type RealtimeHandler struct {
	broadcaster  *realtime.Broadcaster
	verifier     *auth.Verifier
	sessions     *realtime.Sessions
	cookieName   string
	writeTimeout time.Duration
	adminRecheck time.Duration
	logger       *zap.Logger
}

// RealtimeDependencies bundles collaborators for the websocket endpoint.
type RealtimeDependencies struct {
	Broadcaster  *realtime.Broadcaster
	Verifier     *auth.Verifier
	Sessions     *realtime.Sessions
	CookieName   string
	WriteTimeout time.Duration
	// AdminRecheck is how often admin sessions are re-verified; zero disables it.
	AdminRecheck time.Duration
	Logger       *zap.Logger
}

// NewRealtimeHandler constructs handler.
func NewRealtimeHandler(deps RealtimeDependencies) *RealtimeHandler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	sessions := deps.Sessions
	if sessions == nil {
		sessions = realtime.NewSessions()
	}
	return &RealtimeHandler{
		broadcaster:  deps.Broadcaster,
		verifier:     deps.Verifier,
		sessions:     sessions,
		cookieName:   deps.CookieName,
		writeTimeout: deps.WriteTimeout,
		adminRecheck: deps.AdminRecheck,
		logger:       logger,
	}
}

// Upgrade rejects non-websocket requests and resolves the optional
// credential before the handshake. A presented but invalid credential is
// refused with 401; no credential yields an anonymous connection.
func (h *RealtimeHandler) Upgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}

	src := auth.CredentialFromRequest(c, h.cookieName)
	if token := strings.TrimSpace(c.Query("token")); token != "" && src.Authorization == "" {
		src.Authorization = "Bearer " + token
	}
	if _, ok := src.Token(); !ok {
		return c.Next()
	}

	admin, err := h.verifier.Verify(c.UserContext(), src)
	if err != nil {
		if authErr, ok := auth.AsError(err); ok {
			return apperrors.NewUnauthorized(authErr.Message)
		}
		return apperrors.NewInternalError(err)
	}
	c.Locals(wsAdminKey, admin)
	c.Locals(wsCredentialKey, src)
	return c.Next()
}

// Serve returns the websocket endpoint.
func (h *RealtimeHandler) Serve() fiber.Handler {
	return websocket.New(h.serve)
}

func (h *RealtimeHandler) serve(ws *websocket.Conn) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	admin, _ := ws.Locals(wsAdminKey).(*domain.AdminPublic)
	conn := realtime.NewSocketConn(ws, h.writeTimeout)
	session := realtime.NewSession(h.broadcaster, conn, admin, h.adminCheck(ws))
	h.sessions.Add(session)
	defer func() {
		h.sessions.Remove(session)
		session.Close()
		_ = ws.Close()
	}()

	fields := []zap.Field{zap.String("conn_id", conn.ID()), zap.Bool("authenticated", admin != nil)}
	h.logger.Debug("realtime connection opened", fields...)

	if admin != nil && h.adminRecheck > 0 {
		go h.recheck(ctx, session, fields)
	}

	for {
		_, raw, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.Debug("realtime read failed", append(fields, zap.Error(err))...)
			}
			break
		}
		if err := conn.WriteJSON(session.Handle(ctx, raw)); err != nil {
			h.logger.Debug("realtime reply failed", append(fields, zap.Error(err))...)
			break
		}
	}
	h.logger.Debug("realtime connection closed", fields...)
}

// adminCheck re-verifies the credential presented at connect time.
func (h *RealtimeHandler) adminCheck(ws *websocket.Conn) realtime.AdminCheck {
	src, ok := ws.Locals(wsCredentialKey).(auth.CredentialSource)
	if !ok {
		return nil
	}
	return func(ctx context.Context) (*domain.AdminPublic, error) {
		ctx, cancel := context.WithTimeout(ctx, adminCheckTimeout)
		defer cancel()
		return h.verifier.Verify(ctx, src)
	}
}

func (h *RealtimeHandler) recheck(ctx context.Context, session *realtime.Session, fields []zap.Field) {
	ticker := time.NewTicker(h.adminRecheck)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !session.Revalidate(ctx) {
				h.logger.Debug("realtime admin access revoked", fields...)
			}
		}
	}
}
