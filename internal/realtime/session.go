package realtime

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"github.com/oishine/backoffice/internal/domain"
)

// Client actions.
const (
	ActionJoin  = "join"
	ActionLeave = "leave"
	ActionPing  = "ping"
)

const msgAdminRequired = "admin authentication required"

// ClientFrame is a control message sent by a connected client.
type ClientFrame struct {
	Action string `json:"action"`
	Topic  string `json:"topic"`
}

// Reply answers a ClientFrame.
type Reply struct {
	Type   string `json:"type"`
	Action string `json:"action,omitempty"`
	Topic  string `json:"topic,omitempty"`
	Error  string `json:"error,omitempty"`
}

func ack(action, topic string) Reply {
	return Reply{Type: "ack", Action: action, Topic: topic}
}

func replyError(action, topic, msg string) Reply {
	return Reply{Type: "error", Action: action, Topic: topic, Error: msg}
}

// AdminCheck resolves the connection's credential to an active admin.
// It fails once the admin is deactivated or the credential expires.
type AdminCheck func(ctx context.Context) (*domain.AdminPublic, error)

// Session applies one connection's join/leave frames to the broadcaster.
type Session struct {
	broadcaster *Broadcaster
	conn        Conn
	adminID     string
	check       AdminCheck

	// mu orders admin-topic joins against revocation.
	mu sync.Mutex
}

// NewSession binds conn to b. admin is the administrator verified at
// connect time and check re-verifies it; a nil admin or check makes the
// session anonymous, which may not join the admin topic.
func NewSession(b *Broadcaster, conn Conn, admin *domain.AdminPublic, check AdminCheck) *Session {
	s := &Session{broadcaster: b, conn: conn}
	if admin != nil && check != nil {
		s.adminID = admin.ID
		s.check = check
	}
	return s
}

// AdminID returns the connect-time admin, or "" for anonymous sessions.
func (s *Session) AdminID() string {
	return s.adminID
}

// Handle decodes and applies one client frame.
func (s *Session) Handle(ctx context.Context, raw []byte) Reply {
	var frame ClientFrame
	if err := json.Unmarshal(raw, &frame); err != nil {
		return replyError("", "", "invalid frame")
	}
	action := strings.ToLower(strings.TrimSpace(frame.Action))
	topic := strings.TrimSpace(frame.Topic)

	switch action {
	case ActionPing:
		return Reply{Type: "pong"}
	case ActionJoin:
		if !ValidTopic(topic) {
			return replyError(action, topic, "invalid topic")
		}
		if topic == AdminTopic {
			return s.joinAdmin(ctx)
		}
		s.broadcaster.Subscribe(s.conn, topic)
		return ack(action, topic)
	case ActionLeave:
		if !ValidTopic(topic) {
			return replyError(action, topic, "invalid topic")
		}
		s.broadcaster.Unsubscribe(s.conn, topic)
		return ack(action, topic)
	default:
		return replyError(action, topic, "unknown action")
	}
}

func (s *Session) joinAdmin(ctx context.Context) Reply {
	if s.check == nil {
		return replyError(ActionJoin, AdminTopic, msgAdminRequired)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.check(ctx); err != nil {
		s.broadcaster.Unsubscribe(s.conn, AdminTopic)
		return replyError(ActionJoin, AdminTopic, msgAdminRequired)
	}
	s.broadcaster.Subscribe(s.conn, AdminTopic)
	return ack(ActionJoin, AdminTopic)
}

// Revalidate re-runs the admin check and drops the admin topic when it
// fails. Anonymous sessions always report true.
func (s *Session) Revalidate(ctx context.Context) bool {
	if s.check == nil {
		return true
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.check(ctx); err != nil {
		s.broadcaster.Unsubscribe(s.conn, AdminTopic)
		return false
	}
	return true
}

// Revoke drops the admin topic without consulting the check. A later
// join is verified again.
func (s *Session) Revoke() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.broadcaster.Unsubscribe(s.conn, AdminTopic)
}

// Close removes every subscription the connection holds.
func (s *Session) Close() {
	s.broadcaster.Disconnect(s.conn)
}

// Sessions indexes live admin sessions by admin id so a deactivation can
// cut their admin feed immediately.
type Sessions struct {
	mu      sync.Mutex
	byAdmin map[string]map[*Session]struct{}
}

// NewSessions returns an empty registry.
func NewSessions() *Sessions {
	return &Sessions{byAdmin: make(map[string]map[*Session]struct{})}
}

// Add tracks s. Anonymous sessions are ignored.
func (r *Sessions) Add(s *Session) {
	if s.adminID == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	set, ok := r.byAdmin[s.adminID]
	if !ok {
		set = make(map[*Session]struct{})
		r.byAdmin[s.adminID] = set
	}
	set[s] = struct{}{}
}

// Remove stops tracking s. It is safe to call more than once.
func (r *Sessions) Remove(s *Session) {
	if s.adminID == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	set := r.byAdmin[s.adminID]
	delete(set, s)
	if len(set) == 0 {
		delete(r.byAdmin, s.adminID)
	}
}

// RevokeAdmin drops the admin topic from every live session of adminID
// and returns how many sessions were affected.
func (r *Sessions) RevokeAdmin(adminID string) int {
	r.mu.Lock()
	sessions := make([]*Session, 0, len(r.byAdmin[adminID]))
	for s := range r.byAdmin[adminID] {
		sessions = append(sessions, s)
	}
	r.mu.Unlock()

	for _, s := range sessions {
		s.Revoke()
	}
	return len(sessions)
}
