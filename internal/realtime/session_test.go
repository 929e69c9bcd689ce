package realtime

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oishine/backoffice/internal/domain"
)

func TestSession_JoinAndLeave(t *testing.T) {
	ctx := context.Background()
	b := NewBroadcaster(Options{})
	defer b.Close()
	conn := newFakeConn("c1")
	session := NewSession(b, conn, nil, nil)

	reply := session.Handle(ctx, []byte(`{"action":"join","topic":"order:123"}`))
	assert.Equal(t, Reply{Type: "ack", Action: "join", Topic: "order:123"}, reply)
	assert.Equal(t, 1, b.Subscribers("order:123"))

	b.Publish("order:123", map[string]string{"status": "READY"})
	assert.Equal(t, "order:123", conn.next(t).Topic)

	reply = session.Handle(ctx, []byte(`{"action":"LEAVE","topic":"order:123"}`))
	assert.Equal(t, "ack", reply.Type)
	assert.Equal(t, 0, b.Subscribers("order:123"))
}

func TestSession_AdminTopicRequiresAdmin(t *testing.T) {
	ctx := context.Background()
	b := NewBroadcaster(Options{})
	defer b.Close()

	anon := NewSession(b, newFakeConn("anon"), nil, nil)
	reply := anon.Handle(ctx, []byte(`{"action":"join","topic":"admin"}`))
	assert.Equal(t, "error", reply.Type)
	assert.Equal(t, 0, b.Subscribers(AdminTopic))

	admin := &domain.AdminPublic{ID: "adm-1", Role: domain.AdminRoleAdmin, IsActive: true}
	authed := NewSession(b, newFakeConn("authed"), admin, newSwitchableCheck(admin).check)
	reply = authed.Handle(ctx, []byte(`{"action":"join","topic":"admin"}`))
	assert.Equal(t, "ack", reply.Type)
	assert.Equal(t, 1, b.Subscribers(AdminTopic))
}

func TestSession_RejectsBadFrames(t *testing.T) {
	ctx := context.Background()
	b := NewBroadcaster(Options{})
	defer b.Close()
	session := NewSession(b, newFakeConn("c"), nil, nil)

	cases := map[string]string{
		"not json":       `{`,
		"unknown action": `{"action":"dance","topic":"x"}`,
		"empty topic":    `{"action":"join","topic":"  "}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			reply := session.Handle(ctx, []byte(raw))
			assert.Equal(t, "error", reply.Type)
			assert.NotEmpty(t, reply.Error)
		})
	}
}

func TestSession_Ping(t *testing.T) {
	ctx := context.Background()
	b := NewBroadcaster(Options{})
	defer b.Close()
	session := NewSession(b, newFakeConn("c"), nil, nil)

	assert.Equal(t, Reply{Type: "pong"}, session.Handle(ctx, []byte(`{"action":"ping"}`)))
}

func TestSession_CloseDropsSubscriptions(t *testing.T) {
	ctx := context.Background()
	b := NewBroadcaster(Options{})
	defer b.Close()
	session := NewSession(b, newFakeConn("c"), nil, nil)
	session.Handle(ctx, []byte(`{"action":"join","topic":"order:1"}`))
	session.Handle(ctx, []byte(`{"action":"join","topic":"driver:1"}`))

	session.Close()

	assert.Equal(t, 0, b.Subscribers("order:1"))
	assert.Equal(t, 0, b.Subscribers("driver:1"))
}

// switchableCheck verifies its admin until revoked is set.
type switchableCheck struct {
	admin   *domain.AdminPublic
	revoked atomic.Bool
	calls   atomic.Int32
}

func newSwitchableCheck(admin *domain.AdminPublic) *switchableCheck {
	return &switchableCheck{admin: admin}
}

func (c *switchableCheck) check(context.Context) (*domain.AdminPublic, error) {
	c.calls.Add(1)
	if c.revoked.Load() {
		return nil, errors.New("admin account is deactivated")
	}
	return c.admin, nil
}

func TestSession_AdminJoinReverifiesCredential(t *testing.T) {
	ctx := context.Background()
	b := NewBroadcaster(Options{})
	defer b.Close()
	admin := &domain.AdminPublic{ID: "adm-1", Role: domain.AdminRoleAdmin, IsActive: true}
	check := newSwitchableCheck(admin)
	conn := newFakeConn("c")
	session := NewSession(b, conn, admin, check.check)

	check.revoked.Store(true)
	reply := session.Handle(ctx, []byte(`{"action":"join","topic":"admin"}`))

	assert.Equal(t, "error", reply.Type)
	assert.Equal(t, msgAdminRequired, reply.Error)
	assert.EqualValues(t, 1, check.calls.Load())
	assert.Equal(t, 0, b.Subscribers(AdminTopic))

	b.Publish(AdminTopic, "new order")
	conn.assertNothing(t)
}

func TestSession_RevalidateDropsAdminFeed(t *testing.T) {
	ctx := context.Background()
	b := NewBroadcaster(Options{})
	defer b.Close()
	admin := &domain.AdminPublic{ID: "adm-1", Role: domain.AdminRoleAdmin, IsActive: true}
	check := newSwitchableCheck(admin)
	conn := newFakeConn("c")
	session := NewSession(b, conn, admin, check.check)
	require.Equal(t, "ack", session.Handle(ctx, []byte(`{"action":"join","topic":"admin"}`)).Type)
	require.Equal(t, "ack", session.Handle(ctx, []byte(`{"action":"join","topic":"order:7"}`)).Type)

	assert.True(t, session.Revalidate(ctx))
	assert.Equal(t, 1, b.Subscribers(AdminTopic))

	check.revoked.Store(true)
	assert.False(t, session.Revalidate(ctx))
	assert.Equal(t, 0, b.Subscribers(AdminTopic))
	assert.Equal(t, 1, b.Subscribers("order:7"), "public topics survive")

	assert.True(t, NewSession(b, newFakeConn("anon"), nil, nil).Revalidate(ctx))
}

func TestSessions_RevokeAdmin(t *testing.T) {
	ctx := context.Background()
	b := NewBroadcaster(Options{})
	defer b.Close()
	registry := NewSessions()

	target := &domain.AdminPublic{ID: "adm-1", IsActive: true}
	other := &domain.AdminPublic{ID: "adm-2", IsActive: true}
	first := NewSession(b, newFakeConn("t1"), target, newSwitchableCheck(target).check)
	second := NewSession(b, newFakeConn("t2"), target, newSwitchableCheck(target).check)
	bystander := NewSession(b, newFakeConn("o1"), other, newSwitchableCheck(other).check)
	anon := NewSession(b, newFakeConn("anon"), nil, nil)
	for _, s := range []*Session{first, second, bystander, anon} {
		registry.Add(s)
		s.Handle(ctx, []byte(`{"action":"join","topic":"admin"}`))
	}
	require.Equal(t, 3, b.Subscribers(AdminTopic))
	assert.Equal(t, "adm-1", first.AdminID())
	assert.Empty(t, anon.AdminID())

	assert.Equal(t, 2, registry.RevokeAdmin("adm-1"))
	assert.Equal(t, 1, b.Subscribers(AdminTopic))

	registry.Remove(bystander)
	registry.Remove(bystander)
	assert.Zero(t, registry.RevokeAdmin("adm-2"))
	assert.Zero(t, registry.RevokeAdmin("unknown"))
}

type recordingWriter struct {
	deadlines []time.Time
	frames    []interface{}
	err       error
}

func (w *recordingWriter) SetWriteDeadline(t time.Time) error {
	w.deadlines = append(w.deadlines, t)
	return nil
}

func (w *recordingWriter) WriteJSON(v interface{}) error {
	if w.err != nil {
		return w.err
	}
	w.frames = append(w.frames, v)
	return nil
}

func TestSocketConn_SendSetsDeadline(t *testing.T) {
	w := &recordingWriter{}
	conn := NewSocketConn(w, time.Second)
	require.NotEmpty(t, conn.ID())

	msg := Message{Topic: "t", Payload: 1, Timestamp: time.Now()}
	require.NoError(t, conn.Send(msg))

	require.Len(t, w.frames, 1)
	assert.Equal(t, msg, w.frames[0])
	require.Len(t, w.deadlines, 1)
	assert.True(t, w.deadlines[0].After(time.Now()))
}

func TestSocketConn_PropagatesWriteErrors(t *testing.T) {
	w := &recordingWriter{err: errors.New("closed")}
	conn := NewSocketConn(w, 0)

	assert.Error(t, conn.Send(Message{Topic: "t"}))
	assert.Empty(t, w.deadlines)
}

func TestTopics(t *testing.T) {
	assert.Equal(t, "order:abc", OrderTopic("abc"))
	assert.Equal(t, "driver:9", DriverTopic("9"))
	assert.True(t, ValidTopic(AdminTopic))
	assert.False(t, ValidTopic(""))
}
