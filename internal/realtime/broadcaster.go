package realtime

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/oishine/backoffice/internal/observability"
)

const defaultQueueSize = 64

// Message is delivered to every connection subscribed to Topic.
type Message struct {
	Topic     string    `json:"topic"`
	Payload   any       `json:"payload"`
	Timestamp time.Time `json:"timestamp"`
}

// Conn is the transport a subscriber is reached through. Send is only
// ever called from one goroutine per connection.
type Conn interface {
	ID() string
	Send(msg Message) error
}

// Broadcaster fans published messages out to the connections subscribed
// to a topic. Nothing is buffered for topics without subscribers and
// nothing is replayed to late subscribers.
type Broadcaster struct {
	mu     sync.Mutex
	topics map[string]map[string]*subscriber
	subs   map[string]*subscriber
	closed bool

	queueSize int
	logger    *zap.Logger
	metrics   *observability.Metrics
	now       func() time.Time
}

// Options configures a Broadcaster.
type Options struct {
	// QueueSize bounds undelivered messages per connection. Messages
	// beyond it are dropped for that connection only.
	QueueSize int
	Logger    *zap.Logger
	Metrics   *observability.Metrics
}

// NewBroadcaster constructs an empty broadcaster.
func NewBroadcaster(opts Options) *Broadcaster {
	if opts.QueueSize <= 0 {
		opts.QueueSize = defaultQueueSize
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Broadcaster{
		topics:    make(map[string]map[string]*subscriber),
		subs:      make(map[string]*subscriber),
		queueSize: opts.QueueSize,
		logger:    opts.Logger,
		metrics:   opts.Metrics,
		now:       time.Now,
	}
}

type subscriber struct {
	conn  Conn
	queue chan Message
	done  chan struct{}
	once  sync.Once

	mu     sync.RWMutex
	topics map[string]struct{}
}

func (s *subscriber) has(topic string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.topics[topic]
	return ok
}

func (s *subscriber) stop() {
	s.once.Do(func() { close(s.done) })
}

func (s *subscriber) enqueue(msg Message) bool {
	select {
	case <-s.done:
		return false
	default:
	}
	select {
	case s.queue <- msg:
		return true
	default:
		return false
	}
}

// Subscribe adds topic to conn's memberships. Subscribing twice is a no-op.
func (b *Broadcaster) Subscribe(conn Conn, topic string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}

	sub, ok := b.subs[conn.ID()]
	if !ok {
		sub = &subscriber{
			conn:   conn,
			queue:  make(chan Message, b.queueSize),
			done:   make(chan struct{}),
			topics: make(map[string]struct{}),
		}
		b.subs[conn.ID()] = sub
		b.metrics.ConnectionOpened()
		go b.deliver(sub)
	}

	members, ok := b.topics[topic]
	if !ok {
		members = make(map[string]*subscriber)
		b.topics[topic] = members
	}
	members[conn.ID()] = sub

	sub.mu.Lock()
	sub.topics[topic] = struct{}{}
	sub.mu.Unlock()
}

// Unsubscribe removes topic from conn's memberships. Unknown connections
// and topics are ignored.
func (b *Broadcaster) Unsubscribe(conn Conn, topic string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub, ok := b.subs[conn.ID()]
	if !ok {
		return
	}
	b.removeMembership(sub, topic)
}

// Disconnect drops every membership of conn and stops its delivery
// goroutine. It is safe to call more than once.
func (b *Broadcaster) Disconnect(conn Conn) {
	b.mu.Lock()
	sub, ok := b.subs[conn.ID()]
	if ok {
		for _, topic := range sub.topicList() {
			b.removeMembership(sub, topic)
		}
		delete(b.subs, conn.ID())
	}
	b.mu.Unlock()

	if ok {
		sub.stop()
		b.metrics.ConnectionClosed()
	}
}

// removeMembership requires b.mu.
func (b *Broadcaster) removeMembership(sub *subscriber, topic string) {
	if members, ok := b.topics[topic]; ok {
		delete(members, sub.conn.ID())
		if len(members) == 0 {
			delete(b.topics, topic)
		}
	}
	sub.mu.Lock()
	delete(sub.topics, topic)
	sub.mu.Unlock()
}

func (s *subscriber) topicList() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.topics))
	for topic := range s.topics {
		out = append(out, topic)
	}
	return out
}

// Publish queues payload for every current subscriber of topic and
// returns without waiting for delivery. Messages from one caller reach
// each subscriber in publish order.
func (b *Broadcaster) Publish(topic string, payload any) {
	msg := Message{Topic: topic, Payload: payload, Timestamp: b.now().UTC()}

	b.mu.Lock()
	members := b.topics[topic]
	targets := make([]*subscriber, 0, len(members))
	for _, sub := range members {
		targets = append(targets, sub)
	}
	b.mu.Unlock()

	b.metrics.RecordPublish()
	for _, sub := range targets {
		if !sub.enqueue(msg) {
			b.metrics.RecordDropped()
			b.logger.Warn("realtime delivery dropped",
				zap.String("topic", topic),
				zap.String("conn_id", sub.conn.ID()))
		}
	}
}

// Subscribers reports how many connections currently hold topic.
func (b *Broadcaster) Subscribers(topic string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.topics[topic])
}

// Close disconnects every connection. Later subscriptions are ignored.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	b.closed = true
	subs := make([]*subscriber, 0, len(b.subs))
	for id, sub := range b.subs {
		subs = append(subs, sub)
		delete(b.subs, id)
	}
	b.topics = make(map[string]map[string]*subscriber)
	b.mu.Unlock()

	for _, sub := range subs {
		sub.stop()
		b.metrics.ConnectionClosed()
	}
}

func (b *Broadcaster) deliver(sub *subscriber) {
	for {
		select {
		case <-sub.done:
			return
		case msg := <-sub.queue:
			if !sub.has(msg.Topic) {
				continue
			}
			if err := sub.conn.Send(msg); err != nil {
				b.metrics.RecordDropped()
				b.logger.Warn("realtime send failed",
					zap.String("topic", msg.Topic),
					zap.String("conn_id", sub.conn.ID()),
					zap.Error(err))
				continue
			}
			b.metrics.RecordDelivery()
		}
	}
}
