package auth

import (
	"context"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const loginFailureKeyPrefix = "login:failed:"

// LoginLimiter counts failed logins per email in Redis. It fails open:
// when Redis is unreachable logins are allowed and a warning is logged.
type LoginLimiter struct {
	client      *redis.Client
	maxAttempts int
	window      time.Duration
	logger      *zap.Logger
}

// NewLoginLimiter builds a limiter. A nil client disables limiting.
func NewLoginLimiter(client *redis.Client, maxAttempts int, window time.Duration, logger *zap.Logger) *LoginLimiter {
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	if window <= 0 {
		window = 15 * time.Minute
	}
	return &LoginLimiter{client: client, maxAttempts: maxAttempts, window: window, logger: logger}
}

func loginFailureKey(email string) string {
	return loginFailureKeyPrefix + strings.ToLower(strings.TrimSpace(email))
}

// Allowed reports whether another login attempt may be made for email.
func (l *LoginLimiter) Allowed(ctx context.Context, email string) bool {
	if l == nil || l.client == nil {
		return true
	}
	count, err := l.client.Get(ctx, loginFailureKey(email)).Int()
	if err != nil {
		if err != redis.Nil {
			l.logger.Warn("login limiter unavailable", zap.Error(err))
		}
		return true
	}
	return count < l.maxAttempts
}

// RecordFailure increments the failure counter and extends its window.
func (l *LoginLimiter) RecordFailure(ctx context.Context, email string) {
	if l == nil || l.client == nil {
		return
	}
	key := loginFailureKey(email)
	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		l.logger.Warn("login limiter record failed", zap.Error(err))
		return
	}
	if incr.Val() >= int64(l.maxAttempts) {
		l.logger.Warn("login attempts exhausted", zap.String("email", email), zap.Int64("failures", incr.Val()))
	}
}

// Reset clears the failure counter after a successful login.
func (l *LoginLimiter) Reset(ctx context.Context, email string) {
	if l == nil || l.client == nil {
		return
	}
	if err := l.client.Del(ctx, loginFailureKey(email)).Err(); err != nil {
		l.logger.Warn("login limiter reset failed", zap.Error(err))
	}
}
