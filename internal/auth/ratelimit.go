package auth

import (
	"context"
	"strings"
	"time"

	"github.com/infinity-cafe/cafe-backend/pkg/config"
	pkgerrors "github.com/infinity-cafe/cafe-backend/pkg/errors"
	"github.com/infinity-cafe/cafe-backend/pkg/logger"
)

// counterStore is the slice of the redis client the limiter needs.
type counterStore interface {
	RateLimitKey(scope, id string) string
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
	Del(ctx context.Context, keys ...string) error
}

// LoginLimiter throttles login attempts per username and per source IP
// within a sliding window backed by redis counters.
type LoginLimiter struct {
	store counterStore
	cfg   config.AuthRateLimitConfig
	logg  *logger.Logger
}

// NewLoginLimiter constructs the limiter. A nil store disables limiting,
// which keeps single-node dev setups working without redis.
func NewLoginLimiter(store counterStore, cfg config.AuthRateLimitConfig, logg *logger.Logger) *LoginLimiter {
	return &LoginLimiter{store: store, cfg: cfg, logg: logg}
}

// Allow records one attempt and rejects it once either the username or
// the IP counter exceeds its window limit. A redis outage fails open:
// blocking every login because the counter store is down hurts more than
// briefly losing the throttle.
func (l *LoginLimiter) Allow(ctx context.Context, username, ip string) error {
	if l == nil || l.store == nil {
		return nil
	}

	limited := pkgerrors.New(pkgerrors.CodeRateLimit, "too many login attempts")

	if username != "" && l.cfg.LoginUsernameLimit > 0 {
		key := l.store.RateLimitKey("login:username", strings.ToLower(username))
		count, err := l.store.IncrWithTTL(ctx, key, l.cfg.LoginWindow)
		if err != nil {
			l.warn(ctx, err)
			return nil
		}
		if count > int64(l.cfg.LoginUsernameLimit) {
			return limited
		}
	}

	if ip != "" && l.cfg.LoginIPLimit > 0 {
		key := l.store.RateLimitKey("login:ip", ip)
		count, err := l.store.IncrWithTTL(ctx, key, l.cfg.LoginWindow)
		if err != nil {
			l.warn(ctx, err)
			return nil
		}
		if count > int64(l.cfg.LoginIPLimit) {
			return limited
		}
	}

	return nil
}

// Reset clears the username counter after a successful login so one slow
// typist does not stay locked out for the rest of the window.
func (l *LoginLimiter) Reset(ctx context.Context, username string) {
	if l == nil || l.store == nil || username == "" {
		return
	}
	key := l.store.RateLimitKey("login:username", strings.ToLower(username))
	if err := l.store.Del(ctx, key); err != nil {
		l.warn(ctx, err)
	}
}

func (l *LoginLimiter) warn(ctx context.Context, err error) {
	if l.logg != nil {
		l.logg.Warn(l.logg.WithField(ctx, "error", err.Error()), "login rate limiter unavailable")
	}
}
