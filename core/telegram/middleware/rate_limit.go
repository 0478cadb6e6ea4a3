package middleware

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Vladislavbro/tango-bot/core/logger"
	tghelpers "github.com/Vladislavbro/tango-bot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// Limiter decides whether a user may be served again after interval.
type Limiter interface {
	Allow(ctx context.Context, userID int64, interval time.Duration) (bool, error)
}

// MemoryLimiter keeps the last accepted update per user in process memory.
type MemoryLimiter struct {
	mu       sync.Mutex
	lastSeen map[int64]time.Time
	now      func() time.Time
}

// NewMemoryLimiter constructs an empty MemoryLimiter.
func NewMemoryLimiter() *MemoryLimiter {
	return &MemoryLimiter{lastSeen: make(map[int64]time.Time), now: time.Now}
}

// Allow records the update when it is accepted.
func (l *MemoryLimiter) Allow(_ context.Context, userID int64, interval time.Duration) (bool, error) {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()
	if last, ok := l.lastSeen[userID]; ok && now.Sub(last) < interval {
		return false, nil
	}
	l.lastSeen[userID] = now
	return true, nil
}

// RateLimitOptions configures behaviour of the rate limit middleware.
type RateLimitOptions struct {
	Interval  time.Duration
	Exclude   map[string]struct{}
	OnLimited tele.HandlerFunc
	// Limiter defaults to a MemoryLimiter.
	Limiter Limiter
}

// RateLimitMiddleware returns a middleware that enforces a minimum interval
// between updates from the same user. Limiter errors let the update through.
func RateLimitMiddleware(opts RateLimitOptions) tele.MiddlewareFunc {
	limiter := opts.Limiter
	if limiter == nil {
		limiter = NewMemoryLimiter()
	}
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			user := c.Sender()
			if user == nil || opts.Interval <= 0 {
				return next(c)
			}

			// Determine update kind and apply configured exclusions
			if _, skip := opts.Exclude[updateKind(c.Update())]; skip {
				return next(c)
			}

			ctx := tghelpers.BuildContext(c)
			allowed, err := limiter.Allow(ctx, user.ID, opts.Interval)
			if err != nil {
				logger.Warn(ctx, "tg", "rate_limit.error",
					slog.String("err", err.Error()),
				)
				return next(c)
			}
			if !allowed {
				logger.Warn(ctx, "tg", "tg.rate_limit",
					slog.String("status", "rate_limited"),
					slog.Bool("rate_limited", true),
				)
				if opts.OnLimited != nil {
					_ = opts.OnLimited(c)
				}
				return nil
			}
			return next(c)
		}
	}
}

func updateKind(upd tele.Update) string {
	switch {
	case upd.Callback != nil:
		return "callback"
	case upd.Message != nil:
		return "message"
	}
	return "other"
}
