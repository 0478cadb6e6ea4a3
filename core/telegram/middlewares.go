package telegram

import (
	"time"

	coreconfig "github.com/Vladislavbro/tango-bot/core/config"
	"github.com/Vladislavbro/tango-bot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// DefaultMiddlewares returns the global chain, outermost first: panic
// recovery, per-user rate limiting when rate_limit.interval_ms is set, update
// logging and reply counters. onLimited answers throttled updates and a nil
// limiter keeps throttle state in memory.
func DefaultMiddlewares(cfg *coreconfig.Config, onLimited tele.HandlerFunc, limiter middleware.Limiter) []Middleware {
	chain := []Middleware{{Name: "recover", Use: middleware.RecoverMiddleware}}
	if rl := rateLimit(cfg, onLimited, limiter); rl != nil {
		chain = append(chain, Middleware{Name: "rate_limit", Use: rl})
	}
	return append(chain,
		Middleware{Name: "logger", Use: middleware.LoggerMiddleware},
		Middleware{Name: "metrics", Use: middleware.ReplyMetricsMiddleware},
	)
}

func rateLimit(cfg *coreconfig.Config, onLimited tele.HandlerFunc, limiter middleware.Limiter) tele.MiddlewareFunc {
	if cfg == nil || cfg.RateLimit.IntervalMS <= 0 {
		return nil
	}
	exclude := make(map[string]struct{}, len(cfg.RateLimit.ExcludeUpdates))
	for _, kind := range cfg.RateLimit.ExcludeUpdates {
		exclude[kind] = struct{}{}
	}
	return middleware.RateLimitMiddleware(middleware.RateLimitOptions{
		Interval:  time.Duration(cfg.RateLimit.IntervalMS) * time.Millisecond,
		Exclude:   exclude,
		OnLimited: onLimited,
		Limiter:   limiter,
	})
}
