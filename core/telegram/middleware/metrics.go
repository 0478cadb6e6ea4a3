package middleware

import (
	tghelpers "github.com/Vladislavbro/tango-bot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// ReplyMetricsMiddleware resets per-update reply counters so handler summaries
// report only the replies queued for the current update.
func ReplyMetricsMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		tghelpers.ResetCounters(c)
		return next(c)
	}
}
