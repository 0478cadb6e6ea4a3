package middleware

import (
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/Vladislavbro/tango-bot/core/logger"
	tghelpers "github.com/Vladislavbro/tango-bot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// RecoverMiddleware logs a handler panic with its stack and drops the
// update, so one bad update cannot stop the poller.
func RecoverMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) (err error) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			logger.Error(tghelpers.BuildContext(c), "tg", "handler.panic",
				slog.String("panic", logger.SanitizeLimit(fmt.Sprint(r), 256)),
				slog.String("kind", updateKind(c.Update())),
				slog.String("stack", string(debug.Stack())),
			)
			err = nil
		}()
		return next(c)
	}
}
