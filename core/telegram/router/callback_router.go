package router

import (
	"log/slog"

	"github.com/Vladislavbro/tango-bot/core/logger"
	tg "github.com/Vladislavbro/tango-bot/core/telegram"
	"github.com/Vladislavbro/tango-bot/core/telegram/callbacks"
	tghelpers "github.com/Vladislavbro/tango-bot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// CallbackOptions sets the handler used when neither a registered callback
// nor the registry's own not-found handler applies.
type CallbackOptions struct {
	NotFound tele.HandlerFunc
}

// CallbackRoute answers every callback query and dispatches it by key
// through the registry.
func CallbackRoute(reg *tg.Registry, opts CallbackOptions) tg.Route {
	handler := func(c tele.Context) error {
		cb := c.Callback()
		if cb == nil {
			return nil
		}
		if err := tghelpers.Acknowledge(c); err != nil {
			logger.Debug(tghelpers.BuildContext(c), "tg", "callback.ack_failed",
				slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
			)
		}

		key, _ := callbacks.ParseCallbackData(cb)
		name := "callback." + normalizeHandlerName(key)
		keyAttr := slog.String("cb_key", logger.SanitizeLimit(key, 64))

		if h, ok := reg.GetCallback(key); ok {
			return runHandler(c, name, h, keyAttr)
		}
		fallback := reg.CallbackNotFound()
		if fallback == nil {
			fallback = opts.NotFound
		}
		if fallback == nil {
			logSkipped(c, name)
			return nil
		}
		return runHandler(c, name, fallback, keyAttr, slog.String("reason", "not_found"))
	}
	return tg.Route{Endpoint: tele.OnCallback, Handler: handler}
}
