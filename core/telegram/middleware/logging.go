package middleware

import (
	"log/slog"
	"unicode/utf8"

	"github.com/Vladislavbro/tango-bot/core/logger"
	"github.com/Vladislavbro/tango-bot/core/telegram/callbacks"
	tghelpers "github.com/Vladislavbro/tango-bot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// LoggerMiddleware attaches the logging context to the update and, when
// debug sampling admits it, logs one update.received line.
func LoggerMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		ctx := tghelpers.BuildContext(c)
		if logger.L.Enabled(ctx, slog.LevelDebug) && logger.ShouldSampleDebug() {
			logger.Debug(ctx, "tg", "update.received", receiptAttrs(c)...)
		}
		return next(c)
	}
}

// receiptAttrs describes the update without its free text, which may hold
// names and phone numbers.
func receiptAttrs(c tele.Context) []slog.Attr {
	attrs := []slog.Attr{slog.String("kind", updateKind(c.Update()))}
	if chat := c.Chat(); chat != nil {
		attrs = append(attrs, slog.String("chat_type", string(chat.Type)))
	}
	if user := c.Sender(); user != nil {
		if user.Username != "" {
			attrs = append(attrs, slog.String("username", logger.SanitizeLimit(user.Username, 64)))
		}
		if user.LanguageCode != "" {
			attrs = append(attrs, slog.String("lang", user.LanguageCode))
		}
	}
	if cb := c.Callback(); cb != nil {
		key, payload := callbacks.ParseCallbackData(cb)
		if key != "" {
			attrs = append(attrs, slog.String("cb_key", logger.SanitizeLimit(key, 64)))
		}
		if payload != "" {
			attrs = append(attrs, slog.String("payload", logger.SanitizeLimit(payload, 64)))
		}
		return attrs
	}
	if text := c.Text(); text != "" {
		attrs = append(attrs, slog.Int("text_len", utf8.RuneCountInString(text)))
	}
	return attrs
}
