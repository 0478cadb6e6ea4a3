package helpers

import (
	"context"

	"github.com/Vladislavbro/tango-bot/core/logger"
	"github.com/Vladislavbro/tango-bot/core/telegram/state"

	tele "gopkg.in/telebot.v4"
)

// ctxKey is the tele.Context slot holding the update's logging context.
const ctxKey = "logger_ctx"

// ContextFrom returns the logging context cached on the update.
func ContextFrom(c tele.Context) (context.Context, bool) {
	if c == nil {
		return nil, false
	}
	ctx, ok := c.Get(ctxKey).(context.Context)
	return ctx, ok
}

// BuildContext returns the logging context of the update, creating and
// caching it on first use. The context carries the request id, update
// metadata and, when a sender is known, the conversation session key.
func BuildContext(c tele.Context) context.Context {
	if cached, ok := ContextFrom(c); ok {
		return cached
	}

	upd := c.Update()
	chatID, userID := participants(c)

	ctx := logger.WithRID(context.Background(), logger.BuildRID(upd.ID, chatID, userID))
	ctx = logger.WithUpdateMeta(ctx, upd.ID, userID, chatID)
	if userID != 0 {
		ctx = logger.WithSession(ctx, string(state.KeyFor(chatID, userID)))
	}
	ctx = logger.WithLogger(ctx, logger.Component("tg"))
	c.Set(ctxKey, ctx)
	return ctx
}

// participants returns the chat and sender ids. Private chats without chat
// metadata fall back to the sender id.
func participants(c tele.Context) (chatID, userID int64) {
	if user := c.Sender(); user != nil {
		userID = user.ID
		chatID = user.ID
	}
	if chat := c.Chat(); chat != nil {
		chatID = chat.ID
	}
	return chatID, userID
}

// WithHandler tags the update's context with the handler that serves it.
func WithHandler(c tele.Context, handler string) context.Context {
	ctx := BuildContext(c)
	if handler != "" {
		ctx = logger.WithHandler(ctx, handler)
		c.Set(ctxKey, ctx)
	}
	return ctx
}
