package logger

import (
	"context"
	"log/slog"
)

// Meta is the correlation data a request carries through its context.
type Meta struct {
	RID      string
	UpdateID int
	UserID   int64
	ChatID   int64
	Handler  string
	Session  string
}

type (
	metaKey   struct{}
	loggerKey struct{}
)

func orBackground(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}

// MetaFrom returns the correlation data stored in ctx.
func MetaFrom(ctx context.Context) Meta {
	if ctx == nil {
		return Meta{}
	}
	m, _ := ctx.Value(metaKey{}).(Meta)
	return m
}

func withMeta(ctx context.Context, update func(*Meta)) context.Context {
	ctx = orBackground(ctx)
	m := MetaFrom(ctx)
	update(&m)
	return context.WithValue(ctx, metaKey{}, m)
}

// WithLogger stores log in ctx. A nil log leaves ctx unchanged.
func WithLogger(ctx context.Context, log *slog.Logger) context.Context {
	ctx = orBackground(ctx)
	if log == nil {
		return ctx
	}
	return context.WithValue(ctx, loggerKey{}, log)
}

// FromContext returns the logger stored in ctx, or L.
func FromContext(ctx context.Context) *slog.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
			return l
		}
	}
	return L
}

// WithRID sets the request correlation id.
func WithRID(ctx context.Context, rid string) context.Context {
	return withMeta(ctx, func(m *Meta) { m.RID = rid })
}

// WithUpdateMeta sets the Telegram update, user and chat ids.
func WithUpdateMeta(ctx context.Context, updateID int, userID, chatID int64) context.Context {
	return withMeta(ctx, func(m *Meta) {
		m.UpdateID = updateID
		m.UserID = userID
		m.ChatID = chatID
	})
}

// WithHandler sets the handler name. Empty names are ignored.
func WithHandler(ctx context.Context, handler string) context.Context {
	if handler == "" {
		return orBackground(ctx)
	}
	return withMeta(ctx, func(m *Meta) { m.Handler = handler })
}

// WithSession sets the conversation session key. Empty keys are ignored.
func WithSession(ctx context.Context, sessionID string) context.Context {
	if sessionID == "" {
		return orBackground(ctx)
	}
	return withMeta(ctx, func(m *Meta) { m.Session = sessionID })
}

// RIDFrom returns the request correlation id.
func RIDFrom(ctx context.Context) string { return MetaFrom(ctx).RID }

// HandlerFrom returns the handler name.
func HandlerFrom(ctx context.Context) string { return MetaFrom(ctx).Handler }

// SessionFrom returns the conversation session key.
func SessionFrom(ctx context.Context) string { return MetaFrom(ctx).Session }

// UserIDFrom returns the Telegram user id.
func UserIDFrom(ctx context.Context) int64 { return MetaFrom(ctx).UserID }

// ChatIDFrom returns the Telegram chat id.
func ChatIDFrom(ctx context.Context) int64 { return MetaFrom(ctx).ChatID }

// UpdateIDFrom returns the Telegram update id.
func UpdateIDFrom(ctx context.Context) int { return MetaFrom(ctx).UpdateID }
