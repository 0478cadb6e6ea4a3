package router

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	tg "github.com/Vladislavbro/tango-bot/core/telegram"
	"github.com/Vladislavbro/tango-bot/core/telegram/commands"
)

type SendFailedError struct{ Reason string }

func (e *SendFailedError) Error() string { return "send failed: " + e.Reason }

type codedErr struct{}

func (codedErr) Error() string { return "coded" }
func (codedErr) Code() string  { return "rate limited" }

func TestCommandWord(t *testing.T) {
	assert.Equal(t, "/start", commandWord("/start"))
	assert.Equal(t, "/start", commandWord("/start@tango_bot"))
	assert.Equal(t, "/help", commandWord("/help me please"))
	assert.Equal(t, "", commandWord("hello /start"))
	assert.Equal(t, "", commandWord(""))
}

func TestNormalizeHandlerName(t *testing.T) {
	assert.Equal(t, "start", normalizeHandlerName("/start"))
	assert.Equal(t, "slot_friday", normalizeHandlerName(" Slot_Friday "))
	assert.Equal(t, "unknown", normalizeHandlerName(""))
}

func TestDeriveErrorCode(t *testing.T) {
	assert.Empty(t, deriveErrorCode(nil))
	assert.Equal(t, "RATE_LIMITED", deriveErrorCode(codedErr{}))
	assert.Equal(t, "SENDFAILEDERROR", deriveErrorCode(&SendFailedError{Reason: "x"}))
	assert.Equal(t, "ERRORSTRING", deriveErrorCode(errors.New("plain")))
}

func TestDeriveErrorCodeUsesRoot(t *testing.T) {
	err := fmt.Errorf("dispatch text: %w", &SendFailedError{Reason: "x"})
	assert.Equal(t, "SENDFAILEDERROR", deriveErrorCode(err))
	assert.Equal(t, "RATE_LIMITED", deriveErrorCode(fmt.Errorf("wrap: %w", codedErr{})))
}

func offlineContext(t *testing.T, text string) tele.Context {
	t.Helper()
	b, err := tele.NewBot(tele.Settings{Offline: true, Synchronous: true})
	require.NoError(t, err)
	return b.NewContext(tele.Update{ID: 1, Message: &tele.Message{
		Text:   text,
		Chat:   &tele.Chat{ID: 5},
		Sender: &tele.User{ID: 7},
	}})
}

func TestTextRoutesDispatch(t *testing.T) {
	var got []string
	record := func(name string) tele.HandlerFunc {
		return func(tele.Context) error { got = append(got, name); return nil }
	}

	reg := tg.NewRegistry()
	require.NoError(t, reg.RegisterCommand("/cancel", commands.Command{
		Handler: record("cancel"), Description: "Cancel", Aliases: []string{"stop"},
	}))
	routes := TextRoutes(reg, TextOptions{UnknownText: record("unknown")})
	require.Len(t, routes, 2)
	text := routes[0].Handler

	require.NoError(t, text(offlineContext(t, "/stop@tango_bot")))
	require.NoError(t, text(offlineContext(t, "hello")))
	reg.SetTextFallback(record("fallback"))
	require.NoError(t, text(offlineContext(t, "/unknown")))

	assert.Equal(t, []string{"cancel", "unknown", "fallback"}, got)
}

func TestTextRoutesPropagatesErrors(t *testing.T) {
	boom := errors.New("boom")
	routes := TextRoutes(nil, TextOptions{UnknownText: func(tele.Context) error { return boom }})
	assert.ErrorIs(t, routes[0].Handler(offlineContext(t, "hi")), boom)
	assert.NoError(t, routes[1].Handler(offlineContext(t, "")))
}

func TestCommandRoutesIncludeAliases(t *testing.T) {
	reg := tg.NewRegistry()
	require.NoError(t, reg.RegisterCommand("/start", commands.Command{
		Handler: func(tele.Context) error { return nil }, Description: "Start", Aliases: []string{"begin", "/go", ""},
	}))
	routes := CommandRoutes(reg)
	endpoints := make([]string, 0, len(routes))
	for _, r := range routes {
		endpoints = append(endpoints, r.Endpoint.(string))
	}
	assert.ElementsMatch(t, []string{"/start", "/begin", "/go"}, endpoints)
	assert.Nil(t, CommandRoutes(nil))
}
