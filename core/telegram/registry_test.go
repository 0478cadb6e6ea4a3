package telegram

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	"github.com/Vladislavbro/tango-bot/core/telegram/commands"
)

func noop(tele.Context) error { return nil }

func TestRegistryCommands(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.RegisterCommand("/start", commands.Command{Handler: noop, Description: "Book a trial lesson"}))
	require.NoError(t, reg.RegisterCommand("/cancel", commands.Command{Handler: noop, Description: "Cancel the booking", Aliases: []string{"stop"}}))
	require.NoError(t, reg.RegisterCommand("/debug", commands.Command{Handler: noop, Description: "internal", Hidden: true}))

	assert.ErrorIs(t, reg.RegisterCommand("noslash", commands.Command{Handler: noop, Description: "x"}), ErrInvalidRoute)
	assert.ErrorIs(t, reg.RegisterCommand("/", commands.Command{Handler: noop, Description: "x"}), ErrInvalidRoute)
	assert.ErrorIs(t, reg.RegisterCommand("/help", commands.Command{Description: "x"}), ErrInvalidRoute)
	assert.ErrorIs(t, reg.RegisterCommand("/start", commands.Command{Handler: noop, Description: "dup"}), ErrDuplicateRoute)

	assert.Len(t, reg.Commands(), 3)
	assert.Equal(t, []tele.Command{
		{Text: "/cancel", Description: "Cancel the booking"},
		{Text: "/start", Description: "Book a trial lesson"},
	}, reg.ListCommands(true))
	assert.Len(t, reg.ListCommands(false), 3)

	key, _, ok := reg.LookupCommand("/stop")
	require.True(t, ok)
	assert.Equal(t, "/cancel", key)
	key, _, ok = reg.LookupCommand("start")
	require.True(t, ok)
	assert.Equal(t, "/start", key)
	_, _, ok = reg.LookupCommand("/unknown")
	assert.False(t, ok)
}

func TestRegistryCommandsReturnsCopy(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.RegisterCommand("/start", commands.Command{Handler: noop, Description: "Book"}))

	snapshot := reg.Commands()
	delete(snapshot, "/start")
	assert.Len(t, reg.Commands(), 1)
}

func TestRegistryCallbacks(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.RegisterCallback("slot_friday", noop))
	require.NoError(t, reg.RegisterCallback("details", noop))
	assert.ErrorIs(t, reg.RegisterCallback("details", noop), ErrDuplicateRoute)
	assert.ErrorIs(t, reg.RegisterCallback("", noop), ErrInvalidRoute)
	assert.ErrorIs(t, reg.RegisterCallback("x", nil), ErrInvalidRoute)

	_, ok := reg.GetCallback("slot_friday")
	assert.True(t, ok)
	assert.Equal(t, []string{"details", "slot_friday"}, reg.ListCallbacks())
}

func TestRegistryFallbacks(t *testing.T) {
	reg := NewRegistry()
	require.NotNil(t, reg.CallbackNotFound())
	assert.Nil(t, reg.TextFallback())

	called := false
	reg.SetCallbackNotFound(func(tele.Context) error { called = true; return nil })
	reg.SetCallbackNotFound(nil)
	require.NoError(t, reg.CallbackNotFound()(nil))
	assert.True(t, called)

	reg.SetTextFallback(noop)
	assert.NotNil(t, reg.TextFallback())
}
