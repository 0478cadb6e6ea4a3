package telegram

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	coreconfig "github.com/Vladislavbro/tango-bot/core/config"
)

func TestNewPollerLongPollDefaults(t *testing.T) {
	cfg := &coreconfig.Config{Telegram: coreconfig.TelegramConfig{RunMode: coreconfig.RunModeLongpoll}}

	p, ok := newPoller(cfg).(*tele.LongPoller)
	require.True(t, ok)
	assert.Equal(t, defaultLongPoll, p.Timeout)
	assert.Equal(t, []string{"message", "callback_query"}, p.AllowedUpdates)

	cfg.Telegram.LongPollTimeoutSeconds = 25
	p = newPoller(cfg).(*tele.LongPoller)
	assert.Equal(t, 25*time.Second, p.Timeout)
}

func TestNewPollerWebhook(t *testing.T) {
	cfg := &coreconfig.Config{
		Telegram: coreconfig.TelegramConfig{RunMode: "WEBHOOK"},
		Webhook:  coreconfig.WebhookConfig{URL: "https://bot.example.org/hook", Listen: "0.0.0.0", Port: 8443},
	}

	w, ok := newPoller(cfg).(*tele.Webhook)
	require.True(t, ok)
	assert.Equal(t, "0.0.0.0:8443", w.Listen)
	assert.Equal(t, "https://bot.example.org/hook", w.Endpoint.PublicURL)
}
