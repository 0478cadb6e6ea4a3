package app

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreconfig "github.com/Vladislavbro/tango-bot/core/config"
	tg "github.com/Vladislavbro/tango-bot/core/telegram"
	tgsender "github.com/Vladislavbro/tango-bot/core/telegram/sender"
	"github.com/Vladislavbro/tango-bot/internal/booking"
	"github.com/Vladislavbro/tango-bot/internal/health"
)

const sampleConfig = `
telegram:
  token: from-file
conversation:
  idle_timeout_seconds: 120
rate_limit:
  interval_ms: 500
  exclude_updates: [Callback]
database:
  host: db.local
  name: tango
health:
  listen: ":9090"
`

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleConfig), 0o600))
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:from-env")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "123:from-env", cfg.Telegram.Token)
	assert.Equal(t, coreconfig.RunModeLongpoll, cfg.Telegram.RunMode)
	assert.Equal(t, 2*time.Minute, cfg.Conversation.IdleTimeout())
	assert.Equal(t, []string{"callback"}, cfg.RateLimit.ExcludeUpdates)
	assert.Equal(t, "db.local", cfg.Database.Host)
	assert.True(t, cfg.Database.Enabled())
	assert.Equal(t, ":9090", cfg.Health.Listen)
	assert.Same(t, &cfg.Config, cfg.CoreConfig())
}

func TestLoadConfigEnvOnly(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, coreconfig.DefaultIdleTimeoutSeconds, cfg.Conversation.IdleTimeoutSeconds)
	assert.False(t, cfg.Database.Enabled())
}

func testConfig() *Config {
	cfg := &Config{}
	cfg.Telegram.Token = "123:abc"
	cfg.Conversation.IdleTimeoutSeconds = 60
	cfg.Health = health.Config{Listen: "127.0.0.1:0"}
	return cfg
}

func TestBuildWiresConversation(t *testing.T) {
	a, err := build(testConfig(), nil)
	require.NoError(t, err)
	defer a.sessions.Close()

	assert.Equal(t, time.Minute, a.sessions.IdleTimeout())
	assert.Nil(t, a.journal)
	assert.Len(t, a.registry.ListCallbacks(), len(booking.Tokens()))

	opts, err := a.TelegramRunOptions()
	require.NoError(t, err)
	assert.Len(t, opts.Routes, 5)
	names := make([]string, 0, len(opts.Middlewares))
	for _, mw := range opts.Middlewares {
		names = append(names, mw.Name)
	}
	assert.Equal(t, []string{"recover", "logger", "metrics"}, names)
	assert.Same(t, a.registry, opts.Registry)
}

func TestBuildRejectsBadRedisURL(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit.RedisURL = "ftp://nowhere"

	_, err := build(cfg, nil)
	assert.ErrorContains(t, err, "parse redis url")
}

func TestStartServesStatsAndStops(t *testing.T) {
	a, err := build(testConfig(), nil)
	require.NoError(t, err)

	out := tgsender.NewDispatcher(tgsender.Options{Workers: 1})
	defer out.Close()
	rt := tg.Runtime{Dispatcher: out, Registry: a.registry}
	require.NoError(t, a.start(context.Background(), rt))
	require.NotNil(t, a.ops)

	_, err = a.sessions.Dispatch(context.Background(), "1:1", booking.Event{Kind: booking.EventStart})
	require.NoError(t, err)

	resp, err := http.Get("http://" + a.ops.Addr() + "/stats")
	require.NoError(t, err)
	var stats health.Stats
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&stats))
	resp.Body.Close()
	assert.Equal(t, 1, stats.ActiveSessions)
	assert.Equal(t, 1, stats.PendingTimeouts)

	require.NoError(t, a.stop(context.Background(), rt))
	_, err = a.sessions.Dispatch(context.Background(), "1:1", booking.Event{Kind: booking.EventCancel})
	assert.ErrorIs(t, err, booking.ErrClosed)
}

func TestStartWithoutHealthListen(t *testing.T) {
	cfg := testConfig()
	cfg.Health.Listen = ""
	a, err := build(cfg, nil)
	require.NoError(t, err)

	require.NoError(t, a.start(context.Background(), tg.Runtime{}))
	assert.Nil(t, a.ops)
	require.NoError(t, a.stop(context.Background(), tg.Runtime{}))
}
