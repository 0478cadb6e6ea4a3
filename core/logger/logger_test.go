package logger

import (
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	coreconfig "github.com/Vladislavbro/tango-bot/core/config"
)

func TestResolveSettingsDefaults(t *testing.T) {
	s := resolveSettings(nil)
	assert.Equal(t, formatJSON, s.format)
	assert.Equal(t, slog.LevelInfo, s.level)
	assert.Equal(t, keyOrder, s.order)
	assert.Equal(t, defaultSampleNum, s.sampleNum)
	assert.Equal(t, defaultSampleDen, s.sampleDen)
	assert.Empty(t, s.filePath)
}

func TestResolveSettingsFromConfig(t *testing.T) {
	cfg := &coreconfig.Config{}
	cfg.Logging = coreconfig.LoggingConfig{
		Level:       "debug",
		Profile:     "Dev",
		KeysOrder:   "event, ts ,,level",
		DebugSample: "10%",
		Dir:         "logs",
		BotFile:     "bot.log",
	}

	s := resolveSettings(cfg)
	assert.Equal(t, formatKV, s.format, "dev profile prefers key=value")
	assert.Equal(t, "dev", s.profile)
	assert.Equal(t, slog.LevelDebug, s.level)
	assert.Equal(t, []string{"event", "ts", "level"}, s.order)
	assert.Equal(t, 10, s.sampleNum)
	assert.Equal(t, 100, s.sampleDen)
	assert.Equal(t, filepath.Join("logs", "bot.log"), s.filePath)

	cfg.Logging.Format = "json"
	assert.Equal(t, formatJSON, resolveSettings(cfg).format)
}

func TestParseKeyOrder(t *testing.T) {
	assert.Nil(t, parseKeyOrder(""))
	assert.Nil(t, parseKeyOrder("default"))
	assert.Nil(t, parseKeyOrder(" , "))
	assert.Equal(t, []string{"a", "b"}, parseKeyOrder("a,b"))
}

func TestComponentAndEventHelpers(t *testing.T) {
	assert.Same(t, L, Component(" "))
	assert.NotNil(t, Component("tg"))
	Info(Background(), "tg", "noop")
	LogEvent(Background(), nil, slog.LevelInfo, "noop")
}
