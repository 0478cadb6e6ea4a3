// Package config loads the core bot settings from an optional YAML file
// overlaid with environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Update sources accepted by telegram.run_mode.
const (
	RunModeWebhook  = "webhook"
	RunModeLongpoll = "longpoll"
)

// Update kinds that rate_limit.exclude_updates may name.
const (
	UpdateCallback = "callback"
	UpdateMessage  = "message"
)

// DefaultIdleTimeoutSeconds ends a silent conversation after five minutes.
const DefaultIdleTimeoutSeconds = 300

type TelegramConfig struct {
	Token   string `yaml:"token" envconfig:"TELEGRAM_BOT_TOKEN"`
	RunMode string `yaml:"run_mode" envconfig:"TELEGRAM_RUN_MODE"`
	// LongPollTimeoutSeconds is how long getUpdates may hold; 0 uses the default.
	LongPollTimeoutSeconds int `yaml:"longpoll_timeout_seconds" envconfig:"TELEGRAM_LONGPOLL_TIMEOUT_SECONDS"`
}

// WebhookConfig is read only when run_mode is webhook.
type WebhookConfig struct {
	URL    string `yaml:"url" envconfig:"WEBHOOK_URL"`
	Listen string `yaml:"listen" envconfig:"WEBHOOK_LISTEN"`
	Port   int    `yaml:"port" envconfig:"WEBHOOK_PORT"`
}

type ConversationConfig struct {
	// IdleTimeoutSeconds ends a conversation after this much silence; 0 uses the default.
	IdleTimeoutSeconds int `yaml:"idle_timeout_seconds" envconfig:"CONVERSATION_IDLE_TIMEOUT_SECONDS"`
}

// IdleTimeout returns IdleTimeoutSeconds as a duration.
func (c ConversationConfig) IdleTimeout() time.Duration {
	return time.Duration(c.IdleTimeoutSeconds) * time.Second
}

type LoggingConfig struct {
	Level  string `yaml:"level" envconfig:"LOG_LEVEL"`
	Format string `yaml:"format" envconfig:"LOG_FORMAT"`
	// KeysOrder is a comma separated list of keys printed first.
	KeysOrder string `yaml:"keys_order"`
	// DebugSample is "n/m": keep n of every m sampled debug events.
	DebugSample string `yaml:"debug_sample" envconfig:"LOG_DEBUG_SAMPLE"`
	Dir         string `yaml:"dir" envconfig:"LOG_DIR"`
	BotFile     string `yaml:"bot_file" envconfig:"LOG_FILE"`
	// Profile is "prod" or "debug"/"dev"; the latter defaults Format to kv.
	Profile string `yaml:"profile" envconfig:"LOG_PROFILE"`
}

// RateLimitConfig throttles each user to one update per IntervalMS.
// ExcludeUpdates lists update kinds that are never throttled. RedisURL
// shares throttle state between replicas.
type RateLimitConfig struct {
	IntervalMS     int      `yaml:"interval_ms" envconfig:"RATE_LIMIT_INTERVAL_MS"`
	ExcludeUpdates []string `yaml:"exclude_updates" envconfig:"RATE_LIMIT_EXCLUDE_UPDATES"`
	RedisURL       string   `yaml:"redis_url" envconfig:"RATE_LIMIT_REDIS_URL"`
}

// SenderConfig sizes the outbound reply queue. Zero values use the defaults.
type SenderConfig struct {
	Workers    int `yaml:"workers" envconfig:"SENDER_WORKERS"`
	QueueSize  int `yaml:"queue_size" envconfig:"SENDER_QUEUE_SIZE"`
	MaxRetries int `yaml:"max_retries" envconfig:"SENDER_MAX_RETRIES"`
}

// Config is the part of the configuration every bot shares.
type Config struct {
	Telegram     TelegramConfig     `yaml:"telegram"`
	Webhook      WebhookConfig      `yaml:"webhook"`
	Conversation ConversationConfig `yaml:"conversation"`
	Logging      LoggingConfig      `yaml:"logging"`
	RateLimit    RateLimitConfig    `yaml:"rate_limit"`
	Sender       SenderConfig       `yaml:"sender"`
}

// Load decodes path and the environment into a Config and validates it.
func Load(path string) (*Config, error) {
	cfg := new(Config)
	if err := Decode(path, cfg); err != nil {
		return nil, err
	}
	if err := Normalize(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Decode fills target from the YAML file at path, then lets environment
// variables override it. A missing file is fine for env-only deployments.
func Decode(path string, target any) error {
	if path = strings.TrimSpace(path); path != "" {
		if err := decodeFile(path, target); err != nil {
			return err
		}
	}
	if err := envconfig.Process("", target); err != nil {
		return fmt.Errorf("failed to process env: %w", err)
	}
	return nil
}

func decodeFile(path string, target any) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, target); err != nil {
		return fmt.Errorf("failed to parse YAML config: %w", err)
	}
	return nil
}

// Normalize validates cfg in place and fills defaults.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return errors.New("nil config")
	}
	if strings.TrimSpace(cfg.Telegram.Token) == "" {
		return errors.New("telegram token is required")
	}
	for _, step := range []func(*Config) error{
		normalizeRunMode,
		normalizeConversation,
		normalizeRateLimit,
		validateSender,
	} {
		if err := step(cfg); err != nil {
			return err
		}
	}
	return nil
}

func normalizeRunMode(cfg *Config) error {
	mode := strings.ToLower(strings.TrimSpace(cfg.Telegram.RunMode))
	switch mode {
	case "", "polling", RunModeLongpoll:
		if cfg.Telegram.LongPollTimeoutSeconds < 0 {
			return errors.New("telegram.longpoll_timeout_seconds must be >= 0")
		}
		cfg.Telegram.RunMode = RunModeLongpoll
	case RunModeWebhook:
		wh := cfg.Webhook
		switch {
		case strings.TrimSpace(wh.URL) == "":
			return errors.New("webhook.url is required in webhook mode")
		case strings.TrimSpace(wh.Listen) == "":
			return errors.New("webhook.listen is required in webhook mode")
		case wh.Port <= 0:
			return errors.New("webhook.port must be > 0 in webhook mode")
		}
		cfg.Telegram.RunMode = RunModeWebhook
	default:
		return fmt.Errorf("invalid telegram.run_mode %q; allowed: webhook, longpoll", cfg.Telegram.RunMode)
	}
	return nil
}

func normalizeConversation(cfg *Config) error {
	switch secs := cfg.Conversation.IdleTimeoutSeconds; {
	case secs < 0:
		return errors.New("conversation.idle_timeout_seconds must be >= 0")
	case secs == 0:
		cfg.Conversation.IdleTimeoutSeconds = DefaultIdleTimeoutSeconds
	}
	return nil
}

func normalizeRateLimit(cfg *Config) error {
	rl := &cfg.RateLimit
	if rl.IntervalMS < 0 {
		return errors.New("rate_limit.interval_ms must be >= 0")
	}
	kinds := make([]string, 0, len(rl.ExcludeUpdates))
	for _, raw := range rl.ExcludeUpdates {
		kind := strings.ToLower(strings.TrimSpace(raw))
		switch kind {
		case "":
			continue
		case UpdateCallback, UpdateMessage:
			if !slices.Contains(kinds, kind) {
				kinds = append(kinds, kind)
			}
		default:
			return fmt.Errorf("invalid rate_limit.exclude_updates value %q; allowed: callback, message", raw)
		}
	}
	rl.ExcludeUpdates = kinds
	rl.RedisURL = strings.TrimSpace(rl.RedisURL)
	return nil
}

func validateSender(cfg *Config) error {
	s := cfg.Sender
	if s.Workers < 0 || s.QueueSize < 0 || s.MaxRetries < 0 {
		return errors.New("sender.workers, sender.queue_size and sender.max_retries must be >= 0")
	}
	return nil
}
