// Package logger provides the process wide structured logger: one flat line
// per event, JSON or key=value, written through an asynchronous fan-out writer.
package logger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/Vladislavbro/tango-bot/core/buildinfo"
	coreconfig "github.com/Vladislavbro/tango-bot/core/config"
)

const (
	defaultSampleNum = 1
	defaultSampleDen = 50
	writerBufferSize = 64 * 1024
)

var (
	initOnce sync.Once

	outMu   sync.Mutex
	output  *asyncWriter
	closers []io.Closer
	stopped bool

	levelVar      slog.LevelVar
	debugSampler  = newRatioSampler(defaultSampleNum, defaultSampleDen)
	traceOverride atomic.Bool

	// L is the root logger. It discards everything until InitLogger runs.
	L = slog.New(slog.DiscardHandler)
)

// settings is the resolved logging configuration.
type settings struct {
	format    logFormat
	order     []string
	level     slog.Level
	sampleNum int
	sampleDen int
	profile   string
	filePath  string
}

func resolveSettings(cfg *coreconfig.Config) settings {
	s := settings{
		format:    formatJSON,
		order:     keyOrder,
		level:     slog.LevelInfo,
		sampleNum: defaultSampleNum,
		sampleDen: defaultSampleDen,
		profile:   "prod",
	}
	if cfg == nil {
		return s
	}
	lc := cfg.Logging

	if p := strings.ToLower(strings.TrimSpace(lc.Profile)); p != "" {
		s.profile = p
	}
	switch strings.ToLower(strings.TrimSpace(lc.Format)) {
	case "kv", "text", "pretty":
		s.format = formatKV
	case "json":
	default:
		if s.profile == "debug" || s.profile == "dev" {
			s.format = formatKV
		}
	}
	if order := parseKeyOrder(lc.KeysOrder); len(order) > 0 {
		s.order = order
	}
	s.level = parseLevel(lc.Level)
	if raw := strings.TrimSpace(lc.DebugSample); raw != "" {
		s.sampleNum, s.sampleDen = parseRatio(raw)
	}
	if dir, file := strings.TrimSpace(lc.Dir), strings.TrimSpace(lc.BotFile); dir != "" && file != "" {
		s.filePath = filepath.Join(dir, file)
	}
	return s
}

// parseKeyOrder reads a comma separated key list. "default" and empty
// lists select the built in order.
func parseKeyOrder(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "default" {
		return nil
	}
	var order []string
	for _, k := range strings.Split(raw, ",") {
		if k = strings.TrimSpace(k); k != "" {
			order = append(order, k)
		}
	}
	return order
}

// InitLogger installs the structured logger described by cfg. Only the
// first call has any effect.
func InitLogger(cfg *coreconfig.Config) error {
	var err error
	initOnce.Do(func() {
		err = install(resolveSettings(cfg), cfg)
	})
	return err
}

func install(s settings, cfg *coreconfig.Config) error {
	sinks := []io.Writer{os.Stdout}
	var opened []io.Closer
	if s.filePath != "" {
		f, err := openLogFile(s.filePath)
		if err != nil {
			return err
		}
		sinks = append(sinks, f)
		opened = append(opened, f)
	}

	levelVar.Set(s.level)
	debugSampler.Set(s.sampleNum, s.sampleDen)
	traceOverride.Store(isTruthy(os.Getenv("TRACE")) || isTruthy(os.Getenv("LOG_TRACE")))

	w := newAsyncWriter(sinks, writerBufferSize)
	outMu.Lock()
	output, closers = w, opened
	outMu.Unlock()

	L = slog.New(newStructuredHandler(handlerConfig{
		level:    &levelVar,
		writer:   w,
		format:   s.format,
		keyOrder: s.order,
	}))
	slog.SetDefault(L)
	logStartup(s, cfg)
	return nil
}

func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("logger: create log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("logger: open log file: %w", err)
	}
	return f, nil
}

func logStartup(s settings, cfg *coreconfig.Config) {
	attrs := []slog.Attr{
		slog.String("go_version", runtime.Version()),
		slog.String("build", buildinfo.String()),
		slog.String("build_time", buildinfo.Date),
		slog.String("cfg_profile", s.profile),
		slog.String("log_level", levelName(s.level)),
	}
	if cfg != nil {
		attrs = append(attrs,
			slog.String("mode", cfg.Telegram.RunMode),
			slog.Int("idle_timeout_s", cfg.Conversation.IdleTimeoutSeconds),
		)
	}
	Info(context.Background(), "app", "startup", attrs...)
}

// Shutdown flushes pending lines and closes file sinks. Later calls are no-ops.
func Shutdown() error {
	outMu.Lock()
	defer outMu.Unlock()
	if stopped {
		return nil
	}
	stopped = true

	var errs []error
	if output != nil {
		errs = append(errs, output.Flush(), output.Close())
	}
	for _, c := range closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

func isTruthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "on", "yes":
		return true
	}
	return false
}

// ShouldSampleDebug reports whether a high volume debug event should be
// logged. TRACE=1 in the environment admits all of them.
func ShouldSampleDebug() bool {
	return traceOverride.Load() || debugSampler.Allow()
}

// Background returns context.Background().
func Background() context.Context {
	return context.Background()
}

// Component returns L scoped to name.
func Component(name string) *slog.Logger {
	if name = strings.TrimSpace(name); name == "" {
		return L
	}
	return L.With("component", name)
}

// LogEvent logs event through logg, or the context logger when logg is nil.
func LogEvent(ctx context.Context, logg *slog.Logger, level slog.Level, event string, attrs ...slog.Attr) {
	if logg == nil {
		logg = FromContext(ctx)
	}
	if event != "" {
		attrs = append([]slog.Attr{slog.String("event", event)}, attrs...)
	}
	logg.LogAttrs(orBackground(ctx), level, "", attrs...)
}

// Event logs event at level under component.
func Event(ctx context.Context, component string, level slog.Level, event string, attrs ...slog.Attr) {
	LogEvent(ctx, Component(component), level, event, attrs...)
}

// Debug logs a debug event for component.
func Debug(ctx context.Context, component, event string, attrs ...slog.Attr) {
	Event(ctx, component, slog.LevelDebug, event, attrs...)
}

// Info logs an info event for component.
func Info(ctx context.Context, component, event string, attrs ...slog.Attr) {
	Event(ctx, component, slog.LevelInfo, event, attrs...)
}

// Warn logs a warning event for component.
func Warn(ctx context.Context, component, event string, attrs ...slog.Attr) {
	Event(ctx, component, slog.LevelWarn, event, attrs...)
}

// Error logs an error event for component.
func Error(ctx context.Context, component, event string, attrs ...slog.Attr) {
	Event(ctx, component, slog.LevelError, event, attrs...)
}
