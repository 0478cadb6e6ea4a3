// Package app wires the booking conversation into the Telegram runtime.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"github.com/Vladislavbro/tango-bot/core/bootstrap"
	"github.com/Vladislavbro/tango-bot/core/buildinfo"
	"github.com/Vladislavbro/tango-bot/core/logger"
	tg "github.com/Vladislavbro/tango-bot/core/telegram"
	tghelpers "github.com/Vladislavbro/tango-bot/core/telegram/helpers"
	"github.com/Vladislavbro/tango-bot/core/telegram/middleware"
	"github.com/Vladislavbro/tango-bot/core/telegram/router"
	tgsender "github.com/Vladislavbro/tango-bot/core/telegram/sender"
	"github.com/Vladislavbro/tango-bot/core/telegram/ui"
	"github.com/Vladislavbro/tango-bot/internal/audit"
	"github.com/Vladislavbro/tango-bot/internal/booking"
	"github.com/Vladislavbro/tango-bot/internal/bot"
	"github.com/Vladislavbro/tango-bot/internal/health"
)

const (
	component   = "app"
	dialTimeout = 5 * time.Second
)

// App owns every long-lived component of the bot.
type App struct {
	cfg      *Config
	db       *sqlx.DB
	redis    *redis.Client
	journal  *audit.Journal
	sessions *booking.Dispatcher
	adapter  *bot.Adapter
	registry *tg.Registry
	ops      *health.Server
}

// Bootstrap initializes logging and the optional infrastructure, then
// builds the conversation components.
func Bootstrap(ctx context.Context, cfg *Config) (*App, error) {
	if cfg == nil {
		return nil, errors.New("app: nil config")
	}
	res, err := bootstrap.Run(ctx, bootstrap.Options{
		Config:        &cfg.Config,
		Database:      cfg.Database,
		Migrations:    audit.Migrations,
		MigrationsDir: audit.MigrationsDir,
	})
	if err != nil {
		return nil, err
	}
	return build(cfg, res.DB)
}

func build(cfg *Config, db *sqlx.DB) (*App, error) {
	a := &App{cfg: cfg, db: db, registry: tg.NewRegistry()}

	if url := cfg.RateLimit.RedisURL; url != "" {
		ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
		client, err := middleware.DialRedis(ctx, url)
		cancel()
		if err != nil {
			a.closeInfra()
			return nil, fmt.Errorf("app: %w", err)
		}
		a.redis = client
	}

	var recorder booking.Recorder
	if db != nil {
		a.journal = audit.NewJournal(audit.NewSQLStore(db), audit.Options{})
		recorder = a.journal
	}

	a.sessions = booking.NewDispatcher(booking.Options{
		IdleTimeout: cfg.Conversation.IdleTimeout(),
		Recorder:    recorder,
	})
	a.adapter = bot.NewAdapter(a.sessions)
	if err := a.adapter.Register(a.registry); err != nil {
		a.sessions.Close()
		a.closeInfra()
		return nil, err
	}

	logger.Info(context.Background(), component, "app.built",
		slog.Duration("idle", a.sessions.IdleTimeout()),
		slog.Bool("journal", a.journal != nil),
		slog.Bool("redis", a.redis != nil),
	)
	return a, nil
}

// TelegramRunOptions assembles routes, middlewares and lifecycle hooks.
func (a *App) TelegramRunOptions() (tg.RunOptions, error) {
	var limiter middleware.Limiter
	if a.redis != nil {
		limiter = middleware.NewRedisLimiter(a.redis)
	}

	return tg.RunOptions{
		Config:   &a.cfg.Config,
		Registry: a.registry,
		DispatcherOptions: tgsender.Options{
			Workers:    a.cfg.Sender.Workers,
			QueueSize:  a.cfg.Sender.QueueSize,
			MaxRetries: a.cfg.Sender.MaxRetries,
		},
		Middlewares: tg.DefaultMiddlewares(&a.cfg.Config, tghelpers.Acknowledge, limiter),
		Routes:      Routes(a.registry, a.adapter),
		OnStart:     a.start,
		OnStop:      a.stop,
	}, nil
}

// Routes binds commands, buttons and text to the registry handlers.
func Routes(reg *tg.Registry, fallback ui.FallbackProvider) []tg.Route {
	routes := router.CommandRoutes(reg)
	routes = append(routes, router.CallbackRoute(reg, router.CallbackOptions{
		NotFound: fallback.UnknownCallback(),
	}))
	routes = append(routes, router.TextRoutes(reg, router.TextOptions{
		UnknownText:     fallback.UnknownText(),
		UnknownDocument: fallback.UnknownDocument(),
	})...)
	return routes
}

func (a *App) start(_ context.Context, rt tg.Runtime) error {
	addr := strings.TrimSpace(a.cfg.Health.Listen)
	if addr == "" {
		return nil
	}
	srv, err := health.Start(addr, health.NewHandler(health.Options{
		Checks:  a.checks(),
		Stats:   a.stats(rt.Dispatcher),
		Version: buildinfo.String(),
	}))
	if err != nil {
		return fmt.Errorf("app: health server: %w", err)
	}
	a.ops = srv
	return nil
}

func (a *App) checks() []health.Check {
	var checks []health.Check
	if a.db != nil {
		checks = append(checks, health.Check{Name: "database", Ping: a.db.PingContext})
	}
	if a.redis != nil {
		checks = append(checks, health.Check{Name: "redis", Ping: func(ctx context.Context) error {
			return a.redis.Ping(ctx).Err()
		}})
	}
	return checks
}

func (a *App) stats(out *tgsender.Dispatcher) func() health.Stats {
	return func() health.Stats {
		s := health.Stats{
			ActiveSessions:  a.sessions.ActiveSessions(),
			PendingTimeouts: a.sessions.PendingTimeouts(),
		}
		if out != nil {
			s.MessagesSent = out.SentCount()
			s.DeliveryFailures = out.ErrorCount()
			s.SendQueue = out.Pending()
		}
		if a.journal != nil {
			s.JournalWritten = a.journal.Written()
			s.JournalDropped = a.journal.Dropped()
		}
		return s
	}
}

// stop runs before the sender drains, so replies already queued still go out.
func (a *App) stop(ctx context.Context, _ tg.Runtime) error {
	logger.Info(ctx, component, "app.stopping",
		slog.Int("sessions", a.sessions.ActiveSessions()),
		slog.Int("timers", a.sessions.PendingTimeouts()),
	)
	a.sessions.Close()

	var errs []error
	if a.ops != nil {
		if err := a.ops.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("health shutdown: %w", err))
		}
	}
	if a.journal != nil {
		if err := a.journal.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("journal close: %w", err))
		}
	}
	if err := a.closeInfra(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (a *App) closeInfra() error {
	var errs []error
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("redis close: %w", err))
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("db close: %w", err))
		}
	}
	return errors.Join(errs...)
}
