package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	coreconfig "github.com/Vladislavbro/tango-bot/core/config"
	"github.com/Vladislavbro/tango-bot/core/logger"
	tghelpers "github.com/Vladislavbro/tango-bot/core/telegram/helpers"
	tgsender "github.com/Vladislavbro/tango-bot/core/telegram/sender"

	tele "gopkg.in/telebot.v4"
)

const shutdownTimeout = 10 * time.Second

// Middleware is a named global middleware, installed with bot.Use.
type Middleware struct {
	Name string
	Use  tele.MiddlewareFunc
}

// Route binds Handler to Endpoint, anything tele.Bot.Handle accepts.
type Route struct {
	Endpoint any
	Handler  tele.HandlerFunc
}

// RunOptions configure RunTelegram.
type RunOptions struct {
	Config   *coreconfig.Config
	Registry *Registry

	// Dispatcher delivers replies. When nil one is built from
	// DispatcherOptions. Either way RunTelegram closes it on return.
	DispatcherOptions tgsender.Options
	Dispatcher        *tgsender.Dispatcher

	// Middlewares wrap every route, first entry outermost.
	Middlewares []Middleware
	Routes      []Route

	// KeepWebhook skips removing a stale webhook before long polling.
	KeepWebhook bool

	// OnStart runs before polling begins; an error aborts the run. OnStop
	// runs after polling ends and before queued replies are drained.
	OnStart func(ctx context.Context, rt Runtime) error
	OnStop  func(ctx context.Context, rt Runtime) error
}

// Runtime is handed to the lifecycle hooks.
type Runtime struct {
	Dispatcher *tgsender.Dispatcher
	Registry   *Registry
}

// RunTelegram serves updates until ctx is cancelled or the poller stops.
// Cancellation is a clean exit.
func RunTelegram(ctx context.Context, opts RunOptions) error {
	if opts.Config == nil {
		return errors.New("telegram: nil config")
	}
	if opts.Registry == nil {
		opts.Registry = NewRegistry()
	}

	started := time.Now()
	poller := newPoller(opts.Config)
	// Updates are handled one at a time in arrival order; replies leave
	// through the dispatcher.
	bot, err := tele.NewBot(tele.Settings{
		Token:       opts.Config.Telegram.Token,
		Poller:      poller,
		Client:      BuildHTTPClient(longPollTimeout(opts.Config)),
		Synchronous: true,
		OnError:     logUpdateError,
	})
	if err != nil {
		return fmt.Errorf("telegram: bot initialization failed: %w", err)
	}
	logPollerMode(ctx, poller, time.Since(started))

	out := opts.Dispatcher
	if out == nil {
		out = tgsender.NewDispatcher(opts.DispatcherOptions)
	}
	tghelpers.SetDispatcher(out)
	defer func() {
		out.Close()
		tghelpers.SetDispatcher(nil)
	}()
	rt := Runtime{Dispatcher: out, Registry: opts.Registry}

	if _, ok := poller.(*tele.LongPoller); ok && !opts.KeepWebhook {
		removeWebhook(ctx, bot)
	}
	install(bot, opts)
	InitBotCommands(ctx, bot, opts.Registry)

	if opts.OnStart != nil {
		if err := opts.OnStart(ctx, rt); err != nil {
			return err
		}
	}
	runErr := serve(ctx, bot)

	if opts.OnStop != nil {
		// ctx is done by now, cleanup gets a fresh deadline.
		stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := opts.OnStop(stopCtx, rt); err != nil {
			return err
		}
	}
	if errors.Is(runErr, context.Canceled) {
		return nil
	}
	return runErr
}

func install(bot *tele.Bot, opts RunOptions) {
	for _, mw := range opts.Middlewares {
		if mw.Use != nil {
			bot.Use(mw.Use)
		}
	}
	for _, r := range opts.Routes {
		if r.Endpoint != nil && r.Handler != nil {
			bot.Handle(r.Endpoint, r.Handler)
		}
	}
}

// serve polls until ctx ends or the poller gives up on its own.
func serve(ctx context.Context, bot *tele.Bot) error {
	done := make(chan struct{})
	go func() {
		defer close(done)
		bot.Start()
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		bot.Stop()
		<-done
		return ctx.Err()
	}
}

// removeWebhook clears a webhook left by a previous deployment, since
// getUpdates is refused while one is set. Pending updates are kept.
func removeWebhook(ctx context.Context, bot *tele.Bot) {
	if err := bot.RemoveWebhook(false); err != nil {
		logger.Warn(ctx, "tg", "webhook.delete_failed",
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
		)
		return
	}
	logger.Info(ctx, "tg", "webhook.deleted")
}

func logUpdateError(err error, c tele.Context) {
	if err == nil {
		return
	}
	ctx := context.Background()
	if c != nil {
		ctx = tghelpers.BuildContext(c)
	}
	logger.Error(ctx, "tg", "update.failed", slog.String("err", logger.SanitizeLimit(err.Error(), 256)))
}

func logPollerMode(ctx context.Context, poller tele.Poller, took time.Duration) {
	attrs := []slog.Attr{slog.Duration("duration", logger.RoundMS(took))}
	switch p := poller.(type) {
	case *tele.Webhook:
		attrs = append(attrs,
			slog.String("mode", coreconfig.RunModeWebhook),
			slog.String("listen", p.Listen),
			slog.String("public_url", p.Endpoint.PublicURL),
		)
	case *tele.LongPoller:
		attrs = append(attrs,
			slog.String("mode", coreconfig.RunModeLongpoll),
			slog.Duration("poll_timeout", p.Timeout),
		)
	}
	logger.Info(ctx, "tg", "bot.mode", attrs...)
}
