package telegram

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/Vladislavbro/tango-bot/core/logger"
	"github.com/Vladislavbro/tango-bot/core/telegram/commands"

	tele "gopkg.in/telebot.v4"
)

const wireComponent = "tg.wire"

var (
	// ErrInvalidRoute is returned for registrations without a name or handler.
	ErrInvalidRoute = errors.New("telegram: invalid route")
	// ErrDuplicateRoute is returned when a command or callback key is taken.
	ErrDuplicateRoute = errors.New("telegram: route already registered")
)

// Registry collects the commands and button callbacks the bot answers,
// plus the handlers used when nothing matches. It is safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	cmds      map[string]commands.Command
	buttons   map[string]tele.HandlerFunc
	onUnknown tele.HandlerFunc
	onText    tele.HandlerFunc
}

// NewRegistry creates an empty Registry. Unknown callbacks are logged and
// dropped until SetCallbackNotFound installs something else.
func NewRegistry() *Registry {
	return &Registry{
		cmds:      make(map[string]commands.Command),
		buttons:   make(map[string]tele.HandlerFunc),
		onUnknown: dropUnknownCallback,
	}
}

func dropUnknownCallback(c tele.Context) error {
	var data string
	if c != nil && c.Callback() != nil {
		data = c.Callback().Data
	}
	logger.Warn(context.Background(), wireComponent, "callback.unknown",
		slog.String("cb_key", logger.SanitizeLimit(data, 64)),
	)
	return nil
}

// RegisterCommand adds a slash command. Names must start with "/" and the
// command needs a handler and a description.
func (r *Registry) RegisterCommand(name string, cmd commands.Command) error {
	if r == nil {
		return fmt.Errorf("%w: nil registry", ErrInvalidRoute)
	}
	if len(name) < 2 || name[0] != '/' || cmd.Handler == nil || cmd.Description == "" {
		logger.Warn(context.Background(), wireComponent, "register.command.skip", slog.String("command", name))
		return fmt.Errorf("%w: command %q", ErrInvalidRoute, name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, taken := r.cmds[name]; taken {
		logger.Warn(context.Background(), wireComponent, "register.command.duplicate", slog.String("command", name))
		return fmt.Errorf("%w: command %s", ErrDuplicateRoute, name)
	}
	r.cmds[name] = cmd
	return nil
}

// ListCommands returns the menu entries sorted by name, leaving hidden
// commands out when visibleOnly is set.
func (r *Registry) ListCommands(visibleOnly bool) []tele.Command {
	r.mu.RLock()
	defer r.mu.RUnlock()
	menu := make([]tele.Command, 0, len(r.cmds))
	for name, cmd := range r.cmds {
		if !visibleOnly || !cmd.Hidden {
			menu = append(menu, tele.Command{Text: name, Description: cmd.Description})
		}
	}
	slices.SortFunc(menu, func(a, b tele.Command) int { return cmp.Compare(a.Text, b.Text) })
	return menu
}

// LookupCommand resolves name, with or without the leading slash, or one of
// the aliases to the canonical command name.
func (r *Registry) LookupCommand(name string) (string, commands.Command, bool) {
	name = "/" + strings.TrimPrefix(name, "/")
	r.mu.RLock()
	defer r.mu.RUnlock()
	if cmd, ok := r.cmds[name]; ok {
		return name, cmd, true
	}
	for canonical, cmd := range r.cmds {
		if slices.ContainsFunc(cmd.Aliases, func(alias string) bool {
			return "/"+strings.TrimPrefix(alias, "/") == name
		}) {
			return canonical, cmd, true
		}
	}
	return "", commands.Command{}, false
}

// Commands returns a copy of the registered commands keyed by name.
func (r *Registry) Commands() map[string]commands.Command {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return maps.Clone(r.cmds)
}

// RegisterCallback binds a button key to handler.
func (r *Registry) RegisterCallback(key string, handler tele.HandlerFunc) error {
	if r == nil || key == "" || handler == nil {
		logger.Warn(context.Background(), wireComponent, "register.callback.skip",
			slog.String("cb_key", key),
			slog.Bool("handler_nil", handler == nil),
		)
		return fmt.Errorf("%w: callback %q", ErrInvalidRoute, key)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, taken := r.buttons[key]; taken {
		logger.Warn(context.Background(), wireComponent, "register.callback.duplicate", slog.String("cb_key", key))
		return fmt.Errorf("%w: callback %s", ErrDuplicateRoute, key)
	}
	r.buttons[key] = handler
	return nil
}

// GetCallback returns the handler bound to key.
func (r *Registry) GetCallback(key string) (tele.HandlerFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.buttons[key]
	return h, ok
}

// ListCallbacks returns the registered button keys in order.
func (r *Registry) ListCallbacks() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.buttons))
}

// SetCallbackNotFound replaces the handler for unknown callbacks. nil is ignored.
func (r *Registry) SetCallbackNotFound(h tele.HandlerFunc) {
	if h == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onUnknown = h
}

// CallbackNotFound returns the handler for unknown callbacks.
func (r *Registry) CallbackNotFound() tele.HandlerFunc {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.onUnknown
}

// SetTextFallback sets the handler for text no command matched.
func (r *Registry) SetTextFallback(h tele.HandlerFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onText = h
}

// TextFallback returns the handler for unmatched text, nil if unset.
func (r *Registry) TextFallback() tele.HandlerFunc {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.onText
}

// InitBotCommands publishes the visible commands to the Telegram menu.
func InitBotCommands(ctx context.Context, bot *tele.Bot, reg *Registry) {
	list := reg.ListCommands(true)
	if len(list) == 0 {
		return
	}
	if err := bot.SetCommands(list); err != nil {
		logger.Error(ctx, wireComponent, "register.commands.set_failed",
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
		)
		return
	}
	logger.Info(ctx, wireComponent, "register.commands.set", slog.Int("commands", len(list)))
}
