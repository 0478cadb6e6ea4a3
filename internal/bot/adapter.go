// Package bot translates Telegram updates into booking events and renders
// the resulting messages back to the chat.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Vladislavbro/tango-bot/core/logger"
	tg "github.com/Vladislavbro/tango-bot/core/telegram"
	"github.com/Vladislavbro/tango-bot/core/telegram/callbacks"
	"github.com/Vladislavbro/tango-bot/core/telegram/commands"
	"github.com/Vladislavbro/tango-bot/core/telegram/format"
	tghelpers "github.com/Vladislavbro/tango-bot/core/telegram/helpers"
	"github.com/Vladislavbro/tango-bot/core/telegram/keyboard"
	"github.com/Vladislavbro/tango-bot/core/telegram/state"
	"github.com/Vladislavbro/tango-bot/core/telegram/ui"
	"github.com/Vladislavbro/tango-bot/internal/booking"

	tele "gopkg.in/telebot.v4"
)

const component = "tg"

// Dispatcher is the part of booking.Dispatcher the adapter drives.
type Dispatcher interface {
	Dispatch(ctx context.Context, id state.SessionID, ev booking.Event) (booking.Reply, error)
}

// Adapter feeds Telegram updates to a Dispatcher.
type Adapter struct {
	disp Dispatcher
}

var _ ui.FallbackProvider = (*Adapter)(nil)

// NewAdapter builds an Adapter around disp.
func NewAdapter(disp Dispatcher) *Adapter {
	return &Adapter{disp: disp}
}

// Register binds /start, /cancel, every button token and the text fallback.
func (a *Adapter) Register(reg *tg.Registry) error {
	if reg == nil {
		return errors.New("bot: nil registry")
	}
	if err := reg.RegisterCommand("/start", commands.Command{
		Handler:     a.event(booking.Event{Kind: booking.EventStart}),
		Description: "Book a free trial tango lesson",
	}); err != nil {
		return fmt.Errorf("bot: register /start: %w", err)
	}
	if err := reg.RegisterCommand("/cancel", commands.Command{
		Handler:     a.event(booking.Event{Kind: booking.EventCancel}),
		Description: "Cancel the current booking",
	}); err != nil {
		return fmt.Errorf("bot: register /cancel: %w", err)
	}
	for _, tok := range booking.Tokens() {
		if err := reg.RegisterCallback(string(tok), a.event(booking.ButtonPress(tok))); err != nil {
			return fmt.Errorf("bot: register %s: %w", tok, err)
		}
	}
	reg.SetTextFallback(a.UnknownText())
	reg.SetCallbackNotFound(a.UnknownCallback())
	return nil
}

// UnknownText turns free text and unregistered commands into events.
func (a *Adapter) UnknownText() tele.HandlerFunc {
	return func(c tele.Context) error {
		return a.handle(c, TextEvent(c.Text()))
	}
}

// UnknownDocument drops files; the conversation only understands text and buttons.
func (a *Adapter) UnknownDocument() tele.HandlerFunc {
	return func(c tele.Context) error {
		logger.Warn(tghelpers.BuildContext(c), component, "event.malformed",
			slog.String("reason", "document"),
		)
		return nil
	}
}

// UnknownCallback drops button data outside the token vocabulary.
func (a *Adapter) UnknownCallback() tele.HandlerFunc {
	return func(c tele.Context) error {
		key, _ := callbacks.ParseCallbackData(c.Callback())
		logger.Warn(tghelpers.BuildContext(c), component, "event.malformed",
			slog.String("reason", "unknown_token"),
			slog.String("cb_key", logger.SanitizeLimit(key, 64)),
		)
		return nil
	}
}

func (a *Adapter) event(ev booking.Event) tele.HandlerFunc {
	return func(c tele.Context) error {
		return a.handle(c, ev)
	}
}

func (a *Adapter) handle(c tele.Context, ev booking.Event) error {
	ctx := tghelpers.BuildContext(c)
	id, ok := SessionIDFor(c.Chat(), c.Sender())
	if !ok {
		logger.Warn(ctx, component, "event.malformed", slog.String("reason", "no_sender"))
		return nil
	}

	reply, err := a.disp.Dispatch(ctx, id, ev)
	if err != nil {
		if errors.Is(err, booking.ErrMalformedEvent) {
			return nil
		}
		return fmt.Errorf("dispatch %s: %w", ev.Kind, err)
	}
	return deliver(c, reply)
}

// deliver sends the reply messages in order. The first reply to a button
// press replaces the message carrying that button; fallbacks are always new
// messages so the original prompt stays visible.
func deliver(c tele.Context, reply booking.Reply) error {
	var errs []error
	for i, msg := range reply.Messages {
		text, opts := Render(msg)
		var err error
		if i == 0 && c.Callback() != nil && !reply.Fallback {
			err = tghelpers.EditOrSendText(c, text, opts)
		} else {
			err = tghelpers.SendText(c, text, opts)
		}
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// SessionIDFor keys a conversation by chat and user. Updates without a
// sender cannot be attributed to a conversation.
func SessionIDFor(chat *tele.Chat, user *tele.User) (state.SessionID, bool) {
	if user == nil {
		return "", false
	}
	chatID := user.ID
	if chat != nil {
		chatID = chat.ID
	}
	return state.KeyFor(chatID, user.ID), true
}

// TextEvent classifies a text message. Commands reaching here were not
// registered and count as unknown commands.
func TextEvent(text string) booking.Event {
	if strings.HasPrefix(strings.TrimSpace(text), "/") {
		return booking.Event{Kind: booking.EventUnknownCommand, Text: text}
	}
	return booking.TextMessage(text)
}

// Render converts a message into Telegram text and send options.
func Render(msg booking.Message) (string, *tele.SendOptions) {
	opts := &tele.SendOptions{ReplyMarkup: Keyboard(msg.Buttons)}
	if !msg.Rich() {
		return msg.Text(), opts
	}
	chunks := make([]format.Chunk, 0, len(msg.Parts))
	for _, p := range msg.Parts {
		chunks = append(chunks, format.Chunk{Text: p.Text, Bold: p.Bold})
	}
	opts.ParseMode = tele.ModeMarkdownV2
	return format.MarkdownV2Text(chunks...), opts
}

// Keyboard lays buttons out one per row; the token is the callback unique.
func Keyboard(buttons []booking.Button) *tele.ReplyMarkup {
	btns := make([]keyboard.InlineBtn, 0, len(buttons))
	for _, b := range buttons {
		btns = append(btns, keyboard.InlineBtn{Text: b.Label, Unique: string(b.Token)})
	}
	return keyboard.InlineButtons(btns)
}
