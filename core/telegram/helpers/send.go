package helpers

import (
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/Vladislavbro/tango-bot/core/logger"
	"github.com/Vladislavbro/tango-bot/core/telegram/sender"

	tele "gopkg.in/telebot.v4"
)

var dispatcher atomic.Pointer[sender.Dispatcher]

// SetDispatcher routes replies through d. With nil they are sent inline.
func SetDispatcher(d *sender.Dispatcher) {
	dispatcher.Store(d)
}

// sendAsync queues run on the shard of the current chat. A full or closed
// queue degrades to an inline call so the reply is not lost.
func sendAsync(c tele.Context, action, endpoint string, run func() error) error {
	d := dispatcher.Load()
	if d == nil {
		return run()
	}
	ctx := BuildContext(c)
	chat, _ := participants(c)
	err := d.Enqueue(ctx, chat, action, endpoint, run)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sender.ErrQueueFull), errors.Is(err, sender.ErrQueueClosed):
		logger.Warn(ctx, "tg.sender", "queue.fallback",
			slog.String("action", action),
			slog.String("err", err.Error()),
		)
		return run()
	}
	return err
}

// SendText sends text to the current chat as a new message.
func SendText(c tele.Context, text string, opts *tele.SendOptions) error {
	if opts == nil {
		opts = &tele.SendOptions{}
	}
	countReply(c, opts)
	return sendAsync(c, "send.text", "sendMessage", func() error {
		return c.Send(text, opts)
	})
}

// EditOrSendText replaces the message carrying the pressed button. Without
// one, or when the edit is rejected, text goes out as a new message.
func EditOrSendText(c tele.Context, text string, opts *tele.SendOptions) error {
	if cb := c.Callback(); cb == nil || cb.Message == nil {
		return SendText(c, text, opts)
	}
	if opts == nil {
		opts = &tele.SendOptions{}
	}
	countReply(c, opts)
	return sendAsync(c, "edit.text", "editMessageText", func() error {
		err := c.Edit(text, opts)
		if err == nil {
			return nil
		}
		logger.Debug(BuildContext(c), "tg.sender", "edit.fallback", slog.String("err", err.Error()))
		return c.Send(text, opts)
	})
}

// Acknowledge answers the pending callback query, if any, which clears the
// button's loading state.
func Acknowledge(c tele.Context) error {
	if c.Callback() == nil {
		return nil
	}
	return sendAsync(c, "callback.answer", "answerCallbackQuery", func() error {
		return c.Respond()
	})
}
