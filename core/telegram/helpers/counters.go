package helpers

import (
	tele "gopkg.in/telebot.v4"
)

const (
	repliesKey  = "replies"
	keyboardKey = "kb"
)

// ResetCounters zeroes the reply counters of the current update.
func ResetCounters(c tele.Context) {
	if c == nil {
		return
	}
	c.Set(repliesKey, 0)
	c.Set(keyboardKey, false)
}

// Counters reports how many replies were queued while handling the current
// update and whether any of them carried an inline keyboard.
func Counters(c tele.Context) (int, bool) {
	if c == nil {
		return 0, false
	}
	n, _ := c.Get(repliesKey).(int)
	kb, _ := c.Get(keyboardKey).(bool)
	return n, kb
}

// countReply runs on the handler goroutine, before the job reaches a sender worker.
func countReply(c tele.Context, opts *tele.SendOptions) {
	n, kb := Counters(c)
	c.Set(repliesKey, n+1)
	if !kb && opts != nil && opts.ReplyMarkup != nil {
		c.Set(keyboardKey, true)
	}
}
