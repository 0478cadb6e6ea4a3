// Package keyboard builds inline keyboards.
package keyboard

import tele "gopkg.in/telebot.v4"

// InlineBtn is one inline button. Unique becomes its callback key.
type InlineBtn struct {
	Text   string
	Unique string
	Data   string
}

// InlineButtons stacks buttons in a single column. No buttons means no
// markup, so the result can be passed to SendOptions unchecked.
func InlineButtons(buttons []InlineBtn) *tele.ReplyMarkup {
	if len(buttons) == 0 {
		return nil
	}
	markup := &tele.ReplyMarkup{}
	column := make([]tele.Row, len(buttons))
	for i, b := range buttons {
		column[i] = markup.Row(markup.Data(b.Text, b.Unique, b.Data))
	}
	markup.Inline(column...)
	return markup
}
