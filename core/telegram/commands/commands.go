// Package commands declares slash command metadata.
package commands

import tele "gopkg.in/telebot.v4"

// Command is a slash command as shown in the bot menu.
type Command struct {
	Handler     tele.HandlerFunc
	Description string
	// Hidden commands work but stay out of the menu.
	Hidden bool
	// Aliases are extra names routed to the same handler.
	Aliases []string
}
