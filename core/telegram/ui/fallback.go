// Package ui holds contracts between the transport routers and the bot that
// renders conversation replies.
package ui

import tele "gopkg.in/telebot.v4"

// FallbackProvider handles updates that match no registered command or
// button: free text, unregistered /commands, files and stale callback data.
type FallbackProvider interface {
	UnknownText() tele.HandlerFunc
	UnknownDocument() tele.HandlerFunc
	UnknownCallback() tele.HandlerFunc
}
