package router

import (
	"strings"

	tg "github.com/Vladislavbro/tango-bot/core/telegram"

	tele "gopkg.in/telebot.v4"
)

// TextOptions sets the handlers for text and documents nothing else claims.
type TextOptions struct {
	UnknownText     tele.HandlerFunc
	UnknownDocument tele.HandlerFunc
}

// TextRoutes builds the text and document handlers. Text naming a
// registered command or alias runs that command. Anything else, including
// unregistered /commands, goes to the registry text fallback and then to
// opts.UnknownText.
func TextRoutes(reg *tg.Registry, opts TextOptions) []tg.Route {
	text := func(c tele.Context) error {
		if reg != nil {
			if key, cmd, ok := reg.LookupCommand(commandWord(c.Text())); ok && cmd.Handler != nil {
				return runHandler(c, "command."+normalizeHandlerName(key), cmd.Handler)
			}
			if fb := reg.TextFallback(); fb != nil {
				return runHandler(c, "text", fb)
			}
		}
		if opts.UnknownText != nil {
			return runHandler(c, "unknown_text", opts.UnknownText)
		}
		logSkipped(c, "unknown_text")
		return nil
	}

	document := func(c tele.Context) error {
		if opts.UnknownDocument != nil {
			return runHandler(c, "unexpected_document", opts.UnknownDocument)
		}
		logSkipped(c, "unexpected_document")
		return nil
	}

	return []tg.Route{
		{Endpoint: tele.OnText, Handler: text},
		{Endpoint: tele.OnDocument, Handler: document},
	}
}

// commandWord returns the leading "/cmd" of text without a "@bot" suffix,
// or "" when text is not a command.
func commandWord(text string) string {
	if !strings.HasPrefix(text, "/") {
		return ""
	}
	word := strings.Fields(text)[0]
	if at := strings.IndexByte(word, '@'); at > 0 {
		word = word[:at]
	}
	return word
}
