// Package callbacks decodes inline button callback data.
package callbacks

import (
	"strings"

	tele "gopkg.in/telebot.v4"
)

// Split decodes telebot's "\f<unique>|<payload>" callback encoding. Data
// without the marker is a bare key.
func Split(data string) (unique, payload string) {
	unique, payload, _ = strings.Cut(strings.TrimPrefix(data, "\f"), "|")
	return strings.TrimSpace(unique), payload
}

// ParseCallbackData returns the button key and payload of cb. Unique is set
// by telebot only when a handler matched, otherwise the raw data is decoded.
func ParseCallbackData(cb *tele.Callback) (unique, payload string) {
	switch {
	case cb == nil:
		return "", ""
	case cb.Unique != "":
		return cb.Unique, cb.Data
	}
	return Split(cb.Data)
}
