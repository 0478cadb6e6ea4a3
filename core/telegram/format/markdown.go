// Package format renders message bodies for Telegram's MarkdownV2 parse mode.
package format

import (
	"regexp"
	"strings"
)

var reservedV2 = regexp.MustCompile("([_*\\[\\]()~`>#+\\-=|{}.!\\\\])")

// Escape backslash-escapes every character MarkdownV2 reserves.
func Escape(text string) string {
	return reservedV2.ReplaceAllString(text, `\${1}`)
}

// Chunk is a run of text, optionally bold.
type Chunk struct {
	Text string
	Bold bool
}

// MarkdownV2Text joins chunks into one escaped message body. Empty bold
// chunks are skipped since "**" is rejected by the API.
func MarkdownV2Text(chunks ...Chunk) string {
	var b strings.Builder
	for _, c := range chunks {
		s := Escape(c.Text)
		switch {
		case s == "":
		case c.Bold:
			b.WriteByte('*')
			b.WriteString(s)
			b.WriteByte('*')
		default:
			b.WriteString(s)
		}
	}
	return b.String()
}
