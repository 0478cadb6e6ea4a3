package booking

import "strings"

// Button is an inline choice offered with a message.
type Button struct {
	Label string
	Token Token
}

// Span is a run of message text; Bold spans need rich rendering.
type Span struct {
	Text string
	Bold bool
}

// Message is an outbound reply. The adapter renders and delivers it.
type Message struct {
	Parts   []Span
	Buttons []Button
}

func plain(text string, buttons ...Button) Message {
	return Message{Parts: []Span{{Text: text}}, Buttons: buttons}
}

// Text returns the message without formatting.
func (m Message) Text() string {
	var b strings.Builder
	for _, p := range m.Parts {
		b.WriteString(p.Text)
	}
	return b.String()
}

// Rich reports whether the message carries formatting.
func (m Message) Rich() bool {
	for _, p := range m.Parts {
		if p.Bold {
			return true
		}
	}
	return false
}
