// Package booking implements the trial-lesson signup conversation: the
// session model, the transition table and the per-session dispatcher.
package booking

import (
	"fmt"
	"time"

	"github.com/Vladislavbro/tango-bot/core/telegram/state"
)

// Conversation states. Idle and Ended come from the shared state package.
const (
	StateIdle                 = state.StateIdle
	StateAwaitingSignupChoice = state.State("awaiting_signup_choice")
	StateAwaitingName         = state.State("awaiting_name")
	StateAwaitingPhone        = state.State("awaiting_phone")
	StateAwaitingPhoneConfirm = state.State("awaiting_phone_confirm")
	StateAwaitingSlotChoice   = state.State("awaiting_slot_choice")
	StatePostConfirmation     = state.State("post_confirmation")
	StateEnded                = state.StateEnded
)

// Slot is one of the fixed trial lesson times.
type Slot int

const (
	SlotNone Slot = iota
	SlotFriday1800
	SlotSaturday1500
	SlotSunday1700
)

var slotLabels = map[Slot]string{
	SlotFriday1800:   "Friday, 18:00",
	SlotSaturday1500: "Saturday, 15:00",
	SlotSunday1700:   "Sunday, 17:00",
}

// String returns a stable identifier used in logs and the journal.
func (s Slot) String() string {
	switch s {
	case SlotFriday1800:
		return "friday_1800"
	case SlotSaturday1500:
		return "saturday_1500"
	case SlotSunday1700:
		return "sunday_1700"
	default:
		return ""
	}
}

// Label returns the human readable slot time.
func (s Slot) Label() string {
	return slotLabels[s]
}

// Token is the callback payload of an inline button.
type Token string

const (
	TokenSignupYes       Token = "signup_yes"
	TokenSignupNo        Token = "signup_no"
	TokenDetails         Token = "details"
	TokenPhoneConfirmYes Token = "phone_confirm_yes"
	TokenPhoneConfirmNo  Token = "phone_confirm_no"
	TokenSlotFriday      Token = "slot_friday"
	TokenSlotSaturday    Token = "slot_saturday"
	TokenSlotSunday      Token = "slot_sunday"
)

var tokenSlots = map[Token]Slot{
	TokenSlotFriday:   SlotFriday1800,
	TokenSlotSaturday: SlotSaturday1500,
	TokenSlotSunday:   SlotSunday1700,
}

// Tokens lists the whole button vocabulary.
func Tokens() []Token {
	return []Token{
		TokenSignupYes, TokenSignupNo, TokenDetails,
		TokenPhoneConfirmYes, TokenPhoneConfirmNo,
		TokenSlotFriday, TokenSlotSaturday, TokenSlotSunday,
	}
}

// ParseToken maps raw callback data onto the vocabulary.
func ParseToken(raw string) (Token, bool) {
	for _, t := range Tokens() {
		if string(t) == raw {
			return t, true
		}
	}
	return "", false
}

// Session is one user's booking conversation.
type Session struct {
	ID           state.SessionID
	State        state.State
	Name         string
	Phone        string
	Slot         Slot
	LastActivity time.Time
}

func newSession(id state.SessionID) Session {
	return Session{ID: id, State: StateIdle}
}

// EventKind enumerates normalized inputs.
type EventKind int

const (
	EventStart EventKind = iota + 1
	EventButton
	EventText
	EventCancel
	EventTimeout
	EventUnknownCommand
)

func (k EventKind) String() string {
	switch k {
	case EventStart:
		return "start"
	case EventButton:
		return "button"
	case EventText:
		return "text"
	case EventCancel:
		return "cancel"
	case EventTimeout:
		return "timeout"
	case EventUnknownCommand:
		return "unknown_command"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Event is a normalized input for the conversation.
type Event struct {
	Kind  EventKind
	Token Token
	Text  string
}

// ButtonPress builds a button event.
func ButtonPress(t Token) Event { return Event{Kind: EventButton, Token: t} }

// TextMessage builds a free text event.
func TextMessage(text string) Event { return Event{Kind: EventText, Text: text} }

// Validate rejects events outside the vocabulary.
func (e Event) Validate() error {
	switch e.Kind {
	case EventStart, EventText, EventCancel, EventTimeout, EventUnknownCommand:
		return nil
	case EventButton:
		if _, ok := ParseToken(string(e.Token)); !ok {
			return fmt.Errorf("%w: unknown token %q", ErrMalformedEvent, e.Token)
		}
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrMalformedEvent, e.Kind)
	}
}
