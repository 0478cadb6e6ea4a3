package booking

import (
	"strings"

	"github.com/Vladislavbro/tango-bot/core/telegram/state"
)

// Result is the outcome of one transition.
type Result struct {
	Session  Session
	Messages []Message
	// Fallback is set when no rule matched. Session is then unchanged.
	Fallback bool
}

// anyState matches every state that has no exact rule of its own.
const anyState = state.State("*")

type trigger struct {
	state state.State
	kind  EventKind
	token Token
}

// effect mutates the session copy and returns the replies.
// Returning ErrUnrecognizedInput turns the event into a fallback.
type effect func(s *Session, ev Event) ([]Message, error)

type rule struct {
	next  state.State
	apply effect
}

var rules = map[trigger]rule{
	{anyState, EventStart, ""}:   {StateAwaitingSignupChoice, restart},
	{anyState, EventCancel, ""}:  {StateEnded, cancel},
	{anyState, EventTimeout, ""}: {StateEnded, silent},

	// Without a session there is nothing to cancel or expire.
	{StateIdle, EventCancel, ""}:  {StateIdle, unrecognized},
	{StateIdle, EventTimeout, ""}: {StateIdle, silent},

	{StateAwaitingSignupChoice, EventButton, TokenSignupYes}: {StateAwaitingName, reply(textAskName)},
	{StateAwaitingSignupChoice, EventButton, TokenDetails}:   {StateAwaitingSignupChoice, details},
	{StateAwaitingSignupChoice, EventButton, TokenSignupNo}:  {StateEnded, reply(textDeclined)},

	{StateAwaitingName, EventText, ""}:  {StateAwaitingPhone, takeName},
	{StateAwaitingPhone, EventText, ""}: {StateAwaitingPhoneConfirm, takePhone},

	{StateAwaitingPhoneConfirm, EventButton, TokenPhoneConfirmYes}: {StateAwaitingSlotChoice, slots},
	{StateAwaitingPhoneConfirm, EventButton, TokenPhoneConfirmNo}:  {StateAwaitingPhone, reply(textReenterPhone)},

	{StateAwaitingSlotChoice, EventButton, TokenSlotFriday}:   {StatePostConfirmation, takeSlot},
	{StateAwaitingSlotChoice, EventButton, TokenSlotSaturday}: {StatePostConfirmation, takeSlot},
	{StateAwaitingSlotChoice, EventButton, TokenSlotSunday}:   {StatePostConfirmation, takeSlot},

	{StatePostConfirmation, EventText, ""}: {StatePostConfirmation, remind},
}

// Apply computes the transition for ev on s. It never mutates s and does no I/O.
func Apply(s Session, ev Event) Result {
	if s.State == "" || s.State.Terminal() {
		s = newSession(s.ID)
	}

	r, ok := lookup(s.State, ev)
	if !ok {
		return fallback(s)
	}
	next := s
	msgs, err := r.apply(&next, ev)
	if err != nil {
		return fallback(s)
	}
	next.State = r.next
	return Result{Session: next, Messages: msgs}
}

func lookup(st state.State, ev Event) (rule, bool) {
	key := trigger{state: st, kind: ev.Kind}
	if ev.Kind == EventButton {
		key.token = ev.Token
	}
	if r, ok := rules[key]; ok {
		return r, true
	}
	key.state = anyState
	r, ok := rules[key]
	return r, ok
}

func fallback(s Session) Result {
	return Result{Session: s, Messages: []Message{fallbackMessage()}, Fallback: true}
}

func reply(text string) effect {
	return func(*Session, Event) ([]Message, error) {
		return []Message{plain(text)}, nil
	}
}

func silent(*Session, Event) ([]Message, error) {
	return nil, nil
}

func unrecognized(*Session, Event) ([]Message, error) {
	return nil, ErrUnrecognizedInput
}

func restart(s *Session, _ Event) ([]Message, error) {
	*s = newSession(s.ID)
	return []Message{welcomeMessage()}, nil
}

func cancel(s *Session, _ Event) ([]Message, error) {
	*s = newSession(s.ID)
	return []Message{plain(textCancelled)}, nil
}

func details(*Session, Event) ([]Message, error) {
	return []Message{detailsMessage()}, nil
}

func takeName(s *Session, ev Event) ([]Message, error) {
	name := strings.TrimSpace(ev.Text)
	if name == "" {
		return nil, ErrUnrecognizedInput
	}
	s.Name = name
	return []Message{askPhoneMessage(name)}, nil
}

func takePhone(s *Session, ev Event) ([]Message, error) {
	phone := strings.TrimSpace(ev.Text)
	if phone == "" {
		return nil, ErrUnrecognizedInput
	}
	s.Phone = phone
	return []Message{confirmPhoneMessage(phone)}, nil
}

func slots(*Session, Event) ([]Message, error) {
	return []Message{chooseSlotMessage()}, nil
}

func takeSlot(s *Session, ev Event) ([]Message, error) {
	slot, ok := tokenSlots[ev.Token]
	if !ok {
		return nil, ErrUnrecognizedInput
	}
	s.Slot = slot
	return []Message{confirmationMessage(*s)}, nil
}

func remind(s *Session, _ Event) ([]Message, error) {
	return []Message{reminderMessage(*s)}, nil
}
