package state

import "fmt"

// State identifies a finite-state-machine step used in conversations.
type State string

const (
	// StateIdle indicates there is no active conversation with the user.
	StateIdle State = "idle"
	// StateEnded marks a finished conversation. Ended sessions are not stored.
	StateEnded State = "ended"
)

// Terminal reports whether the state finishes the conversation.
func (s State) Terminal() bool {
	return s == StateEnded
}

// SessionID addresses a single conversation: one user inside one chat.
type SessionID string

// KeyFor builds the SessionID for a user in a chat.
func KeyFor(chatID, userID int64) SessionID {
	return SessionID(fmt.Sprintf("%d:%d", chatID, userID))
}
