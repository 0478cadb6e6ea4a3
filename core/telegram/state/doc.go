// Package state provides the per-conversation runtime for Telegram bots:
// an in-memory session store, a FIFO per-session lock and an idle-timeout
// supervisor. It knows nothing about the conversations it hosts.
package state
