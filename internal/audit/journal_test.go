package audit

import (
	"context"
	"errors"
	"io/fs"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Vladislavbro/tango-bot/internal/booking"
)

type memStore struct {
	mu      sync.Mutex
	entries []Entry
	batches int
	err     error
	block   chan struct{}
}

func (s *memStore) Insert(_ context.Context, entries []Entry) error {
	if s.block != nil {
		<-s.block
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batches++
	if s.err != nil {
		return s.err
	}
	s.entries = append(s.entries, entries...)
	return nil
}

func (s *memStore) snapshot() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Entry(nil), s.entries...)
}

func record(n int) booking.TransitionRecord {
	return booking.TransitionRecord{
		SessionID: "1:2",
		Kind:      booking.EventButton,
		Token:     booking.TokenSlotFriday,
		From:      booking.StateAwaitingSlotChoice,
		To:        booking.StatePostConfirmation,
		Slot:      booking.SlotFriday1800,
		At:        time.Date(2026, 3, 6, 12, n, 0, 0, time.FixedZone("x", 3600)),
	}
}

func TestJournalWritesInOrder(t *testing.T) {
	store := &memStore{}
	j := NewJournal(store, Options{BatchSize: 4})

	for i := 0; i < 10; i++ {
		j.Record(context.Background(), record(i))
	}
	require.NoError(t, j.Close(context.Background()))

	entries := store.snapshot()
	require.Len(t, entries, 10)
	for i, e := range entries {
		assert.Equal(t, i, e.OccurredAt.Minute())
		assert.Equal(t, time.UTC, e.OccurredAt.Location())
	}
	first := entries[0]
	assert.Equal(t, "1:2", first.SessionID)
	assert.Equal(t, "button", first.EventKind)
	assert.Equal(t, "slot_friday", first.Token)
	assert.Equal(t, string(booking.StateAwaitingSlotChoice), first.FromState)
	assert.Equal(t, string(booking.StatePostConfirmation), first.ToState)
	assert.Equal(t, uint64(10), j.Written())
	assert.Zero(t, j.Dropped())
}

func TestJournalDropsWhenFull(t *testing.T) {
	store := &memStore{block: make(chan struct{})}
	j := NewJournal(store, Options{QueueSize: 1, BatchSize: 1})

	// The writer picks up the first record and blocks in Insert.
	j.Record(context.Background(), record(0))
	require.Eventually(t, func() bool { return len(j.queue) == 0 }, time.Second, time.Millisecond)
	j.Record(context.Background(), record(1))
	j.Record(context.Background(), record(2))

	assert.Equal(t, uint64(1), j.Dropped())
	close(store.block)
	require.NoError(t, j.Close(context.Background()))
	assert.Len(t, store.snapshot(), 2)
}

func TestJournalCountsStoreFailures(t *testing.T) {
	store := &memStore{err: errors.New("relation does not exist")}
	j := NewJournal(store, Options{})

	j.Record(context.Background(), record(0))
	require.NoError(t, j.Close(context.Background()))

	assert.Equal(t, uint64(1), j.Failed())
	assert.Zero(t, j.Written())
}

func TestJournalRecordAfterClose(t *testing.T) {
	j := NewJournal(&memStore{}, Options{})
	require.NoError(t, j.Close(context.Background()))
	require.NoError(t, j.Close(context.Background()))

	assert.NotPanics(t, func() { j.Record(context.Background(), record(0)) })
	assert.Equal(t, uint64(1), j.Dropped())
}

func TestJournalCloseHonoursContext(t *testing.T) {
	store := &memStore{block: make(chan struct{})}
	defer close(store.block)
	j := NewJournal(store, Options{})
	j.Record(context.Background(), record(0))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, j.Close(ctx), context.DeadlineExceeded)
}

func TestMigrationsEmbedded(t *testing.T) {
	names, err := fs.Glob(Migrations, MigrationsDir+"/*.up.sql")
	require.NoError(t, err)
	assert.Equal(t, []string{"migrations/0001_transitions.up.sql"}, names)
}
