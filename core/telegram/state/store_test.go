package state

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testSession struct {
	ID    SessionID
	State State
	Note  string
}

func newTestStore() *Store[testSession] {
	return NewStore(func(id SessionID) testSession {
		return testSession{ID: id, State: StateIdle}
	})
}

func TestStoreCreateOverwrites(t *testing.T) {
	store := newTestStore()
	id := KeyFor(10, 20)

	created := store.Create(id)
	assert.Equal(t, id, created.ID)
	require.True(t, store.Update(id, func(s *testSession) { s.Note = "first" }))

	again := store.Create(id)
	assert.Empty(t, again.Note)

	got, ok := store.Get(id)
	require.True(t, ok)
	assert.Empty(t, got.Note)
	assert.Equal(t, 1, store.Len())
}

func TestStoreGetReturnsCopy(t *testing.T) {
	store := newTestStore()
	id := SessionID("a")
	store.Create(id)

	got, _ := store.Get(id)
	got.Note = "changed outside"

	fresh, _ := store.Get(id)
	assert.Empty(t, fresh.Note)
}

func TestStoreUpdateMissing(t *testing.T) {
	store := newTestStore()
	called := false

	ok := store.Update("missing", func(*testSession) { called = true })

	assert.False(t, ok)
	assert.False(t, called)
}

func TestStoreDelete(t *testing.T) {
	store := newTestStore()
	store.Create("a")

	assert.True(t, store.Delete("a"))
	assert.False(t, store.Delete("a"))
	_, ok := store.Get("a")
	assert.False(t, ok)
	assert.Zero(t, store.Len())
}

func TestStoreConcurrentUpdates(t *testing.T) {
	store := NewStore(func(id SessionID) int { return 0 })
	store.Create("counter")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			store.Update("counter", func(n *int) { *n++ })
		}()
	}
	wg.Wait()

	n, _ := store.Get("counter")
	assert.Equal(t, 50, n)
}

func TestKeyFor(t *testing.T) {
	assert.Equal(t, SessionID("-100:42"), KeyFor(-100, 42))
	assert.True(t, StateEnded.Terminal())
	assert.False(t, StateIdle.Terminal())
}
