package state

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLockerAdmitsInArrivalOrder(t *testing.T) {
	locks := NewLocker()
	id := SessionID("s")

	release := locks.Lock(id)

	var (
		mu    sync.Mutex
		order []int
		wg    sync.WaitGroup
	)
	for i := 1; i <= 5; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			unlock := locks.Lock(id)
			defer unlock()
			mu.Lock()
			order = append(order, n)
			mu.Unlock()
		}(i)
		want := i
		require.Eventually(t, func() bool { return locks.Waiting(id) == want }, time.Second, time.Millisecond)
	}

	release()
	wg.Wait()

	assert.Equal(t, []int{1, 2, 3, 4, 5}, order)
	assert.Zero(t, locks.Waiting(id))
}

func TestLockerIndependentKeys(t *testing.T) {
	locks := NewLocker()
	holdA := locks.Lock("a")
	defer holdA()

	done := make(chan struct{})
	go func() {
		unlock := locks.Lock("b")
		unlock()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on b blocked behind a")
	}
}

func TestLockerReleaseIdempotent(t *testing.T) {
	locks := NewLocker()
	first := locks.Lock("a")

	acquired := make(chan func())
	go func() { acquired <- locks.Lock("a") }()
	require.Eventually(t, func() bool { return locks.Waiting("a") == 1 }, time.Second, time.Millisecond)

	first()
	second := <-acquired
	first()

	assert.Zero(t, locks.Waiting("a"))
	blocked := make(chan struct{})
	go func() {
		unlock := locks.Lock("a")
		unlock()
		close(blocked)
	}()
	require.Eventually(t, func() bool { return locks.Waiting("a") == 1 }, time.Second, time.Millisecond)
	second()
	<-blocked
}
