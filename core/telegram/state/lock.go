package state

import "sync"

// Locker serializes work per SessionID. Waiters are admitted strictly in the
// order they called Lock, so events for one session apply in arrival order.
type Locker struct {
	mu     sync.Mutex
	queues map[SessionID][]chan struct{}
}

// NewLocker constructs an empty Locker.
func NewLocker() *Locker {
	return &Locker{queues: make(map[SessionID][]chan struct{})}
}

// Lock blocks until the caller holds the lock for id and returns the release func.
// The release func is safe to call more than once.
func (l *Locker) Lock(id SessionID) func() {
	turn := make(chan struct{})

	l.mu.Lock()
	queue := l.queues[id]
	l.queues[id] = append(queue, turn)
	if len(queue) == 0 {
		close(turn)
	}
	l.mu.Unlock()

	<-turn

	var once sync.Once
	return func() {
		once.Do(func() { l.unlock(id) })
	}
}

func (l *Locker) unlock(id SessionID) {
	l.mu.Lock()
	defer l.mu.Unlock()

	queue := l.queues[id]
	if len(queue) <= 1 {
		delete(l.queues, id)
		return
	}
	queue = queue[1:]
	l.queues[id] = queue
	close(queue[0])
}

// Waiting returns how many callers are queued behind the current holder of id.
func (l *Locker) Waiting(id SessionID) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	n := len(l.queues[id])
	if n == 0 {
		return 0
	}
	return n - 1
}
