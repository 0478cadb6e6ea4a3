package state

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Vladislavbro/tango-bot/core/logger"
)

// DefaultIdleTimeout is used when a Supervisor is built with a non-positive timeout.
const DefaultIdleTimeout = 300 * time.Second

// ExpireFunc is invoked once a session stayed idle for the whole timeout.
type ExpireFunc func(id SessionID)

type idleTimer struct {
	timer *time.Timer
	gen   uint64
}

// Supervisor tracks per-session inactivity and reports sessions that exceed
// the idle timeout. A timer that was rescheduled or cancelled never fires.
type Supervisor struct {
	mu       sync.Mutex
	idle     time.Duration
	timers   map[SessionID]idleTimer
	gen      uint64
	stopped  bool
	onExpire ExpireFunc
}

// NewSupervisor builds a Supervisor calling onExpire for idle sessions.
func NewSupervisor(idle time.Duration, onExpire ExpireFunc) *Supervisor {
	if idle <= 0 {
		idle = DefaultIdleTimeout
	}
	return &Supervisor{
		idle:     idle,
		timers:   make(map[SessionID]idleTimer),
		onExpire: onExpire,
	}
}

// Idle returns the configured inactivity threshold.
func (s *Supervisor) Idle() time.Duration {
	return s.idle
}

// Schedule (re)arms the idle check for id, replacing a pending one.
func (s *Supervisor) Schedule(id SessionID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}

	if prev, ok := s.timers[id]; ok {
		prev.timer.Stop()
	}
	s.gen++
	gen := s.gen
	s.timers[id] = idleTimer{
		timer: time.AfterFunc(s.idle, func() { s.fire(id, gen) }),
		gen:   gen,
	}
}

// Cancel drops the pending idle check for id, if any.
func (s *Supervisor) Cancel(id SessionID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, ok := s.timers[id]; ok {
		prev.timer.Stop()
		delete(s.timers, id)
	}
}

// Pending reports whether an idle check is armed for id.
func (s *Supervisor) Pending(id SessionID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.timers[id]
	return ok
}

// Len returns the number of armed idle checks.
func (s *Supervisor) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// Stop cancels every pending check. Schedule is a no-op afterwards.
func (s *Supervisor) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopped = true
	for id, t := range s.timers {
		t.timer.Stop()
		delete(s.timers, id)
	}
}

func (s *Supervisor) fire(id SessionID, gen uint64) {
	s.mu.Lock()
	current, ok := s.timers[id]
	if !ok || current.gen != gen {
		s.mu.Unlock()
		return
	}
	delete(s.timers, id)
	s.mu.Unlock()

	logger.Debug(context.Background(), "state.timeout", "timeout.fired",
		slog.String("session_id", string(id)),
		slog.Duration("idle", s.idle),
	)
	if s.onExpire != nil {
		s.onExpire(id)
	}
}
