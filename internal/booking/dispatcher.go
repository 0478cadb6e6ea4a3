package booking

import (
	"context"
	"log/slog"
	"runtime/debug"
	"sync/atomic"
	"time"

	"github.com/Vladislavbro/tango-bot/core/logger"
	"github.com/Vladislavbro/tango-bot/core/telegram/state"
)

const component = "booking"

// TransitionRecord describes one applied transition. It carries no personal data.
type TransitionRecord struct {
	SessionID state.SessionID
	Kind      EventKind
	Token     Token
	From      state.State
	To        state.State
	Slot      Slot
	At        time.Time
}

// Recorder receives applied transitions. Record must not block.
type Recorder interface {
	Record(ctx context.Context, rec TransitionRecord)
}

// Options configure a Dispatcher.
type Options struct {
	// IdleTimeout ends sessions without activity; <= 0 uses state.DefaultIdleTimeout.
	IdleTimeout time.Duration
	Recorder    Recorder
	// Now overrides the clock used for activity stamps.
	Now func() time.Time
}

// Reply is what the adapter needs after an event was processed.
type Reply struct {
	Messages []Message
	From     state.State
	To       state.State
	// Fallback is set when the event did not match any rule.
	Fallback bool
	// Ended is set when the session was destroyed by this event.
	Ended bool
}

// Dispatcher applies events to sessions, one transition per session at a time.
type Dispatcher struct {
	sessions   *state.Store[Session]
	locks      *state.Locker
	timeouts   *state.Supervisor
	recorder   Recorder
	now        func() time.Time
	transition func(Session, Event) Result
	closed     atomic.Bool
}

// NewDispatcher builds a Dispatcher and its idle supervisor.
func NewDispatcher(opts Options) *Dispatcher {
	d := &Dispatcher{
		sessions:   state.NewStore(newSession),
		locks:      state.NewLocker(),
		recorder:   opts.Recorder,
		now:        opts.Now,
		transition: Apply,
	}
	if d.now == nil {
		d.now = time.Now
	}
	d.timeouts = state.NewSupervisor(opts.IdleTimeout, d.expire)
	return d
}

// IdleTimeout returns the effective inactivity threshold.
func (d *Dispatcher) IdleTimeout() time.Duration {
	return d.timeouts.Idle()
}

// Dispatch applies ev to the session id and returns the replies to deliver.
// Events for the same id are applied in the order Dispatch was entered.
func (d *Dispatcher) Dispatch(ctx context.Context, id state.SessionID, ev Event) (Reply, error) {
	ctx = logger.WithSession(ctx, string(id))
	if err := ev.Validate(); err != nil {
		logger.Warn(ctx, component, "event.malformed",
			slog.String("event_kind", ev.Kind.String()),
			slog.String("token", string(ev.Token)),
			slog.Any("err", err),
		)
		return Reply{}, err
	}
	if d.closed.Load() {
		return Reply{}, ErrClosed
	}

	release := d.locks.Lock(id)
	defer release()

	current, exists := d.sessions.Get(id)
	if !exists {
		current = newSession(id)
	}
	if ev.Kind == EventTimeout {
		if !exists {
			logger.Debug(ctx, component, "timeout.absent")
			return Reply{From: StateIdle, To: StateIdle}, nil
		}
		if idle := d.now().Sub(current.LastActivity); idle < d.timeouts.Idle() {
			logger.Debug(ctx, component, "timeout.stale",
				slog.String("outcome", "stale"),
				slog.Duration("idle", idle),
			)
			return Reply{From: current.State, To: current.State}, nil
		}
	}

	res, err := d.apply(current, ev)
	if err != nil {
		d.sessions.Delete(id)
		d.timeouts.Cancel(id)
		logger.Error(ctx, component, "transition.panic",
			slog.String("from_state", string(current.State)),
			slog.String("event_kind", ev.Kind.String()),
			slog.Any("err", err),
		)
		return Reply{From: current.State, To: StateEnded, Ended: true}, err
	}

	reply := Reply{
		Messages: res.Messages,
		From:     current.State,
		To:       res.Session.State,
		Fallback: res.Fallback,
	}
	if res.Fallback {
		logger.Debug(ctx, component, "transition.fallback",
			slog.String("from_state", string(current.State)),
			slog.String("event_kind", ev.Kind.String()),
			slog.String("token", string(ev.Token)),
			slog.String("outcome", "fallback"),
		)
		return reply, nil
	}

	next := res.Session
	switch {
	case next.State.Terminal():
		d.sessions.Delete(id)
		d.timeouts.Cancel(id)
		reply.Ended = true
	case next.State == StateIdle:
		// nothing to keep
	default:
		next.LastActivity = d.now()
		if !exists || ev.Kind == EventStart {
			d.sessions.Create(id)
		}
		d.sessions.Update(id, func(s *Session) { *s = next })
		d.timeouts.Schedule(id)
	}

	d.log(ctx, current, next, ev)
	if d.recorder != nil {
		d.recorder.Record(ctx, TransitionRecord{
			SessionID: id,
			Kind:      ev.Kind,
			Token:     ev.Token,
			From:      current.State,
			To:        next.State,
			Slot:      next.Slot,
			At:        d.now(),
		})
	}
	return reply, nil
}

// Session returns a copy of the live session for id.
func (d *Dispatcher) Session(id state.SessionID) (Session, bool) {
	return d.sessions.Get(id)
}

// ActiveSessions returns the number of live sessions.
func (d *Dispatcher) ActiveSessions() int {
	return d.sessions.Len()
}

// PendingTimeouts returns the number of armed idle checks.
func (d *Dispatcher) PendingTimeouts() int {
	return d.timeouts.Len()
}

// Close stops the idle supervisor. Later Dispatch calls fail with ErrClosed.
func (d *Dispatcher) Close() {
	if d.closed.Swap(true) {
		return
	}
	d.timeouts.Stop()
}

func (d *Dispatcher) apply(s Session, ev Event) (res Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &TransitionPanicError{Value: r, Stack: debug.Stack()}
		}
	}()
	return d.transition(s, ev), nil
}

func (d *Dispatcher) expire(id state.SessionID) {
	ctx := logger.WithSession(context.Background(), string(id))
	reply, err := d.Dispatch(ctx, id, Event{Kind: EventTimeout})
	if err != nil {
		logger.Warn(ctx, component, "timeout.failed", slog.Any("err", err))
		return
	}
	if reply.Ended {
		logger.Info(ctx, component, "session.expired",
			slog.String("from_state", string(reply.From)),
			slog.Duration("idle", d.timeouts.Idle()),
		)
	}
}

func (d *Dispatcher) log(ctx context.Context, from, to Session, ev Event) {
	attrs := []slog.Attr{
		slog.String("from_state", string(from.State)),
		slog.String("to_state", string(to.State)),
		slog.String("event_kind", ev.Kind.String()),
	}
	if ev.Token != "" {
		attrs = append(attrs, slog.String("token", string(ev.Token)))
	}
	if to.State == StatePostConfirmation && from.State != StatePostConfirmation {
		attrs = append(attrs, slog.String("slot", to.Slot.String()))
		logger.Info(ctx, component, "booking.confirmed", attrs...)
		return
	}
	logger.Debug(ctx, component, "transition.applied", attrs...)
}
