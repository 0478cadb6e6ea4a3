package audit

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Vladislavbro/tango-bot/core/logger"
	"github.com/Vladislavbro/tango-bot/internal/booking"
)

const component = "audit"

// Options configure a Journal.
type Options struct {
	// QueueSize bounds buffered entries; defaults to 256.
	QueueSize int
	// BatchSize caps entries per insert; defaults to 32.
	BatchSize int
	// WriteTimeout bounds a single insert; defaults to 5s.
	WriteTimeout time.Duration
}

// Journal writes transition records asynchronously. Record never blocks:
// when the queue is full the record is dropped and counted.
type Journal struct {
	store   Store
	queue   chan Entry
	batch   int
	timeout time.Duration

	mu     sync.RWMutex
	closed bool
	done   chan struct{}

	written atomic.Uint64
	dropped atomic.Uint64
	failed  atomic.Uint64
}

var _ booking.Recorder = (*Journal)(nil)

// NewJournal starts the writer goroutine.
func NewJournal(store Store, opts Options) *Journal {
	if opts.QueueSize <= 0 {
		opts.QueueSize = 256
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 32
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 5 * time.Second
	}
	j := &Journal{
		store:   store,
		queue:   make(chan Entry, opts.QueueSize),
		batch:   opts.BatchSize,
		timeout: opts.WriteTimeout,
		done:    make(chan struct{}),
	}
	go j.run()
	return j
}

// Record queues rec for writing.
func (j *Journal) Record(ctx context.Context, rec booking.TransitionRecord) {
	entry := Entry{
		SessionID:  string(rec.SessionID),
		EventKind:  rec.Kind.String(),
		Token:      string(rec.Token),
		FromState:  string(rec.From),
		ToState:    string(rec.To),
		OccurredAt: rec.At.UTC(),
	}

	j.mu.RLock()
	defer j.mu.RUnlock()
	if j.closed {
		j.dropped.Add(1)
		return
	}
	select {
	case j.queue <- entry:
	default:
		n := j.dropped.Add(1)
		logger.Warn(ctx, component, "journal.drop",
			slog.String("status", "dropped"),
			slog.Uint64("dropped", n),
			slog.Int("queue", cap(j.queue)),
		)
	}
}

// Close stops accepting records and waits for queued ones to be written
// or for ctx to end.
func (j *Journal) Close(ctx context.Context) error {
	j.mu.Lock()
	if !j.closed {
		j.closed = true
		close(j.queue)
	}
	j.mu.Unlock()

	select {
	case <-j.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Written returns the number of stored entries.
func (j *Journal) Written() uint64 { return j.written.Load() }

// Dropped returns the number of records discarded because the queue was full or closed.
func (j *Journal) Dropped() uint64 { return j.dropped.Load() }

// Failed returns the number of entries lost to store errors.
func (j *Journal) Failed() uint64 { return j.failed.Load() }

func (j *Journal) run() {
	defer close(j.done)
	buf := make([]Entry, 0, j.batch)
	for entry := range j.queue {
		buf = append(buf[:0], entry)
	drain:
		for len(buf) < j.batch {
			select {
			case next, ok := <-j.queue:
				if !ok {
					break drain
				}
				buf = append(buf, next)
			default:
				break drain
			}
		}
		j.flush(buf)
	}
}

func (j *Journal) flush(entries []Entry) {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	start := time.Now()
	if err := j.store.Insert(ctx, entries); err != nil {
		j.failed.Add(uint64(len(entries)))
		logger.Error(ctx, component, "journal.write",
			slog.String("status", "error"),
			slog.Int("entries", len(entries)),
			slog.Any("err", err),
		)
		return
	}
	j.written.Add(uint64(len(entries)))
	logger.Debug(ctx, component, "journal.write",
		slog.Int("entries", len(entries)),
		slog.Duration("duration", logger.RoundMS(time.Since(start))),
	)
}
