// Package sender delivers outbound Bot API calls off the update goroutine.
package sender

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Vladislavbro/tango-bot/core/logger"
	"github.com/Vladislavbro/tango-bot/core/telegram/netutil"
)

const component = "tg.sender"

var (
	// ErrQueueClosed is returned by Enqueue after Close.
	ErrQueueClosed = errors.New("telegram sender: queue closed")
	// ErrQueueFull is returned when the key's shard has no room left.
	ErrQueueFull = errors.New("telegram sender: queue full")

	errNilRun = errors.New("telegram sender: nil run function")
)

// Options size the dispatcher. Zero values take the defaults.
type Options struct {
	// QueueSize is the total capacity, split evenly between workers.
	QueueSize int
	Workers   int
	// MaxRetries counts extra attempts after a transient failure.
	MaxRetries   int
	RetryBackoff time.Duration
	// MaxDuration caps one job including its retries.
	MaxDuration time.Duration
}

func (o Options) withDefaults() Options {
	if o.QueueSize <= 0 {
		o.QueueSize = 256
	}
	if o.Workers <= 0 {
		o.Workers = 4
	}
	o.MaxRetries = max(o.MaxRetries, 0)
	if o.RetryBackoff <= 0 {
		o.RetryBackoff = 2 * time.Second
	}
	if o.MaxDuration <= 0 {
		o.MaxDuration = 12 * time.Second
	}
	return o
}

type job struct {
	ctx      context.Context
	action   string
	endpoint string
	run      func() error
}

func (j job) attrs(extra ...slog.Attr) []slog.Attr {
	attrs := make([]slog.Attr, 0, 2+len(extra))
	attrs = append(attrs, slog.String("action", j.action))
	if j.endpoint != "" {
		attrs = append(attrs, slog.String("endpoint", j.endpoint))
	}
	return append(attrs, extra...)
}

// Dispatcher runs Bot API calls on a fixed set of workers. Every key maps
// to one worker, so calls sharing a key run one at a time in enqueue order.
type Dispatcher struct {
	opts   Options
	shards []chan job
	wg     sync.WaitGroup

	mu     sync.RWMutex
	closed bool
	once   sync.Once

	sent atomic.Uint64
	errs atomic.Uint64
}

// NewDispatcher starts the workers.
func NewDispatcher(opts Options) *Dispatcher {
	opts = opts.withDefaults()
	d := &Dispatcher{opts: opts, shards: make([]chan job, opts.Workers)}
	depth := max(opts.QueueSize/opts.Workers, 1)
	d.wg.Add(opts.Workers)
	for i := range d.shards {
		d.shards[i] = make(chan job, depth)
		go d.work(d.shards[i])
	}
	return d
}

// Enqueue schedules run on the worker that owns key; pass the chat id so one
// chat's replies keep their order. run may be called again after a
// transient failure. Enqueue never blocks.
func (d *Dispatcher) Enqueue(ctx context.Context, key int64, action, endpoint string, run func() error) error {
	if run == nil {
		return errNilRun
	}
	if ctx == nil {
		ctx = context.Background()
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrQueueClosed
	}
	select {
	case d.shard(key) <- job{ctx: ctx, action: action, endpoint: endpoint, run: run}:
		return nil
	default:
		return ErrQueueFull
	}
}

// SentCount returns how many jobs eventually succeeded.
func (d *Dispatcher) SentCount() uint64 { return d.sent.Load() }

// ErrorCount returns how many jobs were given up on.
func (d *Dispatcher) ErrorCount() uint64 { return d.errs.Load() }

// Pending returns the number of jobs waiting for a worker.
func (d *Dispatcher) Pending() int {
	n := 0
	for _, ch := range d.shards {
		n += len(ch)
	}
	return n
}

// Close refuses new jobs, drains the queued ones and waits for the workers.
// Later calls return immediately.
func (d *Dispatcher) Close() {
	d.once.Do(func() {
		d.mu.Lock()
		d.closed = true
		for _, ch := range d.shards {
			close(ch)
		}
		d.mu.Unlock()
		d.wg.Wait()
	})
}

func (d *Dispatcher) shard(key int64) chan job {
	i := key % int64(len(d.shards))
	if i < 0 {
		i = -i
	}
	return d.shards[i]
}

func (d *Dispatcher) work(jobs <-chan job) {
	defer d.wg.Done()
	for j := range jobs {
		d.deliver(j)
	}
}

func (d *Dispatcher) deliver(j job) {
	ctx, cancel := context.WithTimeout(j.ctx, d.opts.MaxDuration)
	defer cancel()

	start := time.Now()
	attempts, err := d.attempt(ctx, j)
	elapsed := slog.Duration("elapsed", logger.RoundMS(time.Since(start)))
	if err != nil {
		d.errs.Add(1)
		logger.Error(j.ctx, component, "send.fail", j.attrs(
			slog.String("error", sanitizeErrorMessage(err)),
			slog.String("error_kind", classifyError(err)),
			slog.Int("attempts", attempts),
			elapsed,
		)...)
		return
	}
	d.sent.Add(1)
	if attempts > 1 {
		logger.Info(j.ctx, component, "send.retry.success", j.attrs(slog.Int("attempt", attempts), elapsed)...)
		return
	}
	logger.Debug(j.ctx, component, "send.success", j.attrs(elapsed)...)
}

// attempt calls j.run until it succeeds, fails for good, runs out of
// retries or ctx ends, and returns how many calls were made. A flood wait
// longer than the backoff replaces it.
func (d *Dispatcher) attempt(ctx context.Context, j job) (int, error) {
	limit := d.opts.MaxRetries + 1
	for n := 1; ; n++ {
		if err := ctx.Err(); err != nil {
			return n - 1, err
		}
		err := j.run()
		if err == nil {
			return n, nil
		}
		wait, flood := retryAfter(err)
		if n == limit || !(flood || netutil.ShouldRetry(err)) {
			return n, err
		}
		wait = max(wait, netutil.Backoff(d.opts.RetryBackoff, n, d.opts.MaxDuration))
		logger.Debug(ctx, component, "send.retry.backoff", j.attrs(
			slog.Int("attempt", n),
			slog.Duration("delay", wait),
			slog.String("err_kind", classifyError(err)),
		)...)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return n, ctx.Err()
		case <-timer.C:
		}
	}
}
