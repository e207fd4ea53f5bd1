// Package worker runs validation and submission jobs off the request path.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/wastetrack/epr/internal/domain"
)

// ErrInFlight is returned when a job for the same identity is already
// queued or running.
var ErrInFlight = errors.New("a job for this summary log is already in flight")

// ErrQueueFull is returned when the job queue cannot accept more work.
// Dispatch never blocks the caller.
var ErrQueueFull = errors.New("job queue is full")

// ErrStopped is returned by Dispatch after Stop has been called.
var ErrStopped = errors.New("dispatcher is stopped")

// Job is one unit of asynchronous work. The context carries the per-job
// timeout.
type Job func(ctx context.Context) error

// Config sizes the dispatcher. Zero values fall back to defaults.
type Config struct {
	Workers    int           // pool size; defaults to the host's core count
	QueueSize  int           // pending-job bound; defaults to 64
	JobTimeout time.Duration // per-attempt timeout; defaults to 5 minutes
	MaxRetries int           // extra attempts for transient failures; defaults to 2
	RetryDelay time.Duration // pause between attempts; defaults to 1 second
}

func (c Config) withDefaults() Config {
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
	if c.QueueSize <= 0 {
		c.QueueSize = 64
	}
	if c.JobTimeout <= 0 {
		c.JobTimeout = 5 * time.Minute
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	} else if c.MaxRetries == 0 {
		c.MaxRetries = 2
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = time.Second
	}
	return c
}

type task struct {
	id   string
	name string
	job  Job
}

// Dispatcher executes jobs on a fixed goroutine pool with a bounded queue.
// At most one job per identity is in flight at a time; jobs for different
// identities run in parallel up to pool capacity. A job failing with a
// PermanentError is not retried; anything else is retried up to the
// configured attempts. Panics are contained to the job's goroutine.
type Dispatcher struct {
	config   Config
	queue    chan task
	logger   *slog.Logger
	mu       sync.Mutex
	inFlight map[string]bool
	stopped  bool
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// NewDispatcher creates a dispatcher; Start must be called before
// dispatching.
func NewDispatcher(config Config, logger *slog.Logger) *Dispatcher {
	config = config.withDefaults()
	return &Dispatcher{
		config:   config,
		queue:    make(chan task, config.QueueSize),
		logger:   logger,
		inFlight: map[string]bool{},
	}
}

// Start launches the worker pool. Workers run until Stop is called and the
// queue drains.
func (d *Dispatcher) Start(ctx context.Context) {
	for i := 0; i < d.config.Workers; i++ {
		d.wg.Add(1)
		go d.worker(ctx)
	}
}

// Stop closes the queue and waits for in-flight jobs to finish. Jobs are
// never cancelled mid-run; they complete or time out.
func (d *Dispatcher) Stop() {
	d.stopOnce.Do(func() {
		d.mu.Lock()
		d.stopped = true
		d.mu.Unlock()
		close(d.queue)
	})
	d.wg.Wait()
}

// Dispatch enqueues a job for the given identity. It returns immediately:
// ErrStopped after Stop, ErrInFlight if the identity already has a job
// queued or running, ErrQueueFull if the queue has no room.
func (d *Dispatcher) Dispatch(id, name string, job Job) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return ErrStopped
	}
	if d.inFlight[id] {
		return ErrInFlight
	}

	// The send never blocks; the mutex orders it before Stop closes the
	// queue.
	select {
	case d.queue <- task{id: id, name: name, job: job}:
		d.inFlight[id] = true
		return nil
	default:
		return ErrQueueFull
	}
}

func (d *Dispatcher) worker(ctx context.Context) {
	defer d.wg.Done()
	for t := range d.queue {
		d.run(ctx, t)
		d.clear(t.id)
	}
}

func (d *Dispatcher) run(ctx context.Context, t task) {
	attempts := 1 + d.config.MaxRetries
	for attempt := 1; attempt <= attempts; attempt++ {
		err := d.attempt(ctx, t)
		if err == nil {
			return
		}
		if domain.IsPermanent(err) {
			d.logger.Error("job failed permanently",
				"job", t.name, "id", t.id, "attempt", attempt, "error", err)
			return
		}
		d.logger.Warn("job attempt failed",
			"job", t.name, "id", t.id, "attempt", attempt, "error", err)
		if attempt < attempts {
			select {
			case <-time.After(d.config.RetryDelay):
			case <-ctx.Done():
				return
			}
		}
	}
	d.logger.Error("job exhausted retries", "job", t.name, "id", t.id)
}

// attempt runs the job once under the per-job timeout, converting a panic
// into an error so one bad job cannot take down the pool.
func (d *Dispatcher) attempt(ctx context.Context, t task) (err error) {
	jobCtx, cancel := context.WithTimeout(ctx, d.config.JobTimeout)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job panicked: %v", r)
		}
	}()
	return t.job(jobCtx)
}

func (d *Dispatcher) clear(id string) {
	d.mu.Lock()
	delete(d.inFlight, id)
	d.mu.Unlock()
}
