package worker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/wastetrack/epr/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig() Config {
	return Config{Workers: 2, QueueSize: 8, JobTimeout: time.Second, MaxRetries: 2, RetryDelay: 5 * time.Millisecond}
}

func TestDispatchRunsJob(t *testing.T) {
	d := NewDispatcher(testConfig(), testLogger())
	d.Start(context.Background())

	done := make(chan struct{})
	err := d.Dispatch("log-1", "validate", func(context.Context) error {
		close(done)
		return nil
	})
	if err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("job never ran")
	}
	d.Stop()
}

func TestDispatchDeduplicatesPerIdentity(t *testing.T) {
	d := NewDispatcher(testConfig(), testLogger())
	d.Start(context.Background())
	defer d.Stop()

	release := make(chan struct{})
	started := make(chan struct{})
	err := d.Dispatch("log-1", "validate", func(context.Context) error {
		close(started)
		<-release
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	<-started

	if err := d.Dispatch("log-1", "validate", func(context.Context) error { return nil }); !errors.Is(err, ErrInFlight) {
		t.Errorf("expected ErrInFlight for the same identity, got %v", err)
	}

	other := make(chan struct{})
	if err := d.Dispatch("log-2", "validate", func(context.Context) error {
		close(other)
		return nil
	}); err != nil {
		t.Errorf("a different identity should dispatch freely, got %v", err)
	}
	select {
	case <-other:
	case <-time.After(time.Second):
		t.Error("cross-identity job did not run in parallel")
	}

	close(release)
}

func TestIdentityFreedAfterCompletion(t *testing.T) {
	d := NewDispatcher(testConfig(), testLogger())
	d.Start(context.Background())
	defer d.Stop()

	var runs atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		job := func(context.Context) error {
			runs.Add(1)
			wg.Done()
			return nil
		}
		// The identity is cleared just after the job returns; allow for that
		// small window when re-dispatching.
		deadline := time.Now().Add(time.Second)
		for {
			err := d.Dispatch("log-1", "validate", job)
			if err == nil {
				break
			}
			if !errors.Is(err, ErrInFlight) || time.Now().After(deadline) {
				t.Fatalf("dispatch %d failed: %v", i, err)
			}
			time.Sleep(time.Millisecond)
		}
		wg.Wait()
	}
	if runs.Load() != 2 {
		t.Errorf("expected both sequential dispatches to run, got %d", runs.Load())
	}
}

func TestPermanentErrorIsNotRetried(t *testing.T) {
	d := NewDispatcher(testConfig(), testLogger())
	d.Start(context.Background())

	var attempts atomic.Int32
	if err := d.Dispatch("log-1", "submit", func(context.Context) error {
		attempts.Add(1)
		return domain.NewPermanentError("not in submitting status", nil)
	}); err != nil {
		t.Fatal(err)
	}
	d.Stop()

	if attempts.Load() != 1 {
		t.Errorf("permanent failure must not retry, got %d attempts", attempts.Load())
	}
}

func TestTransientErrorIsRetried(t *testing.T) {
	d := NewDispatcher(testConfig(), testLogger())
	d.Start(context.Background())

	var attempts atomic.Int32
	if err := d.Dispatch("log-1", "validate", func(context.Context) error {
		if attempts.Add(1) < 3 {
			return errors.New("connection reset")
		}
		return nil
	}); err != nil {
		t.Fatal(err)
	}
	d.Stop()

	if attempts.Load() != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts.Load())
	}
}

func TestPanicIsContainedAndRetried(t *testing.T) {
	d := NewDispatcher(testConfig(), testLogger())
	d.Start(context.Background())

	var attempts atomic.Int32
	if err := d.Dispatch("log-1", "validate", func(context.Context) error {
		if attempts.Add(1) == 1 {
			panic("boom")
		}
		return nil
	}); err != nil {
		t.Fatal(err)
	}
	d.Stop()

	if attempts.Load() != 2 {
		t.Errorf("a panicking job should be retried like a transient failure, got %d attempts", attempts.Load())
	}
}

func TestJobTimeoutExpiresContext(t *testing.T) {
	config := testConfig()
	config.JobTimeout = 20 * time.Millisecond
	config.MaxRetries = -1
	d := NewDispatcher(config, testLogger())
	d.Start(context.Background())

	timedOut := make(chan bool, 1)
	if err := d.Dispatch("log-1", "validate", func(ctx context.Context) error {
		select {
		case <-ctx.Done():
			timedOut <- true
		case <-time.After(time.Second):
			timedOut <- false
		}
		return ctx.Err()
	}); err != nil {
		t.Fatal(err)
	}
	d.Stop()

	if !<-timedOut {
		t.Error("job context should expire at the configured timeout")
	}
}

func TestDispatchQueueFull(t *testing.T) {
	config := testConfig()
	config.Workers = 1
	config.QueueSize = 1
	d := NewDispatcher(config, testLogger())
	d.Start(context.Background())
	defer d.Stop()

	release := make(chan struct{})
	started := make(chan struct{})
	// Occupy the only worker, then fill the single queue slot.
	if err := d.Dispatch("busy", "validate", func(context.Context) error {
		close(started)
		<-release
		return nil
	}); err != nil {
		t.Fatal(err)
	}
	<-started
	if err := d.Dispatch("queued", "validate", func(context.Context) error { return nil }); err != nil {
		t.Fatal(err)
	}

	err := d.Dispatch("rejected", "validate", func(context.Context) error { return nil })
	if !errors.Is(err, ErrQueueFull) {
		t.Errorf("expected ErrQueueFull, got %v", err)
	}

	// A rejected dispatch must not leave its identity marked in flight.
	d.mu.Lock()
	stuck := d.inFlight["rejected"]
	d.mu.Unlock()
	if stuck {
		t.Error("rejected identity should be cleared")
	}

	close(release)
}

func TestDispatchAfterStopIsRejected(t *testing.T) {
	d := NewDispatcher(testConfig(), testLogger())
	d.Start(context.Background())
	d.Stop()

	err := d.Dispatch("log-1", "validate", func(context.Context) error { return nil })
	if !errors.Is(err, ErrStopped) {
		t.Fatalf("expected ErrStopped, got %v", err)
	}

	d.mu.Lock()
	stuck := d.inFlight["log-1"]
	d.mu.Unlock()
	if stuck {
		t.Error("a rejected dispatch must not leave its identity in flight")
	}
}
