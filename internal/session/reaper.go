package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// ReaperConfig contains teardown timing. The grace periods let asynchronous
// network activity (keep-alive probes, retries) observe the previous step's
// effect before the next step runs; they are tunable, not correctness-bearing.
type ReaperConfig struct {
	// DisconnectGrace runs after the transport disconnect, before the
	// pipeline task is cancelled. Default 500ms.
	DisconnectGrace time.Duration
	// DrainGrace runs after the task settles, giving fire-and-forget work
	// spawned by the task time to observe the cancellation. Default 200ms.
	DrainGrace time.Duration
	// DisconnectTimeout bounds the transport disconnect call itself.
	DisconnectTimeout time.Duration
	// TaskWaitTimeout bounds the wait for the cancelled task to settle.
	TaskWaitTimeout time.Duration
}

// DefaultReaperConfig returns the stock teardown timing.
func DefaultReaperConfig() ReaperConfig {
	return ReaperConfig{
		DisconnectGrace:   500 * time.Millisecond,
		DrainGrace:        200 * time.Millisecond,
		DisconnectTimeout: 5 * time.Second,
		TaskWaitTimeout:   10 * time.Second,
	}
}

// Reaper tears down superseded session records in the background. Cleanup
// invocations for different records share no mutable state and run
// concurrently; none of them ever blocks the claim path.
type Reaper struct {
	config ReaperConfig
	logger *slog.Logger

	wg sync.WaitGroup

	mu       sync.Mutex
	inflight int

	// onComplete, when set, is called with the teardown duration after each
	// cleanup finishes. Used for metrics.
	onComplete func(d time.Duration)

	// onDisconnectError, when set, is called for every transport disconnect
	// failure or panic. Used for metrics.
	onDisconnectError func()
}

// NewReaper creates a reaper with the given teardown timing.
func NewReaper(logger *slog.Logger, config ReaperConfig) *Reaper {
	return &Reaper{
		config: config,
		logger: logger,
	}
}

// OnComplete installs a completion hook invoked after every cleanup.
func (r *Reaper) OnComplete(fn func(d time.Duration)) {
	r.onComplete = fn
}

// OnDisconnectError installs a hook invoked on every transport disconnect
// failure during cleanup.
func (r *Reaper) OnDisconnectError(fn func()) {
	r.onDisconnectError = fn
}

// Cleanup spawns the teardown of record and returns immediately. The spawned
// work is tracked so Join can wait for it during shutdown.
func (r *Reaper) Cleanup(record *Record) {
	r.mu.Lock()
	r.inflight++
	r.mu.Unlock()

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer func() {
			r.mu.Lock()
			r.inflight--
			r.mu.Unlock()
		}()

		start := time.Now()
		r.cleanup(record)

		if r.onComplete != nil {
			r.onComplete(time.Since(start))
		}
	}()
}

// cleanup runs the teardown steps in order. Every failure is absorbed and
// logged here; nothing propagates to the claim path.
func (r *Reaper) cleanup(record *Record) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("Panic during session cleanup",
				slog.String("client_id", record.ClientID),
				slog.Any("panic", p),
			)
		}
		record.setPhase(PhaseTerminated)
	}()

	r.logger.Info("Cleaning up superseded connection",
		slog.String("client_id", record.ClientID),
		slog.Duration("connection_age", time.Since(record.ConnectedAt)),
	)

	// Disconnect the transport first so no new inbound data arrives on the
	// stale connection during the remaining steps.
	record.setPhase(PhaseTransportClosing)
	r.disconnectTransport(record)

	// Let the transport's keep-alive/retry machinery observe the closure
	// before dependent work is cancelled; cancelling too early risks retries
	// outliving any observer.
	r.sleep(r.config.DisconnectGrace)

	record.setPhase(PhasePipelineCancelling)
	r.settleTask(record)

	// Give fire-and-forget work spawned by the pipeline task time to observe
	// the cancellation and exit cleanly.
	record.setPhase(PhaseDraining)
	r.sleep(r.config.DrainGrace)

	r.logger.Info("Connection cleanup finished",
		slog.String("client_id", record.ClientID),
	)
}

// disconnectTransport absorbs the disconnect step's failures, panics
// included, so the remaining teardown steps always run.
func (r *Reaper) disconnectTransport(record *Record) {
	if record.Transport == nil {
		return
	}

	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("Panic closing superseded transport",
				slog.String("client_id", record.ClientID),
				slog.Any("panic", p),
			)
			r.recordDisconnectError()
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), r.config.DisconnectTimeout)
	defer cancel()

	if err := record.Transport.Disconnect(ctx); err != nil {
		r.logger.Warn("Error closing superseded transport",
			slog.String("client_id", record.ClientID),
			slog.String("error", err.Error()),
		)
		r.recordDisconnectError()
	}
}

func (r *Reaper) recordDisconnectError() {
	if r.onDisconnectError != nil {
		r.onDisconnectError()
	}
}

// settleTask absorbs its own failures the same way, so a panicking task
// handle cannot skip the drain step.
func (r *Reaper) settleTask(record *Record) {
	if record.Task == nil {
		return
	}

	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("Panic settling pipeline task",
				slog.String("client_id", record.ClientID),
				slog.Any("panic", p),
			)
		}
	}()

	if record.Task.Done() {
		return
	}

	record.Task.Cancel()

	ctx, cancel := context.WithTimeout(context.Background(), r.config.TaskWaitTimeout)
	defer cancel()

	err := record.Task.Wait(ctx)
	switch {
	case err == nil:
		// Task finished on its own between the Done check and the wait.
	case errors.Is(err, context.Canceled):
		// Expected outcome of cancelling in-flight work.
	case errors.Is(err, context.DeadlineExceeded):
		r.logger.Warn("Pipeline task did not settle within timeout",
			slog.String("client_id", record.ClientID),
			slog.Duration("timeout", r.config.TaskWaitTimeout),
		)
	default:
		r.logger.Warn("Pipeline task finished with error during cleanup",
			slog.String("client_id", record.ClientID),
			slog.String("error", err.Error()),
		)
	}
}

func (r *Reaper) sleep(d time.Duration) {
	if d > 0 {
		time.Sleep(d)
	}
}

// Outstanding returns the number of cleanups currently in flight.
func (r *Reaper) Outstanding() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.inflight
}

// Join waits for all outstanding cleanups to finish or for the context to
// expire, whichever comes first. A context error means cleanups were
// abandoned, which is acceptable during shutdown.
func (r *Reaper) Join(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
