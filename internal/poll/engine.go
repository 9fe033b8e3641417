package poll

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// ErrAttemptsExceeded is delivered when the resource never reaches a
// terminal state within the configured attempt cap.
var ErrAttemptsExceeded = errors.New("maximum poll attempts exceeded")

// Outcome is the single value an [Engine] delivers on its Done channel.
//
// Exactly one of Value or Err is meaningful: Err is nil when the resource
// reached a terminal state, and Value is the zero value when the engine
// finished with an error. Attempts records how many fetches were issued.
type Outcome[T any] struct {
	Value    T
	Attempts int
	Err      error
}

// Config carries the tunable parameters for an [Engine].
type Config struct {
	// Schedule is the backoff policy between attempts.
	Schedule Schedule

	// MaxAttempts is the hard cap on fetches before the engine gives up
	// with [ErrAttemptsExceeded].
	MaxAttempts int

	// Logger receives debug-level attempt tracing. Must be non-nil.
	Logger *slog.Logger
}

// Engine polls a single resource until it reaches a terminal state, the
// fetch fails, the attempt cap is exhausted, or [Engine.Stop] is called.
//
// The engine runs one logical timeline: at most one fetch is in flight or
// one timer pending at any moment. The outcome is delivered at most once on
// the Done channel, which is then closed; if the engine is stopped first,
// the channel closes without a value.
type Engine[T any] struct {
	fetch       func(ctx context.Context) (T, error)
	terminal    func(T) bool
	schedule    Schedule
	maxAttempts int
	logger      *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	started  bool
	stopped  bool
	finished bool
	attempts int

	done      chan Outcome[T]
	closeOnce sync.Once
}

// New creates an engine that repeatedly calls fetch and stops once terminal
// reports true for a fetched value. The engine is inert until [Engine.Start]
// is called.
func New[T any](fetch func(ctx context.Context) (T, error), terminal func(T) bool, cfg Config) *Engine[T] {
	return &Engine[T]{
		fetch:       fetch,
		terminal:    terminal,
		schedule:    cfg.Schedule,
		maxAttempts: cfg.MaxAttempts,
		logger:      cfg.Logger,
		done:        make(chan Outcome[T], 1),
	}
}

// Done returns the channel the outcome is delivered on. It receives at most
// one value and is closed once the engine has finished or been stopped.
func (e *Engine[T]) Done() <-chan Outcome[T] {
	return e.done
}

// Attempts returns the number of fetches issued so far. The count only
// increases over the engine's lifetime.
func (e *Engine[T]) Attempts() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.attempts
}

// Start launches the polling loop in a background goroutine. The first
// fetch fires immediately, with no initial delay.
//
// If ctx is nil, context.Background() is used as the parent context.
// Start is idempotent; if Stop was called first, Start is a no-op.
func (e *Engine[T]) Start(ctx context.Context) {
	e.mu.Lock()
	if e.started || e.stopped {
		stoppedEarly := e.stopped && !e.started
		e.mu.Unlock()
		if stoppedEarly {
			e.closeOnce.Do(func() { close(e.done) })
		}
		return
	}
	e.started = true
	if ctx == nil {
		ctx = context.Background()
	}
	e.ctx, e.cancel = context.WithCancel(ctx)
	e.mu.Unlock()

	go e.run()
}

// Stop arrests the engine: the pending timer never fires again, no further
// fetch is scheduled, and a fetch already in flight has its result discarded
// silently. Stop is idempotent and safe to call at any point, including
// before Start and after natural completion. It never delivers an outcome.
func (e *Engine[T]) Stop() {
	e.mu.Lock()
	e.stopped = true
	cancel := e.cancel
	started := e.started
	e.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if !started {
		e.closeOnce.Do(func() { close(e.done) })
	}
}

// run is the single polling timeline. All mutations of the attempt counter
// and the finished/stopped flags funnel through beginAttempt and settle,
// which share the engine mutex with Stop.
func (e *Engine[T]) run() {
	defer e.closeOnce.Do(func() { close(e.done) })

	timer := time.NewTimer(0) // first attempt fires immediately
	defer timer.Stop()

	for {
		select {
		case <-e.ctx.Done():
			return
		case <-timer.C:
		}

		attempt, ok := e.beginAttempt()
		if !ok {
			return
		}
		e.logger.Debug("issuing fetch", "attempt", attempt)

		value, err := e.fetch(e.ctx)

		next, ok := e.settle(attempt, value, err)
		if !ok {
			return
		}
		e.logger.Debug("scheduling next fetch", "attempt", attempt, "delay", next.String())
		timer.Reset(next)
	}
}

// beginAttempt increments the poll counter and returns the new count.
// Returns false if the engine was stopped before the fetch could begin.
func (e *Engine[T]) beginAttempt() (int, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stopped {
		return 0, false
	}
	e.attempts++
	return e.attempts, true
}

// settle decides what a completed fetch means, atomically with respect to
// Stop. It returns the delay before the next attempt, or ok=false when the
// engine is finished (outcome delivered) or stopped (result discarded).
func (e *Engine[T]) settle(attempt int, value T, err error) (time.Duration, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.stopped || e.ctx.Err() != nil {
		// a stop raced the fetch; the result must never surface
		return 0, false
	}

	switch {
	case err != nil:
		// hard fetch errors are terminal for the engine, never retried
		e.finished = true
		e.done <- Outcome[T]{Attempts: attempt, Err: err}
		return 0, false
	case e.terminal(value):
		e.finished = true
		e.done <- Outcome[T]{Value: value, Attempts: attempt}
		return 0, false
	case attempt >= e.maxAttempts:
		e.finished = true
		e.done <- Outcome[T]{Attempts: attempt, Err: ErrAttemptsExceeded}
		return 0, false
	}

	return e.schedule.Delay(attempt), true
}
