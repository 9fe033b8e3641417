package poll

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// testLogger returns a logger that discards all output for clean test output.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fastConfig returns an engine config with compressed delays for tests.
func fastConfig(maxAttempts int) Config {
	return Config{
		Schedule:    Schedule{Initial: time.Millisecond, Flat: 2, Max: 5 * time.Millisecond},
		MaxAttempts: maxAttempts,
		Logger:      testLogger(),
	}
}

// waitOutcome receives the engine outcome or fails the test on timeout.
// The second return value reports whether a value was delivered before the
// channel closed.
func waitOutcome(t *testing.T, e *Engine[string]) (Outcome[string], bool) {
	t.Helper()
	select {
	case out, ok := <-e.Done():
		return out, ok
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for engine outcome")
		return Outcome[string]{}, false
	}
}

// TestEngine_TerminalShortCircuit verifies that a first fetch returning a
// terminal value delivers the outcome after exactly one attempt and that no
// second fetch is ever issued.
func TestEngine_TerminalShortCircuit(t *testing.T) {
	var calls atomic.Int32
	fetch := func(ctx context.Context) (string, error) {
		calls.Add(1)
		return "done", nil
	}
	terminal := func(v string) bool { return v == "done" }

	e := New(fetch, terminal, fastConfig(10))
	e.Start(context.Background())

	out, ok := waitOutcome(t, e)
	if !ok {
		t.Fatal("channel closed without an outcome")
	}
	if out.Err != nil {
		t.Fatalf("Err = %v, want nil", out.Err)
	}
	if out.Value != "done" {
		t.Errorf("Value = %q, want %q", out.Value, "done")
	}
	if out.Attempts != 1 {
		t.Errorf("Attempts = %d, want 1", out.Attempts)
	}

	// no further fetch may be scheduled after delivery
	time.Sleep(20 * time.Millisecond)
	if n := calls.Load(); n != 1 {
		t.Errorf("fetch called %d times, want 1", n)
	}
}

// TestEngine_ImmediateFirstAttempt verifies that the first fetch fires
// without waiting for a backoff interval, even with a long initial delay.
func TestEngine_ImmediateFirstAttempt(t *testing.T) {
	fetched := make(chan struct{}, 1)
	fetch := func(ctx context.Context) (string, error) {
		fetched <- struct{}{}
		return "done", nil
	}

	cfg := Config{
		Schedule:    Schedule{Initial: time.Hour, Flat: 5, Max: time.Hour},
		MaxAttempts: 10,
		Logger:      testLogger(),
	}
	e := New(fetch, func(v string) bool { return true }, cfg)
	e.Start(context.Background())
	defer e.Stop()

	select {
	case <-fetched:
	case <-time.After(time.Second):
		t.Fatal("first fetch did not fire immediately")
	}
}

// TestEngine_NonTerminalProgression verifies that a resource pending for k
// fetches then terminal on fetch k+1 results in exactly k+1 attempts and a
// single delivery with the terminal value.
func TestEngine_NonTerminalProgression(t *testing.T) {
	const k = 4

	var calls atomic.Int32
	fetch := func(ctx context.Context) (string, error) {
		if int(calls.Add(1)) <= k {
			return "pending", nil
		}
		return "done", nil
	}
	terminal := func(v string) bool { return v == "done" }

	e := New(fetch, terminal, fastConfig(20))
	e.Start(context.Background())

	out, ok := waitOutcome(t, e)
	if !ok {
		t.Fatal("channel closed without an outcome")
	}
	if out.Value != "done" || out.Err != nil {
		t.Fatalf("outcome = (%q, %v), want (done, nil)", out.Value, out.Err)
	}
	if out.Attempts != k+1 {
		t.Errorf("Attempts = %d, want %d", out.Attempts, k+1)
	}
	if n := calls.Load(); n != k+1 {
		t.Errorf("fetch called %d times, want %d", n, k+1)
	}
}

// TestEngine_AttemptCap verifies that a permanently pending resource is
// fetched exactly MaxAttempts times before ErrAttemptsExceeded is delivered,
// and that no further fetch occurs afterwards.
func TestEngine_AttemptCap(t *testing.T) {
	const maxAttempts = 5

	var calls atomic.Int32
	fetch := func(ctx context.Context) (string, error) {
		calls.Add(1)
		return "pending", nil
	}
	terminal := func(v string) bool { return false }

	e := New(fetch, terminal, fastConfig(maxAttempts))
	e.Start(context.Background())

	out, ok := waitOutcome(t, e)
	if !ok {
		t.Fatal("channel closed without an outcome")
	}
	if !errors.Is(out.Err, ErrAttemptsExceeded) {
		t.Fatalf("Err = %v, want ErrAttemptsExceeded", out.Err)
	}
	if out.Attempts != maxAttempts {
		t.Errorf("Attempts = %d, want %d", out.Attempts, maxAttempts)
	}

	time.Sleep(20 * time.Millisecond)
	if n := calls.Load(); n != maxAttempts {
		t.Errorf("fetch called %d times, want exactly %d", n, maxAttempts)
	}
}

// TestEngine_FetchErrorIsTerminal verifies that a hard fetch error ends
// polling immediately with that error, without a retry.
func TestEngine_FetchErrorIsTerminal(t *testing.T) {
	fetchErr := errors.New("boom")

	var calls atomic.Int32
	fetch := func(ctx context.Context) (string, error) {
		calls.Add(1)
		return "", fetchErr
	}

	e := New(fetch, func(v string) bool { return false }, fastConfig(10))
	e.Start(context.Background())

	out, ok := waitOutcome(t, e)
	if !ok {
		t.Fatal("channel closed without an outcome")
	}
	if !errors.Is(out.Err, fetchErr) {
		t.Fatalf("Err = %v, want %v", out.Err, fetchErr)
	}
	if out.Attempts != 1 {
		t.Errorf("Attempts = %d, want 1", out.Attempts)
	}

	time.Sleep(20 * time.Millisecond)
	if n := calls.Load(); n != 1 {
		t.Errorf("fetch called %d times, want 1 (errors are not retried)", n)
	}
}

// TestEngine_StopSuppressesInFlightResult verifies the central race guard:
// a Stop issued while a fetch is in flight discards the eventual result,
// even a terminal one, and the channel closes without a value.
func TestEngine_StopSuppressesInFlightResult(t *testing.T) {
	inFlight := make(chan struct{})
	release := make(chan struct{})
	fetch := func(ctx context.Context) (string, error) {
		close(inFlight)
		<-release
		return "done", nil
	}

	e := New(fetch, func(v string) bool { return true }, fastConfig(10))
	e.Start(context.Background())

	<-inFlight
	e.Stop()
	close(release)

	out, ok := waitOutcome(t, e)
	if ok {
		t.Fatalf("outcome %+v delivered after Stop, want silent discard", out)
	}
}

// TestEngine_StopPreventsFurtherFetches verifies that after Stop no new
// fetch is scheduled.
func TestEngine_StopPreventsFurtherFetches(t *testing.T) {
	var calls atomic.Int32
	fetch := func(ctx context.Context) (string, error) {
		calls.Add(1)
		return "pending", nil
	}

	cfg := Config{
		Schedule:    Schedule{Initial: 10 * time.Millisecond, Flat: 5, Max: 10 * time.Millisecond},
		MaxAttempts: 1000,
		Logger:      testLogger(),
	}
	e := New(fetch, func(v string) bool { return false }, cfg)
	e.Start(context.Background())

	time.Sleep(5 * time.Millisecond) // let the first fetch happen
	e.Stop()

	if _, ok := waitOutcome(t, e); ok {
		t.Fatal("outcome delivered after Stop")
	}

	n := calls.Load()
	time.Sleep(50 * time.Millisecond)
	if calls.Load() != n {
		t.Errorf("fetch count grew from %d to %d after Stop", n, calls.Load())
	}
}

// TestEngine_StopIdempotent verifies that Stop can be called repeatedly,
// before Start, and after natural completion, always as a safe no-op.
func TestEngine_StopIdempotent(t *testing.T) {
	fetch := func(ctx context.Context) (string, error) { return "done", nil }

	t.Run("twice after start", func(t *testing.T) {
		e := New(fetch, func(v string) bool { return true }, fastConfig(10))
		e.Start(context.Background())
		e.Stop()
		e.Stop()
	})

	t.Run("before start", func(t *testing.T) {
		e := New(fetch, func(v string) bool { return true }, fastConfig(10))
		e.Stop()
		e.Start(context.Background()) // must be a no-op after Stop

		if _, ok := waitOutcome(t, e); ok {
			t.Error("outcome delivered although Stop preceded Start")
		}
	})

	t.Run("after completion", func(t *testing.T) {
		e := New(fetch, func(v string) bool { return true }, fastConfig(10))
		e.Start(context.Background())

		if _, ok := waitOutcome(t, e); !ok {
			t.Fatal("expected a delivered outcome")
		}
		e.Stop()
		e.Stop()
	})
}

// TestEngine_StartTwice verifies that a second Start does not spawn a
// second polling timeline.
func TestEngine_StartTwice(t *testing.T) {
	var calls atomic.Int32
	fetch := func(ctx context.Context) (string, error) {
		calls.Add(1)
		return "done", nil
	}

	e := New(fetch, func(v string) bool { return true }, fastConfig(10))
	e.Start(context.Background())
	e.Start(context.Background())

	if _, ok := waitOutcome(t, e); !ok {
		t.Fatal("expected a delivered outcome")
	}

	time.Sleep(20 * time.Millisecond)
	if n := calls.Load(); n != 1 {
		t.Errorf("fetch called %d times, want 1", n)
	}
}

// TestEngine_ContextCancellationIsSilent verifies that cancelling the parent
// context behaves like Stop: no outcome is delivered, even when a fetch
// result arrives after cancellation.
func TestEngine_ContextCancellationIsSilent(t *testing.T) {
	inFlight := make(chan struct{})
	release := make(chan struct{})
	fetch := func(ctx context.Context) (string, error) {
		close(inFlight)
		<-release
		return "done", nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	e := New(fetch, func(v string) bool { return true }, fastConfig(10))
	e.Start(ctx)

	<-inFlight
	cancel()
	close(release)

	if out, ok := waitOutcome(t, e); ok {
		t.Fatalf("outcome %+v delivered after context cancellation", out)
	}
}

// TestEngine_AtMostOnceDelivery races Stop against a completing fetch many
// times; in every interleaving the outcome must be delivered at most once.
// Run with: go test -race ./internal/poll/...
func TestEngine_AtMostOnceDelivery(t *testing.T) {
	for i := 0; i < 100; i++ {
		fetch := func(ctx context.Context) (string, error) { return "done", nil }
		e := New(fetch, func(v string) bool { return true }, fastConfig(10))
		e.Start(context.Background())

		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			e.Stop()
		}()

		deliveries := 0
		for range e.Done() {
			deliveries++
		}
		if deliveries > 1 {
			t.Fatalf("iteration %d: %d deliveries, want at most 1", i, deliveries)
		}
		wg.Wait()
	}
}

// TestEngine_AttemptsMonotonic verifies that the attempt counter only ever
// increases while polling proceeds.
func TestEngine_AttemptsMonotonic(t *testing.T) {
	fetch := func(ctx context.Context) (string, error) { return "pending", nil }

	e := New(fetch, func(v string) bool { return false }, fastConfig(8))
	e.Start(context.Background())

	prev := 0
	for {
		select {
		case _, ok := <-e.Done():
			if !ok {
				if got := e.Attempts(); got != 8 {
					t.Errorf("final Attempts() = %d, want 8", got)
				}
				return
			}
		default:
		}

		n := e.Attempts()
		if n < prev {
			t.Fatalf("Attempts() went from %d to %d, want monotonic", prev, n)
		}
		prev = n
		time.Sleep(time.Millisecond)
	}
}
