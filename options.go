package sourcewatch

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/Rican7/retry/backoff"
)

// pollerConfig holds mutable state during Poller construction.
type pollerConfig struct {
	initialDelay  time.Duration
	flatAttempts  int
	backoffFactor float64
	algorithm     backoff.Algorithm
	maxDelay      time.Duration
	maxAttempts   int
	classifier    Classifier
	logger        *slog.Logger
	ctx           context.Context
}

// Option configures a [Poller] during construction.
//
// Option implements the functional options pattern, allowing optional
// configuration to be passed to [New] in a type-safe, extensible way.
// Options return an error if validation fails.
//
// Built-in options: [WithInitialDelay], [WithFlatAttempts],
// [WithBackoffFactor], [WithBackoffAlgorithm], [WithMaxDelay],
// [WithMaxAttempts], [WithClassifier], [WithLogger], [WithContext].
type Option func(*pollerConfig) error

// WithInitialDelay sets the delay before the second fetch attempt and the
// spacing of the flat backoff phase. The first fetch always fires
// immediately on construction. Defaults to 1.5 seconds.
//
// Returns an error if the duration is zero or negative.
func WithInitialDelay(d time.Duration) Option {
	return func(cfg *pollerConfig) error {
		if d <= 0 {
			return errors.New("initial delay must be positive")
		}
		cfg.initialDelay = d
		return nil
	}
}

// WithFlatAttempts sets how many attempts are polled at the initial delay
// before the backoff curve starts growing. Defaults to 5.
//
// Returns an error if the value is negative.
func WithFlatAttempts(n int) Option {
	return func(cfg *pollerConfig) error {
		if n < 0 {
			return errors.New("flat attempts cannot be negative")
		}
		cfg.flatAttempts = n
		return nil
	}
}

// WithBackoffFactor sets the per-attempt growth multiplier applied after
// the flat phase: the delay before attempt n is
// initialDelay * factor^(n - flatAttempts), capped at the maximum delay.
// Defaults to 2.0 (doubling).
//
// Mutually exclusive with [WithBackoffAlgorithm]; if both are supplied the
// algorithm wins. Returns an error if the factor is below 1.
func WithBackoffFactor(factor float64) Option {
	return func(cfg *pollerConfig) error {
		if factor < 1 {
			return errors.New("backoff factor must be at least 1")
		}
		cfg.backoffFactor = factor
		return nil
	}
}

// WithBackoffAlgorithm replaces the growth curve applied after the flat
// phase with a custom [backoff.Algorithm] (for example [backoff.Linear] or
// [backoff.Incremental]). The curve's outputs are floored at the initial
// delay and capped at the maximum delay; the supplied algorithm must be
// non-decreasing for the overall policy to stay monotonic.
//
// Returns an error if the algorithm is nil.
func WithBackoffAlgorithm(alg backoff.Algorithm) Option {
	return func(cfg *pollerConfig) error {
		if alg == nil {
			return errors.New("backoff algorithm cannot be nil")
		}
		cfg.algorithm = alg
		return nil
	}
}

// WithMaxDelay sets the ceiling on the delay between attempts, bounding
// how far the backoff curve can grow. Defaults to 24 seconds. Must not be
// smaller than the initial delay; that combination is rejected by [New].
//
// Returns an error if the duration is zero or negative.
func WithMaxDelay(d time.Duration) Option {
	return func(cfg *pollerConfig) error {
		if d <= 0 {
			return errors.New("max delay must be positive")
		}
		cfg.maxDelay = d
		return nil
	}
}

// WithMaxAttempts sets the hard cap on the poll count. Once the cap is
// reached without a terminal state, the poller finishes with an
// [AttemptsExceededError]. Defaults to 20.
//
// Returns an error if the value is zero or negative.
func WithMaxAttempts(n int) Option {
	return func(cfg *pollerConfig) error {
		if n <= 0 {
			return errors.New("max attempts must be positive")
		}
		cfg.maxAttempts = n
		return nil
	}
}

// WithClassifier replaces the terminal-state classifier. The classifier
// must be pure: it is consulted once per fetch with the fetched resource's
// status. Defaults to [DefaultClassifier].
//
// Returns an error if the classifier is nil.
func WithClassifier(c Classifier) Option {
	return func(cfg *pollerConfig) error {
		if c == nil {
			return errors.New("classifier cannot be nil")
		}
		cfg.classifier = c
		return nil
	}
}

// WithLogger sets a custom [slog.Logger] for the poller.
//
// This allows SDK consumers to control where logs are written and in what
// format. If not specified, [slog.Default] is used.
//
// Returns an error if the logger is nil.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *pollerConfig) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		cfg.logger = logger
		return nil
	}
}

// WithContext sets the parent context for the polling lifetime. Cancelling
// it has the same effect as calling [Poller.StopPolling]: polling stops and
// the completion callback never fires. Defaults to context.Background().
//
// Returns an error if the context is nil.
func WithContext(ctx context.Context) Option {
	return func(cfg *pollerConfig) error {
		if ctx == nil {
			return errors.New("context cannot be nil")
		}
		cfg.ctx = ctx
		return nil
	}
}
