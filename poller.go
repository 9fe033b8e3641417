package sourcewatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"github.com/sourcewatch/sourcewatch/internal/poll"
)

const (
	defaultInitialDelay  = 1500 * time.Millisecond
	defaultFlatAttempts  = 5
	defaultBackoffFactor = 2.0
	defaultMaxDelay      = 24 * time.Second
	defaultMaxAttempts   = 20
)

// Result is the single completion value of a [Poller].
//
// Exactly one of Resource and Err is set: Resource on terminal resolution,
// Err when the lookup failed (*[FetchError]) or the attempt cap was
// exhausted (*[AttemptsExceededError]). Attempts records how many fetches
// were issued.
type Result struct {
	// Resource is the terminal snapshot of the watched resource.
	// Nil when Err is set.
	Resource *Resource

	// Attempts is the poll count at completion.
	Attempts int

	// Err is the reason polling failed, if it did.
	Err error
}

// Poller watches a single remote resource until it reaches a terminal
// state, the lookup fails, the attempt cap is exhausted, or the caller
// stops it.
//
// A Poller is created with [New] and begins polling immediately; there is
// no separate start call. The first fetch fires with no delay, so a
// resource that is already terminal resolves without waiting a backoff
// interval. The completion callback passed to [New] is invoked exactly once
// on terminal resolution or final failure, and never after
// [Poller.StopPolling].
//
// All methods are safe for concurrent use.
type Poller struct {
	id     string
	secret string

	completion func(Result)
	logger     *slog.Logger

	engine *poll.Engine[*Resource]
	done   chan Result
}

// New creates a [Poller] for the resource identified by id, authorized by
// secret, and immediately issues the first fetch.
//
// fetcher and completion must be non-nil and id and secret non-empty.
// completion is invoked at most once, from a dedicated goroutine, with
// either the terminal resource or an error; after [Poller.StopPolling] it
// is never invoked at all. Defaults: initial delay 1.5s, 5 flat attempts,
// doubling backoff capped at 24s, 20 attempts maximum, [DefaultClassifier].
//
// Example:
//
//	p, err := sourcewatch.New(fetcher, "src_123", "src_client_secret_x",
//	    func(res sourcewatch.Result) {
//	        if res.Err != nil {
//	            slog.Error("polling failed", "error", res.Err)
//	            return
//	        }
//	        slog.Info("resource resolved", "status", res.Resource.Status)
//	    },
//	    sourcewatch.WithMaxAttempts(40),
//	)
func New(fetcher Fetcher, id, secret string, completion func(Result), opts ...Option) (*Poller, error) {
	if fetcher == nil {
		return nil, errors.New("fetcher cannot be nil")
	}
	if id == "" {
		return nil, errors.New("resource id cannot be empty")
	}
	if secret == "" {
		return nil, errors.New("client secret cannot be empty")
	}
	if completion == nil {
		return nil, errors.New("completion callback cannot be nil")
	}

	cfg := &pollerConfig{
		initialDelay:  defaultInitialDelay,
		flatAttempts:  defaultFlatAttempts,
		backoffFactor: defaultBackoffFactor,
		maxDelay:      defaultMaxDelay,
		maxAttempts:   defaultMaxAttempts,
		classifier:    DefaultClassifier,
	}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if cfg.maxDelay < cfg.initialDelay {
		return nil, fmt.Errorf("max delay %v is smaller than initial delay %v", cfg.maxDelay, cfg.initialDelay)
	}

	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}
	ctx := cfg.ctx
	if ctx == nil {
		ctx = context.Background()
	}

	schedule := poll.Schedule{
		Initial:   cfg.initialDelay,
		Flat:      cfg.flatAttempts,
		Algorithm: cfg.algorithm,
		Max:       cfg.maxDelay,
	}
	if schedule.Algorithm == nil {
		schedule.Algorithm = poll.Geometric(cfg.initialDelay, cfg.backoffFactor)
	}

	p := &Poller{
		id:         id,
		secret:     secret,
		completion: completion,
		logger:     logger,
		done:       make(chan Result, 1),
	}

	classifier := cfg.classifier
	terminal := func(r *Resource) bool {
		return r != nil && classifier(r.Status)
	}

	p.engine = poll.New(p.fetchFunc(fetcher), terminal, poll.Config{
		Schedule:    schedule,
		MaxAttempts: cfg.maxAttempts,
		Logger:      logger.With("resource_id", id),
	})
	p.engine.Start(ctx)
	go p.consume()

	return p, nil
}

// StopPolling arrests the poller: the pending timer is cancelled, no
// further fetch is scheduled, and the completion callback never fires
// again, even for a fetch already in flight. The [Poller.Done] channel
// closes without a value.
//
// StopPolling is idempotent and non-blocking; calling it multiple times or
// after natural completion is a safe no-op. Cancellation is silent by
// contract: there is no "cancelled" callback variant.
func (p *Poller) StopPolling() {
	p.engine.Stop()
}

// Done returns a channel carrying the poller's single completion value.
//
// The channel receives at most one [Result] and is then closed. When the
// poller is stopped, the channel closes without a value, so a closed-empty
// channel distinguishes cancellation from delivery.
func (p *Poller) Done() <-chan Result {
	return p.done
}

// Attempts returns the number of fetches issued so far. The count is
// monotonically non-decreasing over the poller's lifetime.
func (p *Poller) Attempts() int {
	return p.engine.Attempts()
}

// ID returns the identifier of the watched resource.
func (p *Poller) ID() string {
	return p.id
}

// fetchFunc adapts the Fetcher to the engine, guarding against panicking
// and misbehaving implementations.
func (p *Poller) fetchFunc(fetcher Fetcher) func(ctx context.Context) (*Resource, error) {
	return func(ctx context.Context) (resource *Resource, err error) {
		defer func() {
			if r := recover(); r != nil {
				correlationID := uuid.NewString()
				p.logger.Error("fetcher panic",
					"correlation_id", correlationID,
					"resource_id", p.id,
					"panic", fmt.Sprintf("%v", r),
					"stack", string(debug.Stack()),
				)
				resource = nil
				err = fmt.Errorf("fetcher panic (correlation_id: %s)", correlationID)
			}
		}()

		resource, err = fetcher.FetchResource(ctx, p.id, p.secret)
		if resource == nil && err == nil {
			err = errors.New("fetcher returned neither a resource nor an error")
		}
		return resource, err
	}
}

// consume waits for the engine's single outcome, translates it into the
// public Result, and delivers it to the Done channel and the completion
// callback. If the engine was stopped, it simply closes the channel.
func (p *Poller) consume() {
	defer close(p.done)
	// release the callback once it can no longer fire
	defer func() { p.completion = nil }()

	out, ok := <-p.engine.Done()
	if !ok {
		return
	}

	res := Result{Resource: out.Value, Attempts: out.Attempts}
	if out.Err != nil {
		res.Resource = nil
		if errors.Is(out.Err, poll.ErrAttemptsExceeded) {
			res.Err = &AttemptsExceededError{ID: p.id, Attempts: out.Attempts}
		} else {
			res.Err = &FetchError{ID: p.id, Attempts: out.Attempts, Err: out.Err}
		}
	}

	if res.Err != nil {
		p.logger.Warn("polling finished with error", "resource_id", p.id, "attempts", res.Attempts, "error", res.Err.Error())
	} else {
		p.logger.Debug("polling finished", "resource_id", p.id, "attempts", res.Attempts, "status", res.Resource.Status.String())
	}

	p.done <- res
	p.invokeCompletionSafe(res)
}

// invokeCompletionSafe calls the completion callback with panic recovery.
// Panics are logged with a correlation ID but do not propagate.
func (p *Poller) invokeCompletionSafe(res Result) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("completion callback panicked",
				"correlation_id", uuid.NewString(),
				"resource_id", p.id,
				"panic", fmt.Sprintf("%v", r),
			)
		}
	}()
	p.completion(res)
}
