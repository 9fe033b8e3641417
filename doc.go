// Package sourcewatch polls a remote resource whose state changes
// asynchronously (for example a payment source awaiting user action) until
// it reaches a terminal state, the caller stops polling, or a maximum
// attempt count is exceeded.
//
// The library is SDK-first: a [Poller] is bound to one resource identifier
// and client secret, starts polling the moment it is constructed, and
// delivers its outcome exactly once, either through the completion callback
// or the [Poller.Done] channel.
//
// # Quick Start
//
//	fetcher, _ := sourcewatch.NewHTTPFetcher("https://api.example.com")
//	defer fetcher.Close()
//
//	p, err := sourcewatch.New(fetcher, "src_123", "src_client_secret_x",
//	    func(res sourcewatch.Result) {
//	        if res.Err != nil {
//	            slog.Error("polling failed", "error", res.Err)
//	            return
//	        }
//	        slog.Info("resolved", "status", res.Resource.Status)
//	    },
//	)
//	if err != nil {
//	    slog.Error("failed to create poller", "error", err)
//	    os.Exit(1)
//	}
//
//	// later, if the outcome no longer matters:
//	p.StopPolling()
//
// # Guarantees
//
//   - At most one fetch is in flight or scheduled at any time.
//   - The completion callback fires at most once per poller lifetime.
//   - After [Poller.StopPolling] no callback fires and no fetch is
//     scheduled; a result from a fetch already in flight is discarded.
//   - The delay between attempts is monotonically non-decreasing and
//     bounded by the configured maximum.
//
// # Configuration
//
// Pollers are configured with the functional options pattern:
//
//	p, err := sourcewatch.New(fetcher, id, secret, completion,
//	    sourcewatch.WithInitialDelay(time.Second),
//	    sourcewatch.WithBackoffFactor(1.5),
//	    sourcewatch.WithMaxDelay(30 * time.Second),
//	    sourcewatch.WithMaxAttempts(40),
//	)
//
// The growth curve can also be replaced outright with
// [WithBackoffAlgorithm], which accepts any
// github.com/Rican7/retry/backoff Algorithm.
//
// # Architecture
//
// sourcewatch consists of two internal packages:
//
//   - internal/poll: the single-resource polling engine (timer loop,
//     attempt counter, backoff schedule, at-most-once delivery)
//   - internal/fetch: the pooled HTTP client behind [HTTPFetcher]
//
// The internal packages are not part of the public API and may change
// without notice. A YAML configuration layer lives in the config package,
// and cmd/sourcewatch provides a standalone CLI.
package sourcewatch
