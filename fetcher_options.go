package sourcewatch

import (
	"errors"
	"fmt"
	"net/url"
	"time"
)

const defaultRequestTimeout = 10 * time.Second

// httpFetcherConfig holds mutable state during HTTPFetcher construction.
type httpFetcherConfig struct {
	timeout time.Duration
	headers map[string]string
}

// HTTPFetcherOption configures an [HTTPFetcher] during construction.
//
// Built-in options: [WithRequestTimeout], [WithHTTPHeaders].
type HTTPFetcherOption func(*httpFetcherConfig) error

// newHTTPFetcherConfig validates the base URL and applies options.
func newHTTPFetcherConfig(baseURL string, opts ...HTTPFetcherOption) (*httpFetcherConfig, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, errors.New("invalid base URL: " + err.Error())
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, errors.New("base URL must have an http:// or https:// scheme")
	}

	cfg := &httpFetcherConfig{
		timeout: defaultRequestTimeout,
		headers: make(map[string]string),
	}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// WithRequestTimeout sets the timeout applied to each individual status
// lookup. Defaults to 10 seconds.
//
// Returns an error if the duration is zero or negative.
func WithRequestTimeout(d time.Duration) HTTPFetcherOption {
	return func(cfg *httpFetcherConfig) error {
		if d <= 0 {
			return errors.New("request timeout must be positive")
		}
		cfg.timeout = d
		return nil
	}
}

// WithHTTPHeaders adds custom headers sent with every status lookup,
// supplied as alternating key-value pairs.
//
// Example:
//
//	sourcewatch.WithHTTPHeaders(
//	    "Authorization", "Bearer pk_test_x",
//	    "X-Request-Source", "backend",
//	)
//
// Returns an error if an odd number of arguments is supplied.
func WithHTTPHeaders(pairs ...string) HTTPFetcherOption {
	return func(cfg *httpFetcherConfig) error {
		if len(pairs)%2 != 0 {
			return fmt.Errorf("WithHTTPHeaders requires an even number of arguments, got %d", len(pairs))
		}
		for i := 0; i < len(pairs); i += 2 {
			cfg.headers[pairs[i]] = pairs[i+1]
		}
		return nil
	}
}
