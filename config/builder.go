package config

import (
	"sort"

	"github.com/sourcewatch/sourcewatch"
)

// BuildOptions converts parsed configuration into SDK poller options.
//
// Only explicitly set fields produce options; zero-valued fields fall
// through to the SDK defaults.
func BuildOptions(cfg *Config) []sourcewatch.Option {
	var opts []sourcewatch.Option

	if cfg.InitialDelay != 0 {
		opts = append(opts, sourcewatch.WithInitialDelay(cfg.InitialDelay.Duration()))
	}
	if cfg.FlatAttempts != 0 {
		opts = append(opts, sourcewatch.WithFlatAttempts(cfg.FlatAttempts))
	}
	if cfg.BackoffFactor != 0 {
		opts = append(opts, sourcewatch.WithBackoffFactor(cfg.BackoffFactor))
	}
	if cfg.MaxDelay != 0 {
		opts = append(opts, sourcewatch.WithMaxDelay(cfg.MaxDelay.Duration()))
	}
	if cfg.MaxAttempts != 0 {
		opts = append(opts, sourcewatch.WithMaxAttempts(cfg.MaxAttempts))
	}

	return opts
}

// BuildFetcher creates the HTTP fetcher described by the configuration.
// The caller owns the fetcher and should Close it when done.
func BuildFetcher(cfg *Config) (*sourcewatch.HTTPFetcher, error) {
	var opts []sourcewatch.HTTPFetcherOption

	if cfg.RequestTimeout != 0 {
		opts = append(opts, sourcewatch.WithRequestTimeout(cfg.RequestTimeout.Duration()))
	}
	if len(cfg.Headers) > 0 {
		opts = append(opts, sourcewatch.WithHTTPHeaders(mapToKeyValuePairs(cfg.Headers)...))
	}

	return sourcewatch.NewHTTPFetcher(cfg.BaseURL, opts...)
}

// mapToKeyValuePairs converts a map to a sorted slice of key-value pairs.
func mapToKeyValuePairs(m map[string]string) []string {
	// sort keys for deterministic ordering
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(m)*2)
	for _, k := range keys {
		pairs = append(pairs, k, m[k])
	}
	return pairs
}
