package sourcewatch

import (
	"context"
	"time"

	"github.com/sourcewatch/sourcewatch/internal/fetch"
)

// Fetcher is the capability the poller consumes to look up the current
// state of the watched resource.
//
// FetchResource performs one remote lookup for the resource identified by
// id, authorized by secret. It is invoked repeatedly, at most once at a
// time, on the poller's own goroutine. The context is cancelled when the
// poller is stopped; implementations should honor it for in-flight work.
// Exactly one of the return values is meaningful: a resource on success, an
// error on failure.
type Fetcher interface {
	FetchResource(ctx context.Context, id, secret string) (*Resource, error)
}

// FetcherFunc adapts an ordinary function to the [Fetcher] interface.
type FetcherFunc func(ctx context.Context, id, secret string) (*Resource, error)

// FetchResource calls f.
func (f FetcherFunc) FetchResource(ctx context.Context, id, secret string) (*Resource, error) {
	return f(ctx, id, secret)
}

// HTTPFetcher is a production [Fetcher] that looks up resource status over
// HTTPS. It keeps a small connection pool alive across polls.
//
// Create it with [NewHTTPFetcher] and release it with [HTTPFetcher.Close]
// once no poller uses it anymore.
type HTTPFetcher struct {
	baseURL string
	client  *fetch.Client
}

// NewHTTPFetcher creates an [HTTPFetcher] for the given API base URL.
//
// The base URL must include a scheme (http:// or https://). Options
// configure the per-request timeout and extra headers; see
// [WithRequestTimeout] and [WithHTTPHeaders].
//
// Example:
//
//	fetcher, err := sourcewatch.NewHTTPFetcher("https://api.example.com",
//	    sourcewatch.WithRequestTimeout(5 * time.Second),
//	    sourcewatch.WithHTTPHeaders("Authorization", "Bearer pk_test_x"),
//	)
func NewHTTPFetcher(baseURL string, opts ...HTTPFetcherOption) (*HTTPFetcher, error) {
	cfg, err := newHTTPFetcherConfig(baseURL, opts...)
	if err != nil {
		return nil, err
	}

	return &HTTPFetcher{
		baseURL: baseURL,
		client:  fetch.NewClient(baseURL, cfg.headers, cfg.timeout),
	}, nil
}

// FetchResource implements [Fetcher].
func (f *HTTPFetcher) FetchResource(ctx context.Context, id, secret string) (*Resource, error) {
	src, err := f.client.FetchSource(ctx, id, secret)
	if err != nil {
		return nil, err
	}
	return sourceToResource(src), nil
}

// BaseURL returns the API base URL this fetcher targets.
func (f *HTTPFetcher) BaseURL() string {
	return f.baseURL
}

// Close closes idle connections held by the fetcher. Safe to call multiple
// times; the fetcher remains usable afterwards.
func (f *HTTPFetcher) Close() {
	if f == nil {
		return
	}
	f.client.Close()
}

// sourceToResource converts the fetch-internal wire type to the public
// resource snapshot. Unrecognized wire statuses fold into StatusUnknown;
// the raw payload keeps the original value for inspection.
func sourceToResource(src *fetch.Source) *Resource {
	return &Resource{
		ID:           src.ID,
		Type:         src.Object,
		Status:       statusFromString(src.Status),
		Amount:       src.Amount,
		Currency:     src.Currency,
		ClientSecret: src.ClientSecret,
		Created:      time.Unix(src.Created, 0).UTC(),
		Livemode:     src.Livemode,
		Raw:          src.Raw,
	}
}
