package transports

import "net/http"

// Options customize transport assembly.
type Options struct {
	// Base is the innermost transport; http.DefaultTransport when nil.
	Base http.RoundTripper
	// Metrics receives counters from all layers when set.
	Metrics *Metrics
}

// NewRetryRatelimitTransport builds the standard client transport stack:
// requests pass through rate limit pacing, then retry handling, then the
// base transport.
func NewRetryRatelimitTransport(cfg Config, opts Options) http.RoundTripper {
	retry := newRetryTransport(cfg.Retry, opts.Base, opts.Metrics)
	return newRatelimitTransport(cfg.Ratelimit, retry, opts.Metrics)
}

// NewRetryRatelimitCacheTransport builds the standard stack with an
// in-memory response cache below the retry layer, so that cache hits skip
// retrying and pacing applies only to actual network traffic.
func NewRetryRatelimitCacheTransport(cfg Config, opts Options) http.RoundTripper {
	cache := newCacheTransport(cfg.Cache, opts.Base, opts.Metrics)
	retry := newRetryTransport(cfg.Retry, cache, opts.Metrics)
	return newRatelimitTransport(cfg.Ratelimit, retry, opts.Metrics)
}
