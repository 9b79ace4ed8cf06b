// Package transports provides composable http.RoundTripper layers for
// calling upstream services: retrying with exponential backoff, pacing
// requests according to rate limiting responses, and caching responses in
// memory. The layers are assembled through the factory functions in this
// package.
package transports

import (
	"net/http"
	"time"
)

// RetryConfig controls the retry transport layer.
type RetryConfig struct {
	// MaxRetries is the number of times a failed request is retried.
	MaxRetries int `yaml:"max_retries"`
	// BackoffMax caps the exponential backoff delay between attempts.
	BackoffMax time.Duration `yaml:"backoff_max"`
	// RetryStatusCodes lists response statuses that trigger a retry.
	RetryStatusCodes []int `yaml:"retry_status_codes"`
	// LogRetries enables per-attempt log records.
	LogRetries bool `yaml:"log_retries"`
}

// DefaultRetryConfig returns the retry defaults.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: 3,
		BackoffMax: 60 * time.Second,
		RetryStatusCodes: []int{
			http.StatusRequestTimeout,
			http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout,
		},
	}
}

// RatelimitConfig controls the rate limiting transport layer.
type RatelimitConfig struct {
	// Jitter is the maximum random delay added to each request.
	Jitter time.Duration `yaml:"jitter"`
	// ResetAfter is the number of requests after which a wait time learned
	// from a 429 response is forgotten again. Zero means never.
	ResetAfter int `yaml:"reset_after"`
}

// DefaultRatelimitConfig returns the rate limiting defaults.
func DefaultRatelimitConfig() RatelimitConfig {
	return RatelimitConfig{
		Jitter:     time.Millisecond,
		ResetAfter: 1,
	}
}

// CacheConfig controls the in-memory response cache layer.
type CacheConfig struct {
	// TTL is the duration after which a stored response is considered stale.
	TTL time.Duration `yaml:"ttl"`
	// Capacity is the maximum number of cached responses. The least
	// recently used entry is evicted once the limit is reached.
	Capacity int `yaml:"capacity"`
}

// DefaultCacheConfig returns the cache defaults.
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		TTL:      time.Minute,
		Capacity: 128,
	}
}

// Config bundles the configuration of all transport layers.
type Config struct {
	Retry     RetryConfig     `yaml:"retry"`
	Ratelimit RatelimitConfig `yaml:"ratelimit"`
	Cache     CacheConfig     `yaml:"cache"`
}

// DefaultConfig returns defaults for all transport layers.
func DefaultConfig() Config {
	return Config{
		Retry:     DefaultRetryConfig(),
		Ratelimit: DefaultRatelimitConfig(),
		Cache:     DefaultCacheConfig(),
	}
}
