package transports

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"math/rand"
	"net/http"
	"time"
)

// ErrBodyNotRewindable is returned when a request with a body cannot be
// retried because it does not provide GetBody.
var ErrBodyNotRewindable = errors.New("request body cannot be rewound for retry")

const initialBackoff = 100 * time.Millisecond

// RetryTransport is an http.RoundTripper that retries failed requests with
// exponential backoff. Transport errors and configured response status
// codes both count as failures.
type RetryTransport struct {
	base       http.RoundTripper
	config     RetryConfig
	logger     *slog.Logger
	retrycodes map[int]bool
	metrics    *Metrics
}

// NewRetryTransport wraps base with retry behavior. A nil base defaults to
// http.DefaultTransport.
func NewRetryTransport(config RetryConfig, base http.RoundTripper) *RetryTransport {
	return newRetryTransport(config, base, nil)
}

func newRetryTransport(config RetryConfig, base http.RoundTripper, metrics *Metrics) *RetryTransport {
	if base == nil {
		base = http.DefaultTransport
	}
	retrycodes := make(map[int]bool, len(config.RetryStatusCodes))
	for _, code := range config.RetryStatusCodes {
		retrycodes[code] = true
	}
	return &RetryTransport{
		base:       base,
		config:     config,
		logger:     slog.Default(),
		retrycodes: retrycodes,
		metrics:    metrics,
	}
}

// RoundTrip implements http.RoundTripper.
func (t *RetryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	var (
		resp    *http.Response
		lastErr error
	)
	start := time.Now()

	for attempt := 0; ; attempt++ {
		if attempt > 0 {
			if req.Body != nil && req.GetBody == nil {
				// The first attempt consumed the body and it cannot be
				// recreated, so give up with the previous outcome.
				if lastErr != nil {
					return nil, lastErr
				}
				return resp, nil
			}
			if resp != nil {
				drain(resp)
			}
			if err := t.sleep(req.Context(), attempt); err != nil {
				if lastErr != nil {
					return nil, fmt.Errorf("%w (last attempt: %w)", err, lastErr)
				}
				return nil, err
			}
			if req.Body != nil {
				body, err := req.GetBody()
				if err != nil {
					return nil, fmt.Errorf("%w: %w", ErrBodyNotRewindable, err)
				}
				req.Body = body
			}
			if t.metrics != nil {
				t.metrics.retries.WithLabelValues(req.Method).Inc()
			}
			if t.config.LogRetries {
				t.logger.Info("Retrying request",
					"method", req.Method,
					"url", req.URL.Redacted(),
					"attempt", attempt,
					"seconds_elapsed", time.Since(start).Seconds())
			}
		}

		resp, lastErr = t.base.RoundTrip(req)

		if !t.shouldRetry(resp, lastErr) {
			return resp, lastErr
		}
		if attempt >= t.config.MaxRetries {
			// Attempts exhausted: surface the last outcome unchanged.
			return resp, lastErr
		}
	}
}

func (t *RetryTransport) shouldRetry(resp *http.Response, err error) bool {
	if err != nil {
		// Context cancellation is a caller decision, never retried.
		return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
	}
	return t.retrycodes[resp.StatusCode]
}

// sleep waits out the exponential backoff for the given attempt, honoring
// context cancellation.
func (t *RetryTransport) sleep(ctx context.Context, attempt int) error {
	delay := time.Duration(float64(initialBackoff) * math.Pow(2, float64(attempt-1)))
	if delay > t.config.BackoffMax || delay <= 0 {
		delay = t.config.BackoffMax
	}
	// Full jitter keeps concurrent clients from synchronizing.
	delay = time.Duration(rand.Int63n(int64(delay) + 1))

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// drain consumes and closes a response body so the underlying connection
// can be reused.
func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<20))
	_ = resp.Body.Close()
}
