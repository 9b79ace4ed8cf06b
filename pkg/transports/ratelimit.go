package transports

import (
	"log/slog"
	"math/rand"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// RatelimitTransport is an http.RoundTripper that paces requests according
// to 429 responses. When an upstream replies with Retry-After, subsequent
// requests wait out the advertised delay (plus jitter) before being sent.
// The learned delay is forgotten again after a configured number of
// successful requests.
type RatelimitTransport struct {
	base    http.RoundTripper
	config  RatelimitConfig
	logger  *slog.Logger
	metrics *Metrics

	mu          sync.Mutex
	numRequests int
	lastRequest time.Time
	waitTime    time.Duration
}

// NewRatelimitTransport wraps base with rate limit handling. A nil base
// defaults to http.DefaultTransport.
func NewRatelimitTransport(config RatelimitConfig, base http.RoundTripper) *RatelimitTransport {
	return newRatelimitTransport(config, base, nil)
}

func newRatelimitTransport(config RatelimitConfig, base http.RoundTripper, metrics *Metrics) *RatelimitTransport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &RatelimitTransport{
		base:        base,
		config:      config,
		logger:      slog.Default(),
		metrics:     metrics,
		lastRequest: time.Now(),
	}
}

// RoundTrip implements http.RoundTripper.
func (t *RatelimitTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.wait(req); err != nil {
		return nil, err
	}

	resp, err := t.base.RoundTrip(req)

	t.mu.Lock()
	t.lastRequest = time.Now()
	if err == nil {
		t.update(resp)
	}
	t.mu.Unlock()

	return resp, err
}

// wait sleeps until the currently learned delay since the last request has
// passed, plus jitter, honoring context cancellation.
func (t *RatelimitTransport) wait(req *http.Request) error {
	t.mu.Lock()
	elapsed := time.Since(t.lastRequest)
	remaining := t.waitTime - elapsed
	if remaining < 0 {
		remaining = 0
	}
	jitter := t.config.Jitter
	t.mu.Unlock()

	var delay time.Duration
	if jitter > 0 {
		delay = remaining + time.Duration(rand.Int63n(int64(jitter)+1))
	} else {
		delay = remaining
	}
	if delay <= 0 {
		return nil
	}

	if remaining > 0 {
		t.logger.Debug("Pacing request for rate limit",
			"url", req.URL.Redacted(), "wait", delay.Seconds())
		if t.metrics != nil {
			t.metrics.ratelimitWaits.Observe(delay.Seconds())
		}
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-req.Context().Done():
		return req.Context().Err()
	case <-timer.C:
		return nil
	}
}

// update adjusts the learned wait time from a response. Caller holds the lock.
func (t *RatelimitTransport) update(resp *http.Response) {
	t.numRequests++

	if resp.StatusCode == http.StatusTooManyRequests {
		retryAfter := resp.Header.Get("Retry-After")
		if seconds, err := strconv.ParseFloat(retryAfter, 64); err == nil && seconds >= 0 {
			t.waitTime = time.Duration(seconds * float64(time.Second))
			t.logger.Info("Upstream rate limit hit, pacing requests",
				"retry_after", t.waitTime.Seconds())
		} else {
			t.logger.Warn("429 response without usable Retry-After header, using jitter as fallback")
			t.waitTime = t.config.Jitter
		}
		t.numRequests = 0
		return
	}

	if t.config.ResetAfter > 0 && t.numRequests >= t.config.ResetAfter {
		t.waitTime = 0
		t.numRequests = 0
	}
}
