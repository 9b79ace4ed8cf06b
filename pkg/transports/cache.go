package transports

import (
	"bytes"
	"container/list"
	"io"
	"net/http"
	"sync"
	"time"
)

// CacheTransport is an http.RoundTripper that serves repeated GET and HEAD
// requests from an in-memory cache. Entries expire after the configured TTL
// and the least recently used entry is evicted once capacity is reached.
type CacheTransport struct {
	base    http.RoundTripper
	config  CacheConfig
	metrics *Metrics

	mu      sync.Mutex
	entries map[string]*list.Element
	order   *list.List // most recently used in front
	now     func() time.Time
}

type cacheEntry struct {
	key        string
	statusCode int
	header     http.Header
	body       []byte
	storedAt   time.Time
}

// NewCacheTransport wraps base with an in-memory response cache. A nil base
// defaults to http.DefaultTransport.
func NewCacheTransport(config CacheConfig, base http.RoundTripper) *CacheTransport {
	return newCacheTransport(config, base, nil)
}

func newCacheTransport(config CacheConfig, base http.RoundTripper, metrics *Metrics) *CacheTransport {
	if base == nil {
		base = http.DefaultTransport
	}
	if config.Capacity <= 0 {
		config.Capacity = DefaultCacheConfig().Capacity
	}
	return &CacheTransport{
		base:    base,
		config:  config,
		metrics: metrics,
		entries: make(map[string]*list.Element),
		order:   list.New(),
		now:     time.Now,
	}
}

// RoundTrip implements http.RoundTripper.
func (t *CacheTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Method != http.MethodGet && req.Method != http.MethodHead {
		return t.base.RoundTrip(req)
	}

	key := req.Method + " " + req.URL.String()

	if resp, ok := t.lookup(key, req); ok {
		if t.metrics != nil {
			t.metrics.cacheHits.Inc()
		}
		return resp, nil
	}
	if t.metrics != nil {
		t.metrics.cacheMisses.Inc()
	}

	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	// Only successful responses are worth replaying.
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp, nil
	}

	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if err != nil {
		return nil, err
	}

	t.store(key, resp, body)

	resp.Body = io.NopCloser(bytes.NewReader(body))
	return resp, nil
}

func (t *CacheTransport) lookup(key string, req *http.Request) (*http.Response, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	elem, ok := t.entries[key]
	if !ok {
		return nil, false
	}
	entry := elem.Value.(*cacheEntry)

	if t.now().Sub(entry.storedAt) > t.config.TTL {
		t.order.Remove(elem)
		delete(t.entries, key)
		return nil, false
	}

	t.order.MoveToFront(elem)
	return &http.Response{
		StatusCode: entry.statusCode,
		Status:     http.StatusText(entry.statusCode),
		Proto:      "HTTP/1.1",
		ProtoMajor: 1,
		ProtoMinor: 1,
		Header:     entry.header.Clone(),
		Body:       io.NopCloser(bytes.NewReader(entry.body)),
		Request:    req,
	}, true
}

func (t *CacheTransport) store(key string, resp *http.Response, body []byte) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if elem, ok := t.entries[key]; ok {
		t.order.Remove(elem)
		delete(t.entries, key)
	}

	for len(t.entries) >= t.config.Capacity {
		oldest := t.order.Back()
		if oldest == nil {
			break
		}
		t.order.Remove(oldest)
		delete(t.entries, oldest.Value.(*cacheEntry).key)
	}

	entry := &cacheEntry{
		key:        key,
		statusCode: resp.StatusCode,
		header:     resp.Header.Clone(),
		body:       body,
		storedAt:   t.now(),
	}
	t.entries[key] = t.order.PushFront(entry)
}
