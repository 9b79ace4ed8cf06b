package correlation

import "net/http"

// Transport is an http.RoundTripper that stamps outgoing requests with the
// correlation ID found in the request context, so that the ID is propagated
// to downstream services.
type Transport struct {
	// Base is the underlying transport; http.DefaultTransport when nil.
	Base http.RoundTripper
	// GenerateIfMissing controls what happens when the request context
	// carries no correlation ID: generate a fresh one when true, fail the
	// request with ErrNotSet when false.
	GenerateIfMissing bool
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	id, err := FromContext(req.Context())
	if err != nil {
		if !t.GenerateIfMissing {
			return nil, err
		}
		id = New()
	}

	// Per RoundTripper contract the request must not be mutated.
	clone := req.Clone(req.Context())
	clone.Header.Set(HeaderName, id)

	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(clone)
}
