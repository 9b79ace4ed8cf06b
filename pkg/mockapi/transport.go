package mockapi

import (
	"net/http"
	"net/http/httptest"
)

// RoundTrip lets the router act as the transport of an http.Client so
// that code under test talks to the mock endpoints without a listener.
func (rt *Router) RoundTrip(req *http.Request) (*http.Response, error) {
	rec := httptest.NewRecorder()
	rt.ServeHTTP(rec, req)
	resp := rec.Result()
	resp.Request = req
	return resp, nil
}

// Client returns an http.Client whose requests are served by the router.
func (rt *Router) Client() *http.Client {
	return &http.Client{Transport: rt}
}
