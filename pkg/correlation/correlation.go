// Package correlation propagates a request correlation ID across service
// boundaries. The ID travels in the X-Request-Id header and is carried
// through context.Context inside a process, so that logs and downstream
// calls belonging to one inbound request can be tied together.
package correlation

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// HeaderName is the HTTP header carrying the correlation ID.
const HeaderName = "X-Request-Id"

var (
	// ErrNotSet is returned when no correlation ID is present in the context.
	ErrNotSet = errors.New("correlation ID not set in context")
	// ErrInvalidID is returned when a correlation ID is not a valid UUID.
	ErrInvalidID = errors.New("invalid correlation ID")
)

type contextKey struct{}

// New generates a fresh correlation ID.
func New() string {
	return uuid.NewString()
}

// Validate checks that the given correlation ID is a valid UUID.
func Validate(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return nil
}

// ContextWith returns a child context carrying the given correlation ID.
func ContextWith(ctx context.Context, id string) (context.Context, error) {
	if err := Validate(id); err != nil {
		return nil, err
	}
	return context.WithValue(ctx, contextKey{}, id), nil
}

// FromContext returns the correlation ID stored in the context.
func FromContext(ctx context.Context) (string, error) {
	id, ok := ctx.Value(contextKey{}).(string)
	if !ok {
		return "", ErrNotSet
	}
	return id, nil
}
