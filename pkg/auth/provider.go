package auth

import (
	"context"
	"errors"
)

// ErrContextValidation is returned when a token cannot establish a valid
// authentication and authorization context.
var ErrContextValidation = errors.New("auth context validation failed")

// Provider establishes an auth context of type C from a bearer token.
type Provider[C any] interface {
	// GetContext validates the token and returns the context it carries.
	// Errors wrap ErrContextValidation when the token is not acceptable.
	GetContext(ctx context.Context, token string) (C, error)
}
