package httpyerr

import (
	"fmt"
)

// Factory turns a received error response into a Go error. The returned
// error is what callers of the translated client operation will observe.
type Factory func(statusCode int, exceptionID, description string, data map[string]any) error

// Spec declares which exception IDs are expected per error status code and
// how each one translates into an error.
type Spec map[int]map[string]Factory

// Mapping is a validated Spec plus a fallback for unexpected responses.
type Mapping struct {
	spec     Spec
	fallback Factory
}

// NewMapping validates the spec and constructs a Mapping. Status codes must
// be in the 4xx or 5xx range and exception IDs must be lowerCamelCase
// identifiers. A nil fallback defaults to producing a plain *Error.
func NewMapping(spec Spec, fallback Factory) (*Mapping, error) {
	for statusCode, factories := range spec {
		if err := validateStatusCode(statusCode); err != nil {
			return nil, err
		}
		for exceptionID, factory := range factories {
			if err := validateExceptionID(exceptionID); err != nil {
				return nil, fmt.Errorf("status %d: %w", statusCode, err)
			}
			if factory == nil {
				return nil, fmt.Errorf("status %d: nil factory for %q", statusCode, exceptionID)
			}
		}
	}

	if fallback == nil {
		fallback = func(statusCode int, exceptionID, description string, data map[string]any) error {
			return &Error{
				StatusCode:  statusCode,
				ExceptionID: exceptionID,
				Description: description,
				Data:        data,
			}
		}
	}

	return &Mapping{spec: spec, fallback: fallback}, nil
}

// Select returns the factory registered for the given status code and
// exception ID, falling back to the mapping's fallback factory.
func (m *Mapping) Select(statusCode int, exceptionID string) Factory {
	if factories, ok := m.spec[statusCode]; ok {
		if factory, ok := factories[exceptionID]; ok {
			return factory
		}
	}
	return m.fallback
}
