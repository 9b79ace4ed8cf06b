// Package httpyerr implements a structured error protocol for HTTP APIs.
//
// Error responses carry a machine-readable exception ID next to a
// human-readable description and arbitrary structured data:
//
//	{"exception_id": "resourceNotFound", "description": "...", "data": {...}}
//
// The server side renders Error values into this wire model; the client
// side maps (status code, exception ID) pairs back into typed Go errors.
package httpyerr

import (
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
)

// exceptionIDPattern restricts exception IDs to lowerCamelCase identifiers
// between 3 and 40 characters.
var exceptionIDPattern = regexp.MustCompile(`^[a-z][a-zA-Z0-9]{2,39}$`)

// Body is the JSON wire model of an error response.
type Body struct {
	ExceptionID string         `json:"exception_id"`
	Description string         `json:"description"`
	Data        map[string]any `json:"data"`
}

// Error is an HTTP-mappable exception thrown by server-side code.
type Error struct {
	StatusCode  int
	ExceptionID string
	Description string
	Data        map[string]any
}

// NewError constructs an Error, validating the status code and exception ID.
func NewError(statusCode int, exceptionID, description string, data map[string]any) (*Error, error) {
	if err := validateStatusCode(statusCode); err != nil {
		return nil, err
	}
	if err := validateExceptionID(exceptionID); err != nil {
		return nil, err
	}
	return &Error{
		StatusCode:  statusCode,
		ExceptionID: exceptionID,
		Description: description,
		Data:        data,
	}, nil
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s (status %d): %s", e.ExceptionID, e.StatusCode, e.Description)
}

// Body returns the wire model of the error.
func (e *Error) Body() Body {
	data := e.Data
	if data == nil {
		data = map[string]any{}
	}
	return Body{ExceptionID: e.ExceptionID, Description: e.Description, Data: data}
}

// Respond writes the error to w as a JSON response.
func Respond(w http.ResponseWriter, e *Error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.StatusCode)
	_ = json.NewEncoder(w).Encode(e.Body())
}

func validateStatusCode(statusCode int) error {
	if statusCode < 400 || statusCode > 599 {
		return fmt.Errorf("invalid error status code: %d", statusCode)
	}
	return nil
}

func validateExceptionID(exceptionID string) error {
	if !exceptionIDPattern.MatchString(exceptionID) {
		return fmt.Errorf("invalid exception ID: %q", exceptionID)
	}
	return nil
}
