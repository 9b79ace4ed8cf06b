package httpyerr

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// ErrUnexpectedBody is returned when an error response does not conform to
// the wire model.
var ErrUnexpectedBody = errors.New("unexpected error response body")

// Translator turns error responses into Go errors according to a Mapping.
type Translator struct {
	mapping *Mapping
}

// NewTranslator creates a Translator for the given mapping.
func NewTranslator(mapping *Mapping) *Translator {
	return &Translator{mapping: mapping}
}

// Translate inspects the response and returns nil for non-error statuses.
// For error statuses the body is parsed into the wire model and handed to
// the factory selected from the mapping. The response body is consumed.
func (t *Translator) Translate(resp *http.Response) error {
	if resp.StatusCode < 400 {
		return nil
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read error response: %w", err)
	}

	var body Body
	if err := json.Unmarshal(payload, &body); err != nil || body.ExceptionID == "" {
		return fmt.Errorf("%w (status %d): %s", ErrUnexpectedBody, resp.StatusCode, payload)
	}

	factory := t.mapping.Select(resp.StatusCode, body.ExceptionID)
	return factory(resp.StatusCode, body.ExceptionID, body.Description, body.Data)
}
