package telemetry

import (
	"fmt"

	"go.opentelemetry.io/otel/attribute"
)

// Redactor strips or obscures sensitive span attributes before export.
// The zero value applies only the default deny-list: credential-bearing
// headers and raw request/response bodies are always dropped.
type Redactor struct {
	// Drop lists additional attribute keys to remove entirely.
	Drop []string
	// Mask lists attribute keys whose values keep only their first and
	// last characters.
	Mask []string
	// Hash lists attribute keys whose values are replaced by a
	// deterministic hash usable for correlation.
	Hash []string
}

var defaultDropKeys = map[string]struct{}{
	"http.request.header.authorization": {},
	"http.response.header.set_cookie":   {},
	"request.body":                      {},
	"response.body":                     {},
}

// Apply returns the attributes with the redaction policy applied.
func (r Redactor) Apply(attrs []attribute.KeyValue) []attribute.KeyValue {
	if len(attrs) == 0 {
		return attrs
	}

	drop := make(map[string]struct{}, len(defaultDropKeys)+len(r.Drop))
	for key := range defaultDropKeys {
		drop[key] = struct{}{}
	}
	for _, key := range r.Drop {
		drop[key] = struct{}{}
	}
	mask := make(map[string]struct{}, len(r.Mask))
	for _, key := range r.Mask {
		mask[key] = struct{}{}
	}
	hash := make(map[string]struct{}, len(r.Hash))
	for _, key := range r.Hash {
		hash[key] = struct{}{}
	}

	redacted := make([]attribute.KeyValue, 0, len(attrs))
	for _, kv := range attrs {
		key := string(kv.Key)
		if _, ok := drop[key]; ok {
			continue
		}
		if _, ok := mask[key]; ok {
			redacted = append(redacted, attribute.String(key, maskValue(kv.Value.AsString())))
			continue
		}
		if _, ok := hash[key]; ok {
			redacted = append(redacted, attribute.String(key, hashValue(kv.Value.AsString())))
			continue
		}
		redacted = append(redacted, kv)
	}
	return redacted
}

// maskValue shows partial data for debugging while protecting sensitive
// portions. Shows first 4 and last 4 characters with *** in between.
func maskValue(s string) string {
	if len(s) <= 8 {
		return "***" // Too short to mask meaningfully
	}
	return s[:4] + "***" + s[len(s)-4:]
}

// hashValue produces a deterministic hex hash for correlation tracking.
func hashValue(s string) string {
	if s == "" {
		return "[REDACTED:empty]"
	}
	hash := 0
	for _, ch := range s {
		hash = hash*31 + int(ch)
	}
	return fmt.Sprintf("[REDACTED:hash:%08x]", hash&0xFFFFFFFF)
}
