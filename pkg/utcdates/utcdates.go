// Package utcdates provides a timestamp type that is pinned to the UTC zone.
//
// Services exchange timestamps as RFC 3339 strings. Values without an
// explicit offset are rejected on decode, and values with a non-UTC offset
// are normalized, so that every timestamp held in memory compares and
// serializes consistently.
package utcdates

import (
	"errors"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrMissingZone is returned when a timestamp string carries no offset.
var ErrMissingZone = errors.New("timestamp is missing a timezone")

// UTC is a time.Time that is always expressed in the UTC zone.
//
// It behaves like a plain time.Time but guarantees the zone on every value
// obtained through its constructors or decoders.
type UTC struct {
	time.Time
}

// Now returns the current time in UTC.
func Now() UTC {
	return UTC{time.Now().UTC()}
}

// Date constructs a UTC timestamp from its components.
func Date(year int, month time.Month, day, hour, min, sec, nsec int) UTC {
	return UTC{time.Date(year, month, day, hour, min, sec, nsec, time.UTC)}
}

// FromTime converts an arbitrary time.Time into the UTC zone.
func FromTime(t time.Time) UTC {
	return UTC{t.UTC()}
}

// Parse decodes an RFC 3339 timestamp and normalizes it to UTC.
// Strings without an offset are rejected with ErrMissingZone.
func Parse(value string) (UTC, error) {
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		// RFC 3339 always carries an offset; distinguish the common
		// mistake of sending a local timestamp without one.
		if _, layoutErr := time.Parse("2006-01-02T15:04:05", value); layoutErr == nil {
			return UTC{}, fmt.Errorf("%w: %q", ErrMissingZone, value)
		}
		return UTC{}, fmt.Errorf("parse timestamp %q: %w", value, err)
	}
	return UTC{t.UTC()}, nil
}

// MarshalText implements encoding.TextMarshaler using RFC 3339 with a Z suffix.
func (u UTC) MarshalText() ([]byte, error) {
	return []byte(u.UTC().Format(time.RFC3339Nano)), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (u *UTC) UnmarshalText(data []byte) error {
	parsed, err := Parse(string(data))
	if err != nil {
		return err
	}
	*u = parsed
	return nil
}

// MarshalJSON encodes the timestamp as a quoted RFC 3339 string.
func (u UTC) MarshalJSON() ([]byte, error) {
	text, err := u.MarshalText()
	if err != nil {
		return nil, err
	}
	return []byte(`"` + string(text) + `"`), nil
}

// UnmarshalJSON decodes a quoted RFC 3339 string.
func (u *UTC) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return fmt.Errorf("timestamp must be a JSON string, got %s", s)
	}
	return u.UnmarshalText([]byte(s[1 : len(s)-1]))
}

// MarshalYAML implements yaml.Marshaler.
func (u UTC) MarshalYAML() (any, error) {
	text, err := u.MarshalText()
	if err != nil {
		return nil, err
	}
	return string(text), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (u *UTC) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	return u.UnmarshalText([]byte(s))
}

// AssertLocalUTC verifies that the process-local timezone is UTC.
// Services that persist naive timestamps rely on this at startup.
func AssertLocalUTC() error {
	if _, offset := time.Now().Zone(); offset != 0 {
		return errors.New("system must be configured to use UTC")
	}
	return nil
}
