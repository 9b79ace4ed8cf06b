// Package demo implements a small showcase service for the auth context
// machinery: a hangout with a public reception, a members-only lobby and
// a VIP lounge.
package demo

import "fmt"

// HangoutConfig holds the greeting templates.
type HangoutConfig struct {
	Greeting       string `yaml:"greeting"`
	VIPGreeting    string `yaml:"vip_greeting"`
	AnonymousAlias string `yaml:"anonymous_alias"`
}

// DefaultHangoutConfig returns the stock greetings.
func DefaultHangoutConfig() HangoutConfig {
	return HangoutConfig{
		Greeting:       "Hello, %s!",
		VIPGreeting:    "Hello, dear %s, have a beer!",
		AnonymousAlias: "anonymous user",
	}
}

// Hangout produces personalized welcome messages.
type Hangout struct {
	config HangoutConfig
}

// NewHangout creates a hangout with the given greetings.
func NewHangout(config HangoutConfig) *Hangout {
	return &Hangout{config: config}
}

// Reception greets everybody, named or not.
func (h *Hangout) Reception(name string) string {
	if name == "" {
		name = h.config.AnonymousAlias
	}
	return fmt.Sprintf(h.config.Greeting, name)
}

// Lobby greets an authenticated user.
func (h *Hangout) Lobby(name string) string {
	return fmt.Sprintf(h.config.Greeting, name)
}

// Lounge greets a VIP.
func (h *Hangout) Lounge(name string) string {
	return fmt.Sprintf(h.config.VIPGreeting, name)
}
