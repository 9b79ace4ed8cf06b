package demo

import (
	"fmt"
	"time"

	"github.com/genomearc/servicekit/pkg/auth/authtest"
)

// exampleAccounts are the built-in users of the demo service.
var exampleAccounts = []struct {
	name  string
	isVIP bool
}{
	{"Ada Lovelace", false},
	{"Grace Hopper", true},
	{"Charles Babbage", false},
	{"Alan Turing", true},
}

// Issuer returns a token issuer signing with the given key pair.
func Issuer(keys authtest.KeyPair, valid time.Duration) TokenIssuer {
	return func(name string, isVIP bool) (string, error) {
		now := time.Now()
		return keys.SignClaims(map[string]any{
			"name":   name,
			"is_vip": isVIP,
			"iat":    now.Unix(),
			"exp":    now.Add(valid).Unix(),
		})
	}
}

// ExampleUsers creates the built-in users with fresh tokens from the issuer.
func ExampleUsers(issue TokenIssuer) ([]User, error) {
	users := make([]User, 0, len(exampleAccounts))
	for _, account := range exampleAccounts {
		token, err := issue(account.name, account.isVIP)
		if err != nil {
			return nil, fmt.Errorf("signing token for %q: %w", account.name, err)
		}
		users = append(users, User{Name: account.name, IsVIP: account.isVIP, Token: token})
	}
	return users, nil
}
