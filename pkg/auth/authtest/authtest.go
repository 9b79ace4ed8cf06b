// Package authtest provides JWK and token helpers for testing and demoing
// JWT based authentication.
package authtest

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/lestrrat-go/jwx/v3/jwt"
)

// KeyPair is a signing key pair for JSON web tokens.
type KeyPair struct {
	Private jwk.Key
	Public  jwk.Key
}

// GenerateKeyPair creates an EC P-256 key pair for signing and validating
// tokens with ES256.
func GenerateKeyPair() (KeyPair, error) {
	raw, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return KeyPair{}, fmt.Errorf("generate EC key: %w", err)
	}

	private, err := jwk.Import(raw)
	if err != nil {
		return KeyPair{}, fmt.Errorf("import private key: %w", err)
	}
	if err := private.Set(jwk.AlgorithmKey, jwa.ES256()); err != nil {
		return KeyPair{}, err
	}

	public, err := jwk.PublicKeyOf(private)
	if err != nil {
		return KeyPair{}, fmt.Errorf("derive public key: %w", err)
	}

	return KeyPair{Private: private, Public: public}, nil
}

// PublicJWK returns the public key as a JWK JSON string, suitable for the
// auth.JWTConfig Key field.
func (kp KeyPair) PublicJWK() (string, error) {
	data, err := json.Marshal(kp.Public)
	if err != nil {
		return "", fmt.Errorf("export public key: %w", err)
	}
	return string(data), nil
}

// SignClaims signs the given claims map into a serialized token.
func (kp KeyPair) SignClaims(claims map[string]any) (string, error) {
	token := jwt.New()
	for name, value := range claims {
		if err := token.Set(name, value); err != nil {
			return "", fmt.Errorf("set claim %q: %w", name, err)
		}
	}

	signed, err := jwt.Sign(token, jwt.WithKey(jwa.ES256(), kp.Private))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return string(signed), nil
}

// Token signs a token with the standard test claims (name, email, iat, exp
// valid for the given duration) merged with any extra claims.
func (kp KeyPair) Token(name string, valid time.Duration, extra map[string]any) (string, error) {
	now := time.Now()
	claims := map[string]any{
		"name":  name,
		"email": fmt.Sprintf("%s@test.dev", name),
		"iat":   now.Unix(),
		"exp":   now.Add(valid).Unix(),
	}
	for key, value := range extra {
		claims[key] = value
	}
	return kp.SignClaims(claims)
}
