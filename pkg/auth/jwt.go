package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/lestrrat-go/jwx/v3/jwt"
)

// JWTConfig holds the parameters for JWT based auth context validation.
type JWTConfig struct {
	// Key is the public JWK (JSON) for validating token signatures.
	Key string `yaml:"auth_key"`
	// Algorithms lists the signature algorithms accepted for tokens.
	Algorithms []string `yaml:"auth_algs"`
	// CheckClaims lists claims that must be present in every token.
	CheckClaims []string `yaml:"auth_check_claims"`
	// MapClaims renames claims to context fields. An empty target drops
	// the claim from the context.
	MapClaims map[string]string `yaml:"auth_map_claims"`
}

// DefaultJWTConfig returns the JWT validation defaults.
func DefaultJWTConfig() JWTConfig {
	return JWTConfig{
		Algorithms:  []string{"ES256", "RS256"},
		CheckClaims: []string{"name", "email", "iat", "exp"},
	}
}

// JWTProvider validates JSON web tokens and decodes their claims into an
// auth context of type C.
type JWTProvider[C any] struct {
	key         jwk.Key
	algorithms  []jwa.SignatureAlgorithm
	checkClaims []string
	mapClaims   map[string]string
}

// NewJWTProvider creates a provider from the given configuration. The
// configured key must be a public, asymmetric JWK.
func NewJWTProvider[C any](cfg JWTConfig) (*JWTProvider[C], error) {
	key, err := jwk.ParseKey([]byte(cfg.Key))
	if err != nil {
		return nil, fmt.Errorf("no valid token signing key found in the configuration: %w", err)
	}
	switch key.(type) {
	case jwk.ECDSAPrivateKey, jwk.RSAPrivateKey, jwk.OKPPrivateKey:
		return nil, fmt.Errorf("private key found, only the public key must be configured")
	case jwk.SymmetricKey:
		return nil, fmt.Errorf("symmetric keys are not supported for token validation")
	}

	if len(cfg.Algorithms) == 0 {
		return nil, fmt.Errorf("no token signature algorithms configured")
	}
	algorithms := make([]jwa.SignatureAlgorithm, 0, len(cfg.Algorithms))
	for _, name := range cfg.Algorithms {
		alg, ok := jwa.LookupSignatureAlgorithm(name)
		if !ok {
			return nil, fmt.Errorf("unknown token signature algorithm: %q", name)
		}
		algorithms = append(algorithms, alg)
	}

	return &JWTProvider[C]{
		key:         key,
		algorithms:  algorithms,
		checkClaims: cfg.CheckClaims,
		mapClaims:   cfg.MapClaims,
	}, nil
}

// GetContext implements Provider.
func (p *JWTProvider[C]) GetContext(_ context.Context, token string) (C, error) {
	var zero C

	claims, err := p.decodeAndValidate(token)
	if err != nil {
		return zero, err
	}

	for claim, field := range p.mapClaims {
		value, ok := claims[claim]
		if !ok {
			return zero, fmt.Errorf("%w: missing claim %q", ErrContextValidation, claim)
		}
		delete(claims, claim)
		if field != "" {
			claims[field] = value
		}
	}

	payload, err := json.Marshal(claims)
	if err != nil {
		return zero, fmt.Errorf("%w: claims cannot be encoded: %w", ErrContextValidation, err)
	}
	var result C
	if err := json.Unmarshal(payload, &result); err != nil {
		return zero, fmt.Errorf("%w: invalid auth context: %w", ErrContextValidation, err)
	}
	return result, nil
}

func (p *JWTProvider[C]) decodeAndValidate(token string) (map[string]any, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: empty token", ErrContextValidation)
	}

	opts := []jwt.ParseOption{jwt.WithValidate(true)}
	for _, alg := range p.algorithms {
		opts = append(opts, jwt.WithKey(alg, p.key))
	}
	for _, claim := range p.checkClaims {
		opts = append(opts, jwt.WithRequiredClaim(claim))
	}

	parsed, err := jwt.Parse([]byte(token), opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: not a valid token: %w", ErrContextValidation, err)
	}

	serialized, err := json.Marshal(parsed)
	if err != nil {
		return nil, fmt.Errorf("%w: claims cannot be decoded: %w", ErrContextValidation, err)
	}
	decoder := json.NewDecoder(bytes.NewReader(serialized))
	decoder.UseNumber()
	var claims map[string]any
	if err := decoder.Decode(&claims); err != nil {
		return nil, fmt.Errorf("%w: claims cannot be decoded: %w", ErrContextValidation, err)
	}

	normalizeNumericDates(claims)
	return claims, nil
}

// normalizeNumericDates rewrites the registered timestamp claims from
// seconds since the epoch into RFC 3339 strings, so that contexts can
// declare them as utcdates.UTC fields.
func normalizeNumericDates(claims map[string]any) {
	for _, claim := range []string{"iat", "exp", "nbf", "auth_time"} {
		number, ok := claims[claim].(json.Number)
		if !ok {
			continue
		}
		seconds, err := number.Int64()
		if err != nil {
			continue
		}
		claims[claim] = time.Unix(seconds, 0).UTC().Format(time.RFC3339)
	}
}
