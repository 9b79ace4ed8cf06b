package auth

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/genomearc/servicekit/pkg/auth/authtest"
)

func newTestProvider(t *testing.T, modify func(*JWTConfig)) (*JWTProvider[Context], authtest.KeyPair) {
	t.Helper()

	keyPair, err := authtest.GenerateKeyPair()
	require.NoError(t, err)
	publicJWK, err := keyPair.PublicJWK()
	require.NoError(t, err)

	cfg := DefaultJWTConfig()
	cfg.Key = publicJWK
	if modify != nil {
		modify(&cfg)
	}

	provider, err := NewJWTProvider[Context](cfg)
	require.NoError(t, err)
	return provider, keyPair
}

func TestNewJWTProviderRejectsBadKeys(t *testing.T) {
	cfg := DefaultJWTConfig()

	cfg.Key = "not a key"
	_, err := NewJWTProvider[Context](cfg)
	require.Error(t, err)

	// A private key must not be accepted for validation.
	keyPair, err := authtest.GenerateKeyPair()
	require.NoError(t, err)

	cfg.Key = mustJSON(t, keyPair.Private)
	_, err = NewJWTProvider[Context](cfg)
	require.ErrorContains(t, err, "private key")
}

func TestNewJWTProviderRejectsUnknownAlgorithm(t *testing.T) {
	keyPair, err := authtest.GenerateKeyPair()
	require.NoError(t, err)
	publicJWK, err := keyPair.PublicJWK()
	require.NoError(t, err)

	cfg := DefaultJWTConfig()
	cfg.Key = publicJWK
	cfg.Algorithms = []string{"XX999"}
	_, err = NewJWTProvider[Context](cfg)
	require.Error(t, err)
}

func TestGetContextValidToken(t *testing.T) {
	provider, keyPair := newTestProvider(t, nil)

	token, err := keyPair.Token("john", time.Hour, map[string]any{
		"role":   "admin",
		"status": "active",
	})
	require.NoError(t, err)

	authctx, err := provider.GetContext(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "john", authctx.Name)
	assert.Equal(t, "john@test.dev", authctx.Email)
	assert.Equal(t, "admin", authctx.Role)
	assert.True(t, IsActive(authctx))
	assert.WithinDuration(t, time.Now().Add(time.Hour), authctx.Expires.Time, time.Minute)
}

func TestGetContextEmptyToken(t *testing.T) {
	provider, _ := newTestProvider(t, nil)

	_, err := provider.GetContext(context.Background(), "")
	require.ErrorIs(t, err, ErrContextValidation)
}

func TestGetContextGarbageToken(t *testing.T) {
	provider, _ := newTestProvider(t, nil)

	_, err := provider.GetContext(context.Background(), "not.a.token")
	require.ErrorIs(t, err, ErrContextValidation)
}

func TestGetContextExpiredToken(t *testing.T) {
	provider, keyPair := newTestProvider(t, nil)

	token, err := keyPair.Token("john", -time.Hour, nil)
	require.NoError(t, err)

	_, err = provider.GetContext(context.Background(), token)
	require.ErrorIs(t, err, ErrContextValidation)
}

func TestGetContextWrongKey(t *testing.T) {
	provider, _ := newTestProvider(t, nil)

	otherKeys, err := authtest.GenerateKeyPair()
	require.NoError(t, err)
	token, err := otherKeys.Token("john", time.Hour, nil)
	require.NoError(t, err)

	_, err = provider.GetContext(context.Background(), token)
	require.ErrorIs(t, err, ErrContextValidation)
}

func TestGetContextMissingRequiredClaim(t *testing.T) {
	provider, keyPair := newTestProvider(t, nil)

	now := time.Now()
	token, err := keyPair.SignClaims(map[string]any{
		// no email claim
		"name": "john",
		"iat":  now.Unix(),
		"exp":  now.Add(time.Hour).Unix(),
	})
	require.NoError(t, err)

	_, err = provider.GetContext(context.Background(), token)
	require.ErrorIs(t, err, ErrContextValidation)
}

func TestGetContextClaimMapping(t *testing.T) {
	type demoContext struct {
		Name    string `json:"name"`
		Expires string `json:"expires"`
	}

	keyPair, err := authtest.GenerateKeyPair()
	require.NoError(t, err)
	publicJWK, err := keyPair.PublicJWK()
	require.NoError(t, err)

	cfg := JWTConfig{
		Key:         publicJWK,
		Algorithms:  []string{"ES256"},
		CheckClaims: []string{"name", "exp"},
		MapClaims:   map[string]string{"exp": "expires", "email": ""},
	}
	provider, err := NewJWTProvider[demoContext](cfg)
	require.NoError(t, err)

	token, err := keyPair.Token("jane", time.Hour, nil)
	require.NoError(t, err)

	demo, err := provider.GetContext(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "jane", demo.Name)
	assert.NotEmpty(t, demo.Expires)
}

func TestGetContextMissingMappedClaim(t *testing.T) {
	keyPair, err := authtest.GenerateKeyPair()
	require.NoError(t, err)
	publicJWK, err := keyPair.PublicJWK()
	require.NoError(t, err)

	cfg := JWTConfig{
		Key:         publicJWK,
		Algorithms:  []string{"ES256"},
		CheckClaims: []string{"exp"},
		MapClaims:   map[string]string{"custom": "mapped"},
	}
	provider, err := NewJWTProvider[map[string]any](cfg)
	require.NoError(t, err)

	token, err := keyPair.Token("jane", time.Hour, nil)
	require.NoError(t, err)

	_, err = provider.GetContext(context.Background(), token)
	require.ErrorIs(t, err, ErrContextValidation)
	require.ErrorContains(t, err, "missing claim")
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return string(data)
}
