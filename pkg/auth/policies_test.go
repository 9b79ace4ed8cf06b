package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type dummyContext struct {
	Token string
}

// dummyProvider accepts every token that does not contain "invalid".
type dummyProvider struct{}

func (dummyProvider) GetContext(_ context.Context, token string) (dummyContext, error) {
	if strings.Contains(token, "invalid") {
		return dummyContext{}, fmt.Errorf("%w: bad token", ErrContextValidation)
	}
	return dummyContext{Token: token}, nil
}

func isSuper(ctx dummyContext) bool {
	return ctx.Token == "super"
}

func echoHandler(t *testing.T) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authctx, ok := FromRequest[dummyContext](r)
		if !ok {
			_, _ = w.Write([]byte("anonymous"))
			return
		}
		_, _ = w.Write([]byte(authctx.Token))
	})
}

func doRequest(t *testing.T, handler http.Handler, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func detailOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body["detail"]
}

func TestOptionalWithoutToken(t *testing.T) {
	handler := Optional[dummyContext](dummyProvider{})(echoHandler(t))
	rec := doRequest(t, handler, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "anonymous", rec.Body.String())
}

func TestOptionalWithInvalidToken(t *testing.T) {
	handler := Optional[dummyContext](dummyProvider{})(echoHandler(t))
	rec := doRequest(t, handler, "invalid")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid authentication credentials", detailOf(t, rec))
}

func TestOptionalWithValidToken(t *testing.T) {
	handler := Optional[dummyContext](dummyProvider{})(echoHandler(t))
	rec := doRequest(t, handler, "valid")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "valid", rec.Body.String())
}

func TestRequireWithoutToken(t *testing.T) {
	handler := Require[dummyContext](dummyProvider{})(echoHandler(t))
	rec := doRequest(t, handler, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Not authenticated", detailOf(t, rec))
	assert.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))
}

func TestRequireWithInvalidToken(t *testing.T) {
	handler := Require[dummyContext](dummyProvider{})(echoHandler(t))
	rec := doRequest(t, handler, "invalid")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid authentication credentials", detailOf(t, rec))
}

func TestRequireWithValidToken(t *testing.T) {
	handler := Require[dummyContext](dummyProvider{})(echoHandler(t))
	rec := doRequest(t, handler, "valid")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "valid", rec.Body.String())
}

func TestRequireWithHappyPredicate(t *testing.T) {
	handler := Require[dummyContext](dummyProvider{}, isSuper)(echoHandler(t))
	rec := doRequest(t, handler, "super")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "super", rec.Body.String())
}

func TestRequireWithUnhappyPredicate(t *testing.T) {
	handler := Require[dummyContext](dummyProvider{}, isSuper)(echoHandler(t))
	rec := doRequest(t, handler, "normal")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Not authorized", detailOf(t, rec))
}

func TestBearerTokenParsing(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"Bearer abc", "abc"},
		{"bearer abc", "abc"},
		{"Basic abc", ""},
		{"Bearer", ""},
		{"", ""},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if tt.header != "" {
			req.Header.Set("Authorization", tt.header)
		}
		assert.Equal(t, tt.want, bearerToken(req), "header %q", tt.header)
	}
}
