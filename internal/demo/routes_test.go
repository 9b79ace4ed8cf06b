package demo

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/genomearc/servicekit/pkg/auth"
	"github.com/genomearc/servicekit/pkg/auth/authtest"
)

type demoApp struct {
	handler http.Handler
	users   []User
}

func newDemoApp(t *testing.T) demoApp {
	t.Helper()
	keys, err := authtest.GenerateKeyPair()
	require.NoError(t, err)
	publicJWK, err := keys.PublicJWK()
	require.NoError(t, err)

	provider, err := auth.NewJWTProvider[Context](JWTConfig(publicJWK))
	require.NoError(t, err)

	issue := Issuer(keys, time.Hour)
	users, err := ExampleUsers(issue)
	require.NoError(t, err)

	return demoApp{
		handler: Routes(NewHangout(DefaultHangoutConfig()), provider, users, issue),
		users:   users,
	}
}

func (app demoApp) get(t *testing.T, path, token string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	app.handler.ServeHTTP(rec, req)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec, body
}

func (app demoApp) tokenFor(t *testing.T, name string) string {
	t.Helper()
	for _, user := range app.users {
		if user.Name == name {
			return user.Token
		}
	}
	t.Fatalf("no example user named %q", name)
	return ""
}

func TestRootEndpoint(t *testing.T) {
	app := newDemoApp(t)
	rec, body := app.get(t, "/", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Hello, world!", body["message"])
}

func TestUsersEndpoint(t *testing.T) {
	app := newDemoApp(t)
	rec, body := app.get(t, "/users", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	users, ok := body["users"].([]any)
	require.True(t, ok)
	assert.Len(t, users, 4)
}

func TestStatusLoggedOut(t *testing.T) {
	app := newDemoApp(t)
	rec, body := app.get(t, "/status", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "logged out", body["status"])
}

func TestStatusLoggedIn(t *testing.T) {
	app := newDemoApp(t)
	rec, body := app.get(t, "/status", app.tokenFor(t, "Ada Lovelace"))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, body["status"], "logged in until ")
}

func TestReceptionAnonymous(t *testing.T) {
	app := newDemoApp(t)
	rec, body := app.get(t, "/reception", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Hello, anonymous user!", body["message"])
}

func TestReceptionPersonalized(t *testing.T) {
	app := newDemoApp(t)
	rec, body := app.get(t, "/reception", app.tokenFor(t, "Ada Lovelace"))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Hello, Ada Lovelace!", body["message"])
}

func TestLobbyRequiresAuth(t *testing.T) {
	app := newDemoApp(t)
	rec, body := app.get(t, "/lobby", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Not authenticated", body["detail"])
}

func TestLobbyWithToken(t *testing.T) {
	app := newDemoApp(t)
	rec, body := app.get(t, "/lobby", app.tokenFor(t, "Charles Babbage"))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Hello, Charles Babbage!", body["message"])
}

func TestLoungeRequiresVIP(t *testing.T) {
	app := newDemoApp(t)
	rec, body := app.get(t, "/lounge", app.tokenFor(t, "Ada Lovelace"))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Not authorized", body["detail"])
}

func TestLoungeWithVIPToken(t *testing.T) {
	app := newDemoApp(t)
	rec, body := app.get(t, "/lounge", app.tokenFor(t, "Grace Hopper"))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Hello, dear Grace Hopper, have a beer!", body["message"])
}

func TestVIPEndpoint(t *testing.T) {
	app := newDemoApp(t)

	rec, body := app.get(t, "/vip", app.tokenFor(t, "Alan Turing"))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["vip"])
	assert.Equal(t, "Alan Turing", body["name"])

	rec, body = app.get(t, "/vip", app.tokenFor(t, "Ada Lovelace"))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Not authorized", body["detail"])
}

func TestLoginIssuesUsableToken(t *testing.T) {
	app := newDemoApp(t)

	rec, body := app.get(t, "/login/grace%20hopper", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Grace Hopper", body["user"])
	assert.Equal(t, true, body["is_vip"])

	token, ok := body["token"].(string)
	require.True(t, ok)
	rec, body = app.get(t, "/lounge", token)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Hello, dear Grace Hopper, have a beer!", body["message"])
}

func TestLoginUnknownUserIsNotVIP(t *testing.T) {
	app := newDemoApp(t)

	rec, body := app.get(t, "/login/Nobody", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, body["is_vip"])

	token, ok := body["token"].(string)
	require.True(t, ok)
	rec, _ = app.get(t, "/lounge", token)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestInvalidToken(t *testing.T) {
	app := newDemoApp(t)
	rec, body := app.get(t, "/lobby", "not-a-token")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid authentication credentials", body["detail"])
}
