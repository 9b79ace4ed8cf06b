package demo

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/genomearc/servicekit/pkg/auth"
	"github.com/genomearc/servicekit/pkg/utcdates"
)

// Context is the auth context of the demo service.
type Context struct {
	Name    string       `json:"name"`
	Expires utcdates.UTC `json:"expires"`
	IsVIP   bool         `json:"is_vip"`
}

// JWTConfig returns the token validation settings for the demo context:
// tokens must carry a name and expiry, and the standard exp claim maps to
// the context's expires field.
func JWTConfig(publicJWK string) auth.JWTConfig {
	cfg := auth.DefaultJWTConfig()
	cfg.Key = publicJWK
	cfg.CheckClaims = []string{"name", "exp"}
	cfg.MapClaims = map[string]string{"exp": "expires", "iat": ""}
	return cfg
}

// User is one example account served by the users endpoint.
type User struct {
	Name  string `json:"name"`
	IsVIP bool   `json:"is_vip"`
	Token string `json:"token"`
}

// TokenIssuer signs a demo token for the named user.
type TokenIssuer func(name string, isVIP bool) (string, error)

func isVIP(ctx Context) bool {
	return ctx.IsVIP
}

func writeJSON(w http.ResponseWriter, body any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(body)
}

// Routes assembles the demo endpoints around the hangout and auth provider.
func Routes(hangout *Hangout, provider auth.Provider[Context], users []User, issue TokenIssuer) http.Handler {
	optional := auth.Optional[Context](provider)
	require := auth.Require[Context](provider)
	requireVIP := auth.Require[Context](provider, isVIP)

	mux := http.NewServeMux()

	mux.HandleFunc("/{$}", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, map[string]any{
			"message":   "Hello, world!",
			"endpoints": []string{"users", "status", "reception", "lobby", "lounge", "vip", "login/{user}"},
		})
	})

	mux.HandleFunc("/users", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, map[string]any{"users": users})
	})

	mux.Handle("/status", optional(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		status := "logged out"
		if ctx, ok := auth.FromRequest[Context](r); ok {
			status = "logged in until " + ctx.Expires.Format("2006-01-02 15:04:05") + " UTC"
		}
		writeJSON(w, map[string]string{"status": status})
	})))

	mux.Handle("/reception", optional(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var name string
		if ctx, ok := auth.FromRequest[Context](r); ok {
			name = ctx.Name
		}
		writeJSON(w, map[string]string{"message": hangout.Reception(name)})
	})))

	mux.Handle("/lobby", require(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, _ := auth.FromRequest[Context](r)
		writeJSON(w, map[string]string{"message": hangout.Lobby(ctx.Name)})
	})))

	mux.Handle("/lounge", requireVIP(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, _ := auth.FromRequest[Context](r)
		writeJSON(w, map[string]string{"message": hangout.Lounge(ctx.Name)})
	})))

	mux.Handle("/vip", requireVIP(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, _ := auth.FromRequest[Context](r)
		writeJSON(w, map[string]any{"vip": true, "name": ctx.Name})
	})))

	mux.HandleFunc("/login/{user}", func(w http.ResponseWriter, r *http.Request) {
		name := r.PathValue("user")
		vip := false
		for _, user := range users {
			if strings.EqualFold(user.Name, name) {
				name, vip = user.Name, user.IsVIP
				break
			}
		}
		token, err := issue(name, vip)
		if err != nil {
			http.Error(w, "could not issue token", http.StatusInternalServerError)
			return
		}
		writeJSON(w, map[string]any{"user": name, "is_vip": vip, "token": token})
	})

	return mux
}
