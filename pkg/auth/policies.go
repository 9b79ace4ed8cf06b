package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
)

type policyContextKey struct{}

// FromRequest returns the auth context attached to the request by the
// Optional or Require middleware.
func FromRequest[C any](r *http.Request) (C, bool) {
	value, ok := r.Context().Value(policyContextKey{}).(C)
	return value, ok
}

// Optional returns middleware that attaches an auth context to the request
// when valid bearer credentials are presented. Requests without credentials
// pass through without a context; requests with invalid credentials are
// rejected with 401.
func Optional[C any](provider Provider[C]) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}
			authctx, err := provider.GetContext(r.Context(), token)
			if err != nil {
				unauthorized(w, "Invalid authentication credentials")
				return
			}
			next.ServeHTTP(w, withPolicyContext(r, authctx))
		})
	}
}

// Require returns middleware that rejects requests without a valid auth
// context. Additional predicates narrow the accepted contexts; a request
// whose context fails any predicate is rejected with 403.
func Require[C any](provider Provider[C], predicates ...func(C) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				w.Header().Set("WWW-Authenticate", "Bearer")
				unauthorized(w, "Not authenticated")
				return
			}
			authctx, err := provider.GetContext(r.Context(), token)
			if err != nil {
				unauthorized(w, "Invalid authentication credentials")
				return
			}
			for _, predicate := range predicates {
				if !predicate(authctx) {
					respondDetail(w, http.StatusForbidden, "Not authorized")
					return
				}
			}
			next.ServeHTTP(w, withPolicyContext(r, authctx))
		})
	}
}

func withPolicyContext[C any](r *http.Request, authctx C) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), policyContextKey{}, authctx))
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func unauthorized(w http.ResponseWriter, detail string) {
	respondDetail(w, http.StatusUnauthorized, detail)
}

func respondDetail(w http.ResponseWriter, statusCode int, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(map[string]string{"detail": detail})
}
