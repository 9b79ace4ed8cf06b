package correlation

import (
	"log/slog"
	"net/http"
)

// Middleware returns server middleware that establishes a correlation ID for
// every request. An incoming valid X-Request-Id header is kept; a missing or
// malformed one is replaced by a freshly generated ID. The ID is stored in
// the request context and echoed on the response.
func Middleware(logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(HeaderName)
			if err := Validate(id); err != nil {
				id = New()
				logger.Debug("Generated new correlation ID", "correlation_id", id)
			}

			ctx, err := ContextWith(r.Context(), id)
			if err != nil {
				// Cannot happen: the ID was just validated or generated.
				ctx = r.Context()
			}

			w.Header().Set(HeaderName, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
