package middleware

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	"github.com/Coritp27/sysga-sub002/pkg/requestcontext"
)

// RequireAdminToken gates scheduler/operator endpoints behind a shared token.
// When no token is configured the endpoints are disabled outright.
func RequireAdminToken(token string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token == "" {
				http.NotFound(w, r)
				return
			}
			presented := r.Header.Get("X-Admin-Token")
			if subtle.ConstantTimeCompare([]byte(presented), []byte(token)) != 1 {
				logger.WarnContext(r.Context(), "admin endpoint rejected",
					"request_id", requestcontext.RequestID(r.Context()),
				)
				writeUnauthorized(w, "Invalid admin token")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
