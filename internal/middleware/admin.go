package middleware

import (
	"log"
	"net/http"

	"event-registration-platform/internal/utils"
)

// AdminKeyHeader carries the admin override key
const AdminKeyHeader = "X-Admin-Key"

// RequireAdminKey guards admin routes with a key checked against an
// Argon2id hash. An empty hash disables the routes entirely.
func RequireAdminKey(keyHash string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if keyHash == "" {
				writeError(w, http.StatusForbidden, "admin access is not configured")
				return
			}

			key := r.Header.Get(AdminKeyHeader)
			if key == "" {
				writeError(w, http.StatusUnauthorized, "admin key required")
				return
			}

			ok, err := utils.VerifySecret(key, keyHash)
			if err != nil {
				log.Printf("[Admin] Failed to verify admin key: %v", err)
				writeError(w, http.StatusInternalServerError, "admin key verification failed")
				return
			}
			if !ok {
				log.Printf("[Admin] Rejected admin key from %s", getClientIP(r))
				writeError(w, http.StatusForbidden, "invalid admin key")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
