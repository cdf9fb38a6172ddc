package middleware

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/sessions"
)

type contextKey string

const (
	// UserIDContextKey is the context key for the authenticated user id
	UserIDContextKey contextKey = "user_id"
	// RequestIDContextKey is the context key for the request id
	RequestIDContextKey contextKey = "request_id"

	sessionUserIDKey = "user_id"
)

// AuthMiddleware resolves the caller from the session cookie. Identity
// itself is issued elsewhere; this service only reads the user id.
type AuthMiddleware struct {
	store       sessions.Store
	sessionName string
}

// NewAuthMiddleware creates a new authentication middleware
func NewAuthMiddleware(store sessions.Store, sessionName string) *AuthMiddleware {
	if sessionName == "" {
		sessionName = "session"
	}
	return &AuthMiddleware{store: store, sessionName: sessionName}
}

// LoadUser puts the session's user id, if any, on the request context
func (m *AuthMiddleware) LoadUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, err := m.store.Get(r, m.sessionName)
		if err != nil {
			log.Printf("[Auth] Ignoring unreadable session: %v", err)
			next.ServeHTTP(w, r)
			return
		}

		userID, ok := session.Values[sessionUserIDKey].(int)
		if !ok || userID <= 0 {
			next.ServeHTTP(w, r)
			return
		}

		next.ServeHTTP(w, r.WithContext(SetUserIDContext(r.Context(), userID)))
	})
}

// RequireUser rejects requests without an authenticated user
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := GetUserIDFromContext(r.Context()); !ok {
			writeError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// SignIn stores the user id in the session. Used by the identity flow and tests.
func (m *AuthMiddleware) SignIn(w http.ResponseWriter, r *http.Request, userID int) error {
	session, err := m.store.Get(r, m.sessionName)
	if err != nil && session == nil {
		return err
	}
	session.Values[sessionUserIDKey] = userID
	return session.Save(r, w)
}

// GetUserIDFromContext retrieves the user id from request context
func GetUserIDFromContext(ctx context.Context) (int, bool) {
	userID, ok := ctx.Value(UserIDContextKey).(int)
	return userID, ok && userID > 0
}

// SetUserIDContext sets the user id in the context
func SetUserIDContext(ctx context.Context, userID int) context.Context {
	return context.WithValue(ctx, UserIDContextKey, userID)
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
