package middleware

import (
	"crypto/subtle"
	"log"
	"net/http"

	"event-registration-platform/internal/utils"

	"github.com/gorilla/sessions"
)

// CSRFHeader carries the session's CSRF token in both directions
const CSRFHeader = "X-CSRF-Token"

const sessionCSRFKey = "csrf_token"

// CSRFMiddleware protects cookie-authenticated state changes
type CSRFMiddleware struct {
	store       sessions.Store
	sessionName string
}

// NewCSRFMiddleware creates a new CSRF middleware
func NewCSRFMiddleware(store sessions.Store, sessionName string) *CSRFMiddleware {
	if sessionName == "" {
		sessionName = "session"
	}
	return &CSRFMiddleware{store: store, sessionName: sessionName}
}

// Protect issues a token on every response and requires it back on
// unsafe methods
func (m *CSRFMiddleware) Protect(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, err := m.store.Get(r, m.sessionName)
		if err != nil && session == nil {
			log.Printf("[CSRF] Failed to load session: %v", err)
			writeError(w, http.StatusInternalServerError, "session error")
			return
		}

		token, ok := session.Values[sessionCSRFKey].(string)
		if !ok || token == "" {
			token, err = utils.GenerateSecureToken(32)
			if err != nil {
				writeError(w, http.StatusInternalServerError, "failed to issue csrf token")
				return
			}
			session.Values[sessionCSRFKey] = token
			if err := session.Save(r, w); err != nil {
				log.Printf("[CSRF] Failed to save session: %v", err)
				writeError(w, http.StatusInternalServerError, "session error")
				return
			}
		}
		w.Header().Set(CSRFHeader, token)

		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			next.ServeHTTP(w, r)
			return
		}

		sent := r.Header.Get(CSRFHeader)
		if sent == "" || subtle.ConstantTimeCompare([]byte(sent), []byte(token)) != 1 {
			log.Printf("[CSRF] Token mismatch on %s %s", r.Method, r.URL.Path)
			writeError(w, http.StatusForbidden, "csrf token mismatch")
			return
		}

		next.ServeHTTP(w, r)
	})
}
