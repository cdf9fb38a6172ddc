package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The user-facing chain: session, authentication, CSRF, then the checkout limit.
func TestUserChainIntegration(t *testing.T) {
	store := NewSessionStore("test-secret-32-bytes-long-xxxxxx", false)
	auth := NewAuthMiddleware(store, "session")
	csrf := NewCSRFMiddleware(store, "session")
	rl := NewRateLimiter(1, time.Minute)

	chain := SecureHeaders(auth.LoadUser(RequireUser(csrf.Protect(RateLimit(rl)(okHandler())))))

	// Anonymous requests stop at authentication.
	rr := httptest.NewRecorder()
	chain.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/orders", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))

	// A signed-in GET picks up a token and a refreshed cookie.
	get := signedInRequest(t, auth, 9)
	first := httptest.NewRecorder()
	chain.ServeHTTP(first, get)
	require.Equal(t, http.StatusOK, first.Code)
	token := first.Header().Get(CSRFHeader)
	require.NotEmpty(t, token)

	post := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/orders", nil)
		for _, c := range first.Result().Cookies() {
			req.AddCookie(c)
		}
		req.Header.Set(CSRFHeader, token)
		rr := httptest.NewRecorder()
		chain.ServeHTTP(rr, req)
		return rr
	}

	// The GET consumed user 9's only slot.
	assert.Equal(t, http.StatusTooManyRequests, post().Code)
}

func TestUserChainIntegration_SessionSurvivesTokenIssue(t *testing.T) {
	store := NewSessionStore("test-secret-32-bytes-long-xxxxxx", false)
	auth := NewAuthMiddleware(store, "session")
	csrf := NewCSRFMiddleware(store, "session")

	var seen int
	chain := auth.LoadUser(RequireUser(csrf.Protect(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = GetUserIDFromContext(r.Context())
	}))))

	first := httptest.NewRecorder()
	chain.ServeHTTP(first, signedInRequest(t, auth, 12))
	token := first.Header().Get(CSRFHeader)

	req := httptest.NewRequest(http.MethodDelete, "/cart", nil)
	for _, c := range first.Result().Cookies() {
		req.AddCookie(c)
	}
	req.Header.Set(CSRFHeader, token)
	seen = 0
	chain.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, 12, seen, "rewritten cookie still carries the user id")
}
