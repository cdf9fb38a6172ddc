package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCORSMiddleware(t *testing.T) {
	handler := CORSMiddleware(DefaultCORSConfig([]string{"https://tickets.example.com", "*.staging.example.com"}))(okHandler())

	tests := []struct {
		name       string
		method     string
		origin     string
		preflight  bool
		wantStatus int
		wantOrigin string
	}{
		{"listed origin", http.MethodGet, "https://tickets.example.com", false, http.StatusOK, "https://tickets.example.com"},
		{"wildcard subdomain", http.MethodGet, "https://web.staging.example.com", false, http.StatusOK, "https://web.staging.example.com"},
		{"unlisted origin", http.MethodGet, "https://evil.example.org", false, http.StatusOK, ""},
		{"no origin", http.MethodGet, "", false, http.StatusOK, ""},
		{"preflight", http.MethodOptions, "https://tickets.example.com", true, http.StatusNoContent, "https://tickets.example.com"},
		{"unlisted preflight reaches router", http.MethodOptions, "https://evil.example.org", true, http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/orders", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			if tt.preflight {
				req.Header.Set("Access-Control-Request-Method", "POST")
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			assert.Equal(t, tt.wantStatus, rr.Code)
			assert.Equal(t, tt.wantOrigin, rr.Header().Get("Access-Control-Allow-Origin"))
			if tt.wantOrigin != "" {
				assert.Equal(t, "true", rr.Header().Get("Access-Control-Allow-Credentials"))
			}
			if tt.preflight && tt.wantStatus == http.StatusNoContent {
				assert.Contains(t, rr.Header().Get("Access-Control-Allow-Headers"), "Idempotency-Key")
			}
		})
	}
}
