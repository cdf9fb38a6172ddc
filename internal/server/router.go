package server

import (
	"net/http"
	"time"

	"event-registration-platform/internal/handlers"
	"event-registration-platform/internal/middleware"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/sessions"
)

// Handlers groups the HTTP handlers mounted by the router
type Handlers struct {
	Cart    *handlers.CartHandler
	Order   *handlers.OrderHandler
	Payment *handlers.PaymentHandler
	Admin   *handlers.AdminHandler
}

// Options configures the router
type Options struct {
	SessionStore  sessions.Store
	SessionName   string
	AdminKeyHash  string
	CheckoutLimit *middleware.RateLimiter
	Timeout       time.Duration
	CORSOrigins   []string
	CSRF          bool
}

// NewRouter builds the chi router for the API
func NewRouter(h Handlers, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestIDMiddleware)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.LoggingMiddleware)
	r.Use(middleware.ErrorHandlingMiddleware)
	r.Use(middleware.SecureHeaders)
	if len(opts.CORSOrigins) > 0 {
		r.Use(middleware.CORSMiddleware(middleware.DefaultCORSConfig(opts.CORSOrigins)))
	}
	if opts.Timeout > 0 {
		r.Use(chimiddleware.Timeout(opts.Timeout))
	}

	r.NotFound(middleware.NotFoundHandler().ServeHTTP)
	r.MethodNotAllowed(middleware.MethodNotAllowedHandler().ServeHTTP)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Gateway callbacks carry no session; the signature authenticates them.
	r.Post("/payments/webhook", h.Payment.Webhook)

	auth := middleware.NewAuthMiddleware(opts.SessionStore, opts.SessionName)
	r.Group(func(r chi.Router) {
		r.Use(auth.LoadUser)
		r.Use(middleware.RequireUser)
		if opts.CSRF {
			r.Use(middleware.NewCSRFMiddleware(opts.SessionStore, opts.SessionName).Protect)
		}

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", h.Cart.GetCart)
			r.Delete("/", h.Cart.ClearCart)
			r.Post("/items", h.Cart.AddItem)
			r.Delete("/items/{eventID}", h.Cart.RemoveItem)
		})

		r.Route("/orders", func(r chi.Router) {
			r.With(checkoutLimit(opts.CheckoutLimit)).Post("/", h.Order.CreateOrder)
			r.Get("/{orderID}", h.Order.GetOrder)
			r.Post("/{orderID}/cancel", h.Order.CancelOrder)
			r.Post("/{orderID}/pay", h.Payment.InitiatePayment)
		})

		r.Get("/payments/{mtid}", h.Payment.GetPayment)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(middleware.RequireAdminKey(opts.AdminKeyHash))
		r.Post("/payments/{mtid}/override", h.Admin.OverridePayment)
		r.Get("/payments/{mtid}/audit", h.Admin.PaymentAudit)
		r.Post("/reconcile", h.Admin.Reconcile)
	})

	return r
}

func checkoutLimit(rl *middleware.RateLimiter) func(http.Handler) http.Handler {
	if rl == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return middleware.RateLimit(rl)
}
