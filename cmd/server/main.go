package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"event-registration-platform/internal/app"
	"event-registration-platform/internal/config"
	"event-registration-platform/internal/handlers"
	"event-registration-platform/internal/middleware"
	"event-registration-platform/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	if cfg.Gateway.SaltKey == "" {
		log.Println("Warning: GATEWAY_SALT_KEY is empty, every webhook will be rejected")
	}
	if cfg.Admin.KeyHash == "" {
		log.Println("Warning: ADMIN_KEY_HASH is empty, admin routes are disabled")
	}

	db, err := app.OpenDatabase(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Database connection established successfully")

	if err := db.RunMigrations(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rdb := app.OpenRedis(ctx, cfg.Redis)
	if rdb != nil {
		defer rdb.Close()
	}

	svc := app.NewServices(cfg, db.DB, rdb)

	router := server.NewRouter(server.Handlers{
		Cart:    handlers.NewCartHandler(svc.Cart),
		Order:   handlers.NewOrderHandler(svc.Orders),
		Payment: handlers.NewPaymentHandler(svc.Payments, cfg.Gateway.AckUnknown),
		Admin:   handlers.NewAdminHandler(svc.NewAdmin(), svc.Audit),
	}, server.Options{
		SessionStore:  middleware.NewSessionStore(cfg.Session.Secret, cfg.IsProduction()),
		SessionName:   cfg.Session.Name,
		AdminKeyHash:  cfg.Admin.KeyHash,
		CheckoutLimit: middleware.NewRateLimiter(10, time.Minute),
		Timeout:       60 * time.Second,
		CORSOrigins:   cfg.Server.CORSOrigins,
		CSRF:          cfg.Session.CSRF,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 70 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Printf("Server starting on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server startup failed: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
		os.Exit(1)
	}

	log.Println("Server exiting")
}
