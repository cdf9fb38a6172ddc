package app

import (
	"context"
	"database/sql"
	"log"

	"event-registration-platform/internal/config"
	"event-registration-platform/internal/database"
	"event-registration-platform/internal/repositories"
	"event-registration-platform/internal/services"

	"github.com/redis/go-redis/v9"
)

// Services holds the wired domain services shared by the binaries
type Services struct {
	Cart       *services.CartService
	Orders     *services.OrderService
	Payments   *services.PaymentService
	Machine    *services.PaymentStateMachine
	Reconciler *services.Reconciler
	Poller     *services.StatusPoller
	Audit      *services.AuditService
}

// OpenDatabase connects to Postgres with the configured settings
func OpenDatabase(cfg *config.Config) (*database.DB, error) {
	return database.NewConnection(database.Config{
		URL:      cfg.Database.URL,
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		DBName:   cfg.Database.DBName,
		SSLMode:  cfg.Database.SSLMode,
	})
}

// OpenRedis connects to Redis. A nil client means checkout runs without
// the shared dedup window.
func OpenRedis(ctx context.Context, cfg config.RedisConfig) *redis.Client {
	if cfg.Addr == "" {
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		log.Printf("Warning: Redis unavailable at %s, dedup falls back to time buckets: %v", cfg.Addr, err)
		client.Close()
		return nil
	}

	log.Println("Redis connected successfully")
	return client
}

// NewServices wires repositories and services over one database handle
func NewServices(cfg *config.Config, db *sql.DB, rdb *redis.Client) *Services {
	eventRepo := repositories.NewEventRepository(db)
	cartRepo := repositories.NewCartRepository(db)
	orderRepo := repositories.NewOrderRepository(db)
	paymentRepo := repositories.NewPaymentRepository(db)
	registrationRepo := repositories.NewRegistrationRepository(db)

	var dedup services.DedupWindow
	if rdb != nil {
		dedup = services.NewRedisDedupWindow(rdb, cfg.Checkout.DedupWindow)
	}

	gatewayConfig := services.GatewayConfig{
		MerchantID:  cfg.Gateway.MerchantID,
		BaseURL:     cfg.Gateway.BaseURL,
		CallbackURL: cfg.Gateway.CallbackURL,
		RedirectURL: cfg.Gateway.RedirectURL,
		Timeout:     cfg.Gateway.Timeout,
	}
	checksum := services.NewChecksumService(cfg.Gateway.SaltKey, cfg.Gateway.SaltIndex)
	gateway := services.NewHTTPGatewayClient(gatewayConfig, checksum)

	reconciler := services.NewReconciler(registrationRepo, paymentRepo)
	machine := services.NewPaymentStateMachine(paymentRepo, reconciler)

	return &Services{
		Cart:       services.NewCartService(cartRepo, eventRepo),
		Orders:     services.NewOrderService(orderRepo, cartRepo, dedup, cfg.Checkout.DedupWindow),
		Payments:   services.NewPaymentService(orderRepo, paymentRepo, gateway, checksum, machine, gatewayConfig),
		Machine:    machine,
		Reconciler: reconciler,
		Poller:     services.NewStatusPoller(paymentRepo, gateway, machine),
		Audit:      services.NewAuditService(repositories.NewAuditLogRepository(db)),
	}
}

// Admin exposes the operator operations as one value
type Admin struct {
	*services.PaymentStateMachine
	*services.Reconciler
}

// NewAdmin returns the operator view of the services
func (s *Services) NewAdmin() Admin {
	return Admin{PaymentStateMachine: s.Machine, Reconciler: s.Reconciler}
}
