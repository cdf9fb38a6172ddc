package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"event-registration-platform/internal/config"
	"event-registration-platform/internal/database"
	"event-registration-platform/internal/outbox"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := database.NewPool(ctx, cfg.Database.DSN(), 5)
	if err != nil {
		log.Fatalf("Unable to connect to database: %v", err)
	}
	defer pool.Close()
	log.Println("Connected to PostgreSQL")

	publisher, err := outbox.NewRabbitMQPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Queue)
	if err != nil {
		log.Fatalf("Unable to connect to RabbitMQ: %v", err)
	}
	defer publisher.Close()
	log.Printf("Connected to RabbitMQ, publishing to %s", cfg.RabbitMQ.Queue)

	relay := outbox.NewRelay(outbox.NewPgStore(pool, cfg.Outbox.MaxAttempts), publisher, cfg.Outbox.PollInterval, cfg.Outbox.BatchSize)
	relay.Start(ctx)
}
