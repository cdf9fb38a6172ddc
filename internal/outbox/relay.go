package outbox

import (
	"context"
	"log"
	"time"

	"event-registration-platform/internal/models"
)

// Publisher delivers one outbox message to the broker
type Publisher interface {
	Publish(ctx context.Context, msg *models.OutboxMessage) error
}

// Store hands out pending messages. ProcessPending locks up to limit
// pending rows, calls handle for each, and marks the ones it accepted as
// sent before releasing them. Rows whose handler failed stay pending.
type Store interface {
	ProcessPending(ctx context.Context, limit int, handle func(*models.OutboxMessage) error) (int, error)
}

// Relay drains the outbox on a fixed interval
type Relay struct {
	store     Store
	publisher Publisher
	interval  time.Duration
	batchSize int
}

// NewRelay creates a new outbox relay
func NewRelay(store Store, publisher Publisher, interval time.Duration, batchSize int) *Relay {
	if interval <= 0 {
		interval = time.Second
	}
	if batchSize <= 0 {
		batchSize = 10
	}
	return &Relay{store: store, publisher: publisher, interval: interval, batchSize: batchSize}
}

// Start runs until ctx is cancelled
func (r *Relay) Start(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	log.Printf("[Relay] Started (interval %s, batch %d)", r.interval, r.batchSize)
	for {
		select {
		case <-ctx.Done():
			log.Println("[Relay] Stopped")
			return
		case <-ticker.C:
			if _, err := r.ProcessBatch(ctx); err != nil {
				log.Printf("[Relay] Batch failed: %v", err)
			}
		}
	}
}

// ProcessBatch publishes one batch and returns how many messages were sent
func (r *Relay) ProcessBatch(ctx context.Context) (int, error) {
	sent, err := r.store.ProcessPending(ctx, r.batchSize, func(msg *models.OutboxMessage) error {
		if err := r.publisher.Publish(ctx, msg); err != nil {
			log.Printf("[Relay] Failed to publish %s (%s): %v", msg.ID, msg.EventType, err)
			return err
		}
		return nil
	})
	if sent > 0 {
		log.Printf("[Relay] Published %d messages", sent)
	}
	return sent, err
}
