package outbox

import (
	"context"
	"fmt"
	"log"

	"event-registration-platform/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgStore reads the outbox table through a pgx pool. Rows are claimed with
// FOR UPDATE SKIP LOCKED so several relays can run side by side. A message
// that fails maxAttempts publishes is parked as dead.
type PgStore struct {
	db          *pgxpool.Pool
	maxAttempts int
}

// NewPgStore creates a new outbox store
func NewPgStore(db *pgxpool.Pool, maxAttempts int) *PgStore {
	if maxAttempts <= 0 {
		maxAttempts = models.DefaultOutboxMaxAttempts
	}
	return &PgStore{db: db, maxAttempts: maxAttempts}
}

// ProcessPending implements Store
func (s *PgStore) ProcessPending(ctx context.Context, limit int, handle func(*models.OutboxMessage) error) (int, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx, `
		SELECT id, aggregate_id, event_type, payload, status, attempts, created_at
		FROM outbox
		WHERE status = 'pending'
		ORDER BY attempts ASC, created_at ASC
		LIMIT $1
		FOR UPDATE SKIP LOCKED`, limit)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch outbox messages: %w", err)
	}

	messages, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*models.OutboxMessage, error) {
		msg := &models.OutboxMessage{}
		err := row.Scan(&msg.ID, &msg.AggregateID, &msg.EventType, &msg.Payload, &msg.Status, &msg.Attempts, &msg.CreatedAt)
		return msg, err
	})
	if err != nil {
		return 0, fmt.Errorf("failed to scan outbox messages: %w", err)
	}

	sent := 0
	for _, msg := range messages {
		if err := handle(msg); err != nil {
			var status string
			err := tx.QueryRow(ctx, `
				UPDATE outbox
				SET attempts = attempts + 1,
				    status = CASE WHEN attempts + 1 >= $2 THEN 'dead' ELSE status END
				WHERE id = $1
				RETURNING status`, msg.ID, s.maxAttempts).Scan(&status)
			if err != nil {
				return 0, fmt.Errorf("failed to record attempt for %s: %w", msg.ID, err)
			}
			if status == models.OutboxDead {
				log.Printf("[Relay] %s %s parked after %d failed attempts", msg.EventType, msg.ID, s.maxAttempts)
			}
			continue
		}

		if _, err := tx.Exec(ctx, "UPDATE outbox SET status = 'sent', sent_at = NOW(), attempts = attempts + 1 WHERE id = $1", msg.ID); err != nil {
			// Published but not marked: delivery is at-least-once.
			return 0, fmt.Errorf("failed to mark %s sent: %w", msg.ID, err)
		}
		sent++
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit outbox batch: %w", err)
	}

	if failed := len(messages) - sent; failed > 0 {
		log.Printf("[Relay] %d messages left pending for retry", failed)
	}
	return sent, nil
}
