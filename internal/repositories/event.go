package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"event-registration-platform/internal/models"

	"github.com/lib/pq"
)

// EventRepository is the catalog lookup used by checkout
type EventRepository struct {
	db *sql.DB
}

// NewEventRepository creates a new event repository
func NewEventRepository(db *sql.DB) *EventRepository {
	return &EventRepository{db: db}
}

// Create inserts a catalog event
func (r *EventRepository) Create(ctx context.Context, req *models.EventCreateRequest) (*models.Event, error) {
	query := `
		INSERT INTO events (title, price, status, start_date)
		VALUES ($1, $2, $3, $4)
		RETURNING id, title, price, participant_count, status, start_date, updated_at`

	event := &models.Event{}
	err := r.db.QueryRowContext(ctx, query, req.Title, req.Price, req.Status, req.StartDate).Scan(
		&event.ID,
		&event.Title,
		&event.Price,
		&event.ParticipantCount,
		&event.Status,
		&event.StartDate,
		&event.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	return event, nil
}

// GetByID retrieves an event by ID
func (r *EventRepository) GetByID(ctx context.Context, id int) (*models.Event, error) {
	query := `
		SELECT id, title, price, participant_count, status, start_date, updated_at
		FROM events
		WHERE id = $1`

	event := &models.Event{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&event.ID,
		&event.Title,
		&event.Price,
		&event.ParticipantCount,
		&event.Status,
		&event.StartDate,
		&event.UpdatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, models.NewNotFound("event", idKey(id))
		}
		return nil, fmt.Errorf("failed to get event: %w", err)
	}

	return event, nil
}

// GetPrices returns the live price of each requested event. Missing events
// are absent from the map.
func (r *EventRepository) GetPrices(ctx context.Context, ids []int) (map[int]int, error) {
	prices := make(map[int]int, len(ids))
	if len(ids) == 0 {
		return prices, nil
	}

	rows, err := r.db.QueryContext(ctx, "SELECT id, price FROM events WHERE id = ANY($1)", pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to get event prices: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id, price int
		if err := rows.Scan(&id, &price); err != nil {
			return nil, fmt.Errorf("failed to scan event price: %w", err)
		}
		prices[id] = price
	}

	return prices, rows.Err()
}

// adjustParticipants changes an event's participant counter inside tx
func adjustParticipants(ctx context.Context, tx *sql.Tx, eventID, delta int) error {
	result, err := tx.ExecContext(ctx, `
		UPDATE events
		SET participant_count = GREATEST(participant_count + $2, 0), updated_at = NOW()
		WHERE id = $1`, eventID, delta)
	if err != nil {
		return fmt.Errorf("failed to update participant count: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return models.NewNotFound("event", idKey(eventID))
	}

	return nil
}
