package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"event-registration-platform/internal/models"
)

// CartRepository stores per-user cart line items
type CartRepository struct {
	db *sql.DB
}

// NewCartRepository creates a new cart repository
func NewCartRepository(db *sql.DB) *CartRepository {
	return &CartRepository{db: db}
}

// AddItem appends an event to the user's cart. A second add of the same
// event is a ConflictError.
func (r *CartRepository) AddItem(ctx context.Context, userID, eventID int) (*models.CartItem, error) {
	query := `
		INSERT INTO cart_items (user_id, event_id, added_at)
		VALUES ($1, $2, $3)
		RETURNING event_id, added_at`

	item := &models.CartItem{}
	err := r.db.QueryRowContext(ctx, query, userID, eventID, time.Now()).Scan(&item.EventID, &item.AddedAt)
	if err != nil {
		if isUniqueViolation(err, "cart_items_pkey") {
			return nil, models.NewConflict("event %d is already in the cart", eventID)
		}
		return nil, fmt.Errorf("failed to add cart item: %w", err)
	}

	return item, nil
}

// RemoveItem removes an event from the cart. Removing an absent item is a no-op.
func (r *CartRepository) RemoveItem(ctx context.Context, userID, eventID int) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM cart_items WHERE user_id = $1 AND event_id = $2", userID, eventID)
	if err != nil {
		return fmt.Errorf("failed to remove cart item: %w", err)
	}
	return nil
}

// Clear empties the user's cart
func (r *CartRepository) Clear(ctx context.Context, userID int) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM cart_items WHERE user_id = $1", userID)
	if err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}

// GetByUser returns the user's cart in insertion order
func (r *CartRepository) GetByUser(ctx context.Context, userID int) (*models.Cart, error) {
	query := `
		SELECT event_id, added_at
		FROM cart_items
		WHERE user_id = $1
		ORDER BY added_at, event_id`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}
	defer rows.Close()

	cart := &models.Cart{UserID: userID, Items: []models.CartItem{}}
	for rows.Next() {
		var item models.CartItem
		if err := rows.Scan(&item.EventID, &item.AddedAt); err != nil {
			return nil, fmt.Errorf("failed to scan cart item: %w", err)
		}
		cart.Items = append(cart.Items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read cart: %w", err)
	}

	return cart, nil
}
