package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strconv"
	"time"

	"event-registration-platform/internal/models"

	"github.com/lib/pq"
)

// OrderRepository handles order data operations
type OrderRepository struct {
	db *sql.DB
}

// NewOrderRepository creates a new order repository
func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

const orderColumns = `id, user_id, order_number, idempotency_key, total_amount, status, created_at, updated_at`

// CreateFromCart snapshots the user's cart into a new order and clears the
// snapshotted cart rows in the same transaction. If an order already exists
// for (userID, idempotencyKey) it is returned with created=false and the
// cart is left untouched. An empty cart yields models.ErrEmptyCart.
func (r *OrderRepository) CreateFromCart(ctx context.Context, userID int, idempotencyKey string) (*models.Order, bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	existing, err := r.getByIdempotencyKey(ctx, tx, userID, idempotencyKey)
	if err != nil && !models.IsNotFound(err) {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}

	// Lock the cart rows so a concurrent checkout of the same cart waits
	// here and then sees them gone.
	rows, err := tx.QueryContext(ctx, `
		SELECT c.event_id, e.price
		FROM cart_items c
		JOIN events e ON e.id = c.event_id
		WHERE c.user_id = $1
		ORDER BY c.added_at, c.event_id
		FOR UPDATE OF c`, userID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cart: %w", err)
	}

	var items []models.OrderItem
	for rows.Next() {
		var item models.OrderItem
		if err := rows.Scan(&item.EventID, &item.AmountSnapshot); err != nil {
			rows.Close()
			return nil, false, fmt.Errorf("failed to scan cart item: %w", err)
		}
		items = append(items, item)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("failed to read cart: %w", err)
	}

	if len(items) == 0 {
		return nil, false, models.ErrEmptyCart
	}

	order, err := models.NewOrder(userID, idempotencyKey, items)
	if err != nil {
		return nil, false, err
	}

	// Ensure order number is unique (retry if collision)
	for i := 0; i < 5; i++ {
		var exists bool
		err = tx.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM orders WHERE order_number = $1)", order.OrderNumber).Scan(&exists)
		if err != nil {
			return nil, false, fmt.Errorf("failed to check order number uniqueness: %w", err)
		}
		if !exists {
			break
		}
		order.OrderNumber = models.GenerateOrderNumber()
	}

	err = tx.QueryRowContext(ctx, `
		INSERT INTO orders (user_id, order_number, idempotency_key, total_amount, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id, idempotency_key) DO NOTHING
		RETURNING id`,
		order.UserID,
		order.OrderNumber,
		order.IdempotencyKey,
		order.TotalAmount,
		order.Status,
		order.CreatedAt,
		order.UpdatedAt,
	).Scan(&order.ID)

	if err == sql.ErrNoRows {
		// A concurrent submission with the same key committed first.
		tx.Rollback()
		winner, err := r.GetByIdempotencyKey(ctx, userID, idempotencyKey)
		if err != nil {
			return nil, false, err
		}
		return winner, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to create order: %w", err)
	}

	eventIDs := make([]int, len(order.Items))
	for i, item := range order.Items {
		eventIDs[i] = item.EventID
		_, err := tx.ExecContext(ctx, `
			INSERT INTO order_items (order_id, position, event_id, amount_snapshot)
			VALUES ($1, $2, $3, $4)`,
			order.ID, i, item.EventID, item.AmountSnapshot)
		if err != nil {
			return nil, false, fmt.Errorf("failed to create order item: %w", err)
		}
	}

	result, err := tx.ExecContext(ctx,
		"DELETE FROM cart_items WHERE user_id = $1 AND event_id = ANY($2)",
		userID, pq.Array(eventIDs))
	if err != nil {
		return nil, false, fmt.Errorf("failed to clear cart: %w", err)
	}
	cleared, err := result.RowsAffected()
	if err != nil {
		return nil, false, fmt.Errorf("failed to get affected rows: %w", err)
	}
	if int(cleared) != len(eventIDs) {
		return nil, false, models.NewConflict("cart changed during checkout")
	}

	if err = tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("failed to commit order creation: %w", err)
	}

	log.Printf("[Orders] Created order %s for user %d (%d items, total %d)", order.OrderNumber, userID, len(order.Items), order.TotalAmount)
	return order, true, nil
}

// GetByID retrieves an order with its item snapshot
func (r *OrderRepository) GetByID(ctx context.Context, id int) (*models.Order, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+orderColumns+" FROM orders WHERE id = $1", id)
	order, err := scanOrder(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, models.NewNotFound("order", strconv.Itoa(id))
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	if err := r.loadItems(ctx, r.db, order); err != nil {
		return nil, err
	}
	return order, nil
}

// GetByIdempotencyKey retrieves the order a user created with the given key
func (r *OrderRepository) GetByIdempotencyKey(ctx context.Context, userID int, key string) (*models.Order, error) {
	return r.getByIdempotencyKey(ctx, r.db, userID, key)
}

// LatestByUserSince returns the user's most recent order created after
// since that is still awaiting payment, or a NotFoundError.
func (r *OrderRepository) LatestByUserSince(ctx context.Context, userID int, since time.Time) (*models.Order, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE user_id = $1 AND created_at >= $2 AND status = 'created'
		ORDER BY created_at DESC, id DESC
		LIMIT 1`, userID, since)

	order, err := scanOrder(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, models.NewNotFound("recent order for user", strconv.Itoa(userID))
		}
		return nil, fmt.Errorf("failed to get latest order: %w", err)
	}

	if err := r.loadItems(ctx, r.db, order); err != nil {
		return nil, err
	}
	return order, nil
}

// Cancel moves the order from created to cancelled. It returns false when
// the order was not in created; nothing is changed in that case.
func (r *OrderRepository) Cancel(ctx context.Context, id int) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE orders
		SET status = $2, updated_at = NOW()
		WHERE id = $1 AND status = $3`,
		id, models.OrderCancelled, models.OrderCreated)
	if err != nil {
		return false, fmt.Errorf("failed to cancel order: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return rows == 1, nil
}

// queryer is satisfied by both *sql.DB and *sql.Tx
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

func (r *OrderRepository) getByIdempotencyKey(ctx context.Context, q queryer, userID int, key string) (*models.Order, error) {
	row := q.QueryRowContext(ctx,
		"SELECT "+orderColumns+" FROM orders WHERE user_id = $1 AND idempotency_key = $2",
		userID, key)

	order, err := scanOrder(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, models.NewNotFound("order with idempotency key", key)
		}
		return nil, fmt.Errorf("failed to get order by idempotency key: %w", err)
	}

	if err := r.loadItems(ctx, q, order); err != nil {
		return nil, err
	}
	return order, nil
}

func (r *OrderRepository) loadItems(ctx context.Context, q queryer, order *models.Order) error {
	items, err := loadOrderItems(ctx, q, order.ID)
	if err != nil {
		return err
	}
	order.Items = items
	return nil
}

func loadOrderItems(ctx context.Context, q queryer, orderID int) ([]models.OrderItem, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT event_id, amount_snapshot
		FROM order_items
		WHERE order_id = $1
		ORDER BY position`, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get order items: %w", err)
	}
	defer rows.Close()

	var items []models.OrderItem
	for rows.Next() {
		var item models.OrderItem
		if err := rows.Scan(&item.EventID, &item.AmountSnapshot); err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func scanOrder(row *sql.Row) (*models.Order, error) {
	order := &models.Order{}
	err := row.Scan(
		&order.ID,
		&order.UserID,
		&order.OrderNumber,
		&order.IdempotencyKey,
		&order.TotalAmount,
		&order.Status,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return order, nil
}
