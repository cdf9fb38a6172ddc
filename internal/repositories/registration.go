package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"event-registration-platform/internal/models"

	"github.com/lib/pq"
)

// RegistrationRepository turns payments into registrations. Each method
// runs in a single transaction together with the counter updates, the
// order status change and the outbox rows it implies.
type RegistrationRepository struct {
	db *sql.DB
}

// NewRegistrationRepository creates a new registration repository
func NewRegistrationRepository(db *sql.DB) *RegistrationRepository {
	return &RegistrationRepository{db: db}
}

// ConfirmForPayment confirms one registration per order item of the
// payment. Pairs that already hold a confirmed registration are left alone
// and counted as already present; the participant counter moves only for
// rows this call actually confirmed. Safe to re-run.
func (r *RegistrationRepository) ConfirmForPayment(ctx context.Context, payment *models.Payment) (*models.ReconcileResult, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	items, err := loadOrderItems(ctx, tx, payment.OrderID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, models.NewNotFound("order items for order", idKey(payment.OrderID))
	}

	result := &models.ReconcileResult{PaymentID: payment.ID, OrderID: payment.OrderID}

	for _, item := range items {
		reg := &models.Registration{
			UserID:    payment.UserID,
			EventID:   item.EventID,
			PaymentID: payment.ID,
			Status:    models.RegistrationConfirmed,
		}

		// The conflict arm only fires for pending or cancelled rows, so an
		// existing confirmed registration returns no row.
		err := tx.QueryRowContext(ctx, `
			INSERT INTO registrations (user_id, event_id, payment_id, status, created_at, updated_at)
			VALUES ($1, $2, $3, 'confirmed', NOW(), NOW())
			ON CONFLICT ON CONSTRAINT registrations_user_event DO UPDATE
				SET status = 'confirmed', payment_id = EXCLUDED.payment_id, updated_at = NOW()
				WHERE registrations.status <> 'confirmed'
			RETURNING id, created_at, updated_at`,
			reg.UserID, reg.EventID, reg.PaymentID,
		).Scan(&reg.ID, &reg.CreatedAt, &reg.UpdatedAt)

		if err == sql.ErrNoRows {
			result.AlreadyPresent++
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to confirm registration for event %d: %w", item.EventID, err)
		}

		if err := adjustParticipants(ctx, tx, item.EventID, 1); err != nil {
			return nil, err
		}

		msg, err := models.NewRegistrationMessage(models.EventRegistrationConfirmed, reg, payment.OrderID)
		if err != nil {
			return nil, err
		}
		if err := insertOutbox(ctx, tx, msg); err != nil {
			return nil, err
		}

		result.Confirmed = append(result.Confirmed, reg.ID)
	}

	confirmed, err := setOrderStatus(ctx, tx, payment.OrderID, models.OrderCreated, models.OrderConfirmed)
	if err != nil {
		return nil, err
	}
	result.OrderConfirmed = confirmed

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit reconciliation: %w", err)
	}

	return result, nil
}

// CancelForPayment cancels the confirmed registrations created by the
// payment, releases their seats and marks the order refunded.
func (r *RegistrationRepository) CancelForPayment(ctx context.Context, payment *models.Payment) (*models.RefundResult, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, `
		UPDATE registrations
		SET status = 'cancelled', updated_at = NOW()
		WHERE payment_id = $1 AND status = 'confirmed'
		RETURNING id, user_id, event_id, payment_id, status, created_at, updated_at`, payment.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to cancel registrations: %w", err)
	}

	var cancelled []*models.Registration
	for rows.Next() {
		reg := &models.Registration{}
		if err := rows.Scan(&reg.ID, &reg.UserID, &reg.EventID, &reg.PaymentID, &reg.Status, &reg.CreatedAt, &reg.UpdatedAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan registration: %w", err)
		}
		cancelled = append(cancelled, reg)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to cancel registrations: %w", err)
	}

	result := &models.RefundResult{PaymentID: payment.ID, OrderID: payment.OrderID}
	for _, reg := range cancelled {
		if err := adjustParticipants(ctx, tx, reg.EventID, -1); err != nil {
			return nil, err
		}

		msg, err := models.NewRegistrationMessage(models.EventRegistrationCancelled, reg, payment.OrderID)
		if err != nil {
			return nil, err
		}
		if err := insertOutbox(ctx, tx, msg); err != nil {
			return nil, err
		}
		result.Cancelled = append(result.Cancelled, reg.ID)
	}

	refunded, err := setOrderStatus(ctx, tx, payment.OrderID, models.OrderConfirmed, models.OrderRefunded)
	if err != nil {
		return nil, err
	}
	result.OrderRefunded = refunded

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit refund: %w", err)
	}

	return result, nil
}

// ListByPayment returns the registrations linked to a payment
func (r *RegistrationRepository) ListByPayment(ctx context.Context, paymentID int) ([]*models.Registration, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, event_id, payment_id, status, team_name, team_members, created_at, updated_at
		FROM registrations
		WHERE payment_id = $1
		ORDER BY id`, paymentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list registrations: %w", err)
	}
	defer rows.Close()

	var registrations []*models.Registration
	for rows.Next() {
		reg := &models.Registration{}
		var teamName sql.NullString
		if err := rows.Scan(
			&reg.ID,
			&reg.UserID,
			&reg.EventID,
			&reg.PaymentID,
			&reg.Status,
			&teamName,
			pq.Array(&reg.TeamMembers),
			&reg.CreatedAt,
			&reg.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan registration: %w", err)
		}
		if teamName.Valid {
			reg.TeamName = &teamName.String
		}
		registrations = append(registrations, reg)
	}
	return registrations, rows.Err()
}

// setOrderStatus is the compare-and-swap on order status
func setOrderStatus(ctx context.Context, tx *sql.Tx, orderID int, from, to models.OrderStatus) (bool, error) {
	result, err := tx.ExecContext(ctx, `
		UPDATE orders
		SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2`, orderID, from, to)
	if err != nil {
		return false, fmt.Errorf("failed to update order status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return rows == 1, nil
}

func insertOutbox(ctx context.Context, tx *sql.Tx, msg *models.OutboxMessage) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO outbox (id, aggregate_id, event_type, payload, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		msg.ID, msg.AggregateID, msg.EventType, string(msg.Payload), msg.Status, msg.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to write outbox message: %w", err)
	}
	return nil
}
