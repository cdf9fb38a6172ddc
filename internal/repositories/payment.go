package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"event-registration-platform/internal/models"
)

// PaymentRepository handles payment rows. Status changes only go through
// Transition, which is a compare-and-swap on the current status.
type PaymentRepository struct {
	db *sql.DB
}

// NewPaymentRepository creates a new payment repository
func NewPaymentRepository(db *sql.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

const paymentColumns = `id, user_id, order_id, merchant_transaction_id, gateway_transaction_id, amount, status, raw_response, created_at, updated_at`

// Create inserts a pending payment. A reused merchant transaction id is a
// ConflictError.
func (r *PaymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	now := time.Now()
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO payments (user_id, order_id, merchant_transaction_id, amount, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`,
		payment.UserID,
		payment.OrderID,
		payment.MerchantTransactionID,
		payment.Amount,
		models.PaymentPending,
		now,
		now,
	).Scan(&payment.ID, &payment.CreatedAt, &payment.UpdatedAt)

	if err != nil {
		if isUniqueViolation(err, "payments_merchant_transaction_id_key") {
			return models.NewConflict("merchant transaction id %s already used", payment.MerchantTransactionID)
		}
		return fmt.Errorf("failed to create payment: %w", err)
	}

	payment.Status = models.PaymentPending
	return nil
}

// GetByMerchantTxnID retrieves a payment by its merchant transaction id
func (r *PaymentRepository) GetByMerchantTxnID(ctx context.Context, mtid string) (*models.Payment, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+paymentColumns+" FROM payments WHERE merchant_transaction_id = $1", mtid)
	payment, err := scanPayment(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, models.NewNotFound("payment", mtid)
		}
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}
	return payment, nil
}

// Transition sets status to `to` only if it is currently `from`. It
// reports whether a row changed. The gateway transaction id is only
// written when non-empty and the raw response only when non-nil.
func (r *PaymentRepository) Transition(ctx context.Context, mtid string, from, to models.PaymentStatus, gatewayTxnID string, raw []byte) (bool, error) {
	var gatewayID interface{}
	if gatewayTxnID != "" {
		gatewayID = gatewayTxnID
	}

	result, err := r.db.ExecContext(ctx, `
		UPDATE payments
		SET status = $3,
			gateway_transaction_id = COALESCE($4, gateway_transaction_id),
			raw_response = COALESCE($5, raw_response),
			updated_at = NOW()
		WHERE merchant_transaction_id = $1 AND status = $2`,
		mtid, from, to, gatewayID, raw)
	if err != nil {
		return false, fmt.Errorf("failed to transition payment: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return rows == 1, nil
}

// ListPending returns pending payments created before the cutoff, oldest first
func (r *PaymentRepository) ListPending(ctx context.Context, createdBefore time.Time, limit int) ([]*models.Payment, error) {
	return r.list(ctx, `
		SELECT `+paymentColumns+`
		FROM payments
		WHERE status = 'pending' AND created_at < $1
		ORDER BY created_at
		LIMIT $2`, createdBefore, limit)
}

// ListUnreconciled returns successful payments whose order was never
// confirmed, meaning reconciliation did not complete.
func (r *PaymentRepository) ListUnreconciled(ctx context.Context, limit int) ([]*models.Payment, error) {
	return r.list(ctx, `
		SELECT p.id, p.user_id, p.order_id, p.merchant_transaction_id, p.gateway_transaction_id,
			p.amount, p.status, p.raw_response, p.created_at, p.updated_at
		FROM payments p
		JOIN orders o ON o.id = p.order_id
		WHERE p.status = 'success' AND o.status = 'created'
		ORDER BY p.updated_at
		LIMIT $1`, limit)
}

// ListUnsettledRefunds returns refunded payments whose order is still
// confirmed, meaning the refund effects did not complete.
func (r *PaymentRepository) ListUnsettledRefunds(ctx context.Context, limit int) ([]*models.Payment, error) {
	return r.list(ctx, `
		SELECT p.id, p.user_id, p.order_id, p.merchant_transaction_id, p.gateway_transaction_id,
			p.amount, p.status, p.raw_response, p.created_at, p.updated_at
		FROM payments p
		JOIN orders o ON o.id = p.order_id
		WHERE p.status = 'refunded' AND o.status = 'confirmed'
		ORDER BY p.updated_at
		LIMIT $1`, limit)
}

func (r *PaymentRepository) list(ctx context.Context, query string, args ...interface{}) ([]*models.Payment, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	defer rows.Close()

	var payments []*models.Payment
	for rows.Next() {
		payment, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		payments = append(payments, payment)
	}
	return payments, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPayment(row rowScanner) (*models.Payment, error) {
	payment := &models.Payment{}
	var gatewayID sql.NullString
	err := row.Scan(
		&payment.ID,
		&payment.UserID,
		&payment.OrderID,
		&payment.MerchantTransactionID,
		&gatewayID,
		&payment.Amount,
		&payment.Status,
		&payment.RawResponse,
		&payment.CreatedAt,
		&payment.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if gatewayID.Valid {
		payment.GatewayTransactionID = &gatewayID.String
	}
	return payment, nil
}
