package models

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"regexp"
	"time"
)

// OrderStatus represents the status of an order
type OrderStatus string

const (
	OrderCreated   OrderStatus = "created"
	OrderConfirmed OrderStatus = "confirmed"
	OrderCancelled OrderStatus = "cancelled"
	OrderRefunded  OrderStatus = "refunded"
)

// Order is an immutable snapshot of a cart. Only Status may change after
// creation; Items and TotalAmount are fixed at creation time.
type Order struct {
	ID             int         `json:"id" db:"id"`
	UserID         int         `json:"user_id" db:"user_id"`
	OrderNumber    string      `json:"order_number" db:"order_number"`
	IdempotencyKey string      `json:"-" db:"idempotency_key"`
	Items          []OrderItem `json:"items"`
	TotalAmount    int         `json:"total_amount" db:"total_amount"` // Amount in cents
	Status         OrderStatus `json:"status" db:"status"`
	CreatedAt      time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at" db:"updated_at"`
}

// OrderItem is one line of the snapshot
type OrderItem struct {
	EventID        int `json:"event_id" db:"event_id"`
	AmountSnapshot int `json:"amount_snapshot" db:"amount_snapshot"` // Amount in cents
}

// Order number format: ORD-YYYYMMDD-XXXXXX (e.g., ORD-20240101-123456)
var orderNumberRegex = regexp.MustCompile(`^ORD-\d{8}-\d{6}$`)

// NewOrder builds a created order from a price snapshot and computes the
// total once.
func NewOrder(userID int, idempotencyKey string, items []OrderItem) (*Order, error) {
	if len(items) == 0 {
		return nil, NewConflict("cannot create an order from an empty cart")
	}

	snapshot := make([]OrderItem, len(items))
	copy(snapshot, items)

	total := 0
	for _, item := range snapshot {
		if item.AmountSnapshot < 0 {
			return nil, NewValidation("amount_snapshot", "cannot be negative")
		}
		total += item.AmountSnapshot
	}

	if err := validateOrderTotalAmount(total); err != nil {
		return nil, err
	}

	now := time.Now()
	return &Order{
		UserID:         userID,
		OrderNumber:    GenerateOrderNumber(),
		IdempotencyKey: idempotencyKey,
		Items:          snapshot,
		TotalAmount:    total,
		Status:         OrderCreated,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// Validate validates the order data
func (o *Order) Validate() error {
	if o.OrderNumber == "" {
		return NewValidation("order_number", "is required")
	}

	if !orderNumberRegex.MatchString(o.OrderNumber) {
		return NewValidation("order_number", "format is invalid")
	}

	if o.IdempotencyKey == "" {
		return NewValidation("idempotency_key", "is required")
	}

	if o.TotalAmount != o.SnapshotTotal() {
		return NewValidation("total_amount", "does not match item snapshot")
	}

	if err := validateOrderTotalAmount(o.TotalAmount); err != nil {
		return err
	}

	return validateOrderStatus(o.Status)
}

// SnapshotTotal sums the snapshotted item amounts
func (o *Order) SnapshotTotal() int {
	total := 0
	for _, item := range o.Items {
		total += item.AmountSnapshot
	}
	return total
}

// EventIDs returns the event ids covered by the order
func (o *Order) EventIDs() []int {
	ids := make([]int, 0, len(o.Items))
	for _, item := range o.Items {
		ids = append(ids, item.EventID)
	}
	return ids
}

// validateOrderTotalAmount validates an order total amount
func validateOrderTotalAmount(totalAmount int) error {
	if totalAmount < 0 {
		return NewValidation("total_amount", "cannot be negative")
	}

	// Maximum order amount of 100,000 (10,000,000 cents)
	if totalAmount > 10000000 {
		return NewValidation("total_amount", "cannot exceed 100,000")
	}

	return nil
}

// validateOrderStatus validates an order status
func validateOrderStatus(status OrderStatus) error {
	switch status {
	case OrderCreated, OrderConfirmed, OrderCancelled, OrderRefunded:
		return nil
	default:
		return NewValidation("status", "invalid order status")
	}
}

// GenerateOrderNumber generates a human readable order number
func GenerateOrderNumber() string {
	now := time.Now()
	dateStr := now.Format("20060102")

	max := big.NewInt(1000000)
	randomNum, err := rand.Int(rand.Reader, max)
	if err != nil {
		return fmt.Sprintf("ORD-%s-%06d", dateStr, now.UnixNano()%1000000)
	}

	return fmt.Sprintf("ORD-%s-%06d", dateStr, randomNum.Int64())
}

// CanBeCancelled returns true if the user may still cancel the order
func (o *Order) CanBeCancelled() bool {
	return o.Status == OrderCreated
}

// CanBeConfirmed returns true if a successful payment may confirm the order
func (o *Order) CanBeConfirmed() bool {
	return o.Status == OrderCreated
}

// CanBeRefunded returns true if the order can be refunded
func (o *Order) CanBeRefunded() bool {
	return o.Status == OrderConfirmed
}

// TotalAmountInCurrency returns the total amount in the main currency as a float
func (o *Order) TotalAmountInCurrency() float64 {
	return float64(o.TotalAmount) / 100.0
}

// GetStatusDisplayName returns a human-readable status name
func (o *Order) GetStatusDisplayName() string {
	switch o.Status {
	case OrderCreated:
		return "Awaiting Payment"
	case OrderConfirmed:
		return "Confirmed"
	case OrderCancelled:
		return "Cancelled"
	case OrderRefunded:
		return "Refunded"
	default:
		return string(o.Status)
	}
}
