package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// PaymentStatus represents the status of a payment
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentSuccess  PaymentStatus = "success"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
)

// paymentTransitions lists the only legal payment status moves
var paymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentPending: {PaymentSuccess, PaymentFailed},
	PaymentSuccess: {PaymentRefunded},
}

// Payment is one payment attempt against an order. MerchantTransactionID is
// generated per attempt and never reused.
type Payment struct {
	ID                    int           `json:"id" db:"id"`
	UserID                int           `json:"user_id" db:"user_id"`
	OrderID               int           `json:"order_id" db:"order_id"`
	MerchantTransactionID string        `json:"merchant_transaction_id" db:"merchant_transaction_id"`
	GatewayTransactionID  *string       `json:"gateway_transaction_id,omitempty" db:"gateway_transaction_id"`
	Amount                int           `json:"amount" db:"amount"` // Amount in cents
	Status                PaymentStatus `json:"status" db:"status"`
	RawResponse           []byte        `json:"-" db:"raw_response"`
	CreatedAt             time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt             time.Time     `json:"updated_at" db:"updated_at"`
}

// NewMerchantTransactionID returns a fresh id for one initiation attempt.
// The gateway limits ids to 38 characters of [A-Za-z0-9_-].
func NewMerchantTransactionID() string {
	return "MT" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// CanTransition reports whether from -> to is a legal payment transition
func CanTransition(from, to PaymentStatus) bool {
	for _, next := range paymentTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsValid reports whether s is a known payment status
func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentPending, PaymentSuccess, PaymentFailed, PaymentRefunded:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition is possible
func (s PaymentStatus) IsTerminal() bool {
	return len(paymentTransitions[s]) == 0
}

// IsPending returns true if the payment is awaiting a gateway outcome
func (p *Payment) IsPending() bool {
	return p.Status == PaymentPending
}

// IsSuccessful returns true if the payment was captured
func (p *Payment) IsSuccessful() bool {
	return p.Status == PaymentSuccess
}

// AmountInCurrency returns the amount in the main currency as a float
func (p *Payment) AmountInCurrency() float64 {
	return float64(p.Amount) / 100.0
}

// GatewayOutcome is a parsed gateway report about one transaction, whether
// delivered by webhook or fetched by a status poll.
type GatewayOutcome struct {
	MerchantTransactionID string
	GatewayTransactionID  string
	Code                  string
	Status                PaymentStatus // pending, success or failed
	Raw                   []byte
}
