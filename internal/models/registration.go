package models

import "time"

// RegistrationStatus represents the status of a registration
type RegistrationStatus string

const (
	RegistrationPending   RegistrationStatus = "pending"
	RegistrationConfirmed RegistrationStatus = "confirmed"
	RegistrationCancelled RegistrationStatus = "cancelled"
)

// Registration records a user's seat at an event. There is at most one per
// (user, event) pair.
type Registration struct {
	ID          int                `json:"id" db:"id"`
	UserID      int                `json:"user_id" db:"user_id"`
	EventID     int                `json:"event_id" db:"event_id"`
	PaymentID   int                `json:"payment_id" db:"payment_id"`
	Status      RegistrationStatus `json:"status" db:"status"`
	TeamName    *string            `json:"team_name,omitempty" db:"team_name"`
	TeamMembers []string           `json:"team_members,omitempty" db:"team_members"`
	CreatedAt   time.Time          `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at" db:"updated_at"`
}

// IsConfirmed returns true if the registration holds a seat
func (r *Registration) IsConfirmed() bool {
	return r.Status == RegistrationConfirmed
}

// ReconcileResult summarises one reconciliation pass over a payment
type ReconcileResult struct {
	PaymentID      int   `json:"payment_id"`
	OrderID        int   `json:"order_id"`
	Confirmed      []int `json:"confirmed_registration_ids"`
	AlreadyPresent int   `json:"already_present"`
	OrderConfirmed bool  `json:"order_confirmed"`
}

// RefundResult summarises the effects of a refund
type RefundResult struct {
	PaymentID     int   `json:"payment_id"`
	OrderID       int   `json:"order_id"`
	Cancelled     []int `json:"cancelled_registration_ids"`
	OrderRefunded bool  `json:"order_refunded"`
}
