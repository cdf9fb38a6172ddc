package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
)

const (
	OutboxPending = "pending"
	OutboxSent    = "sent"
	OutboxDead    = "dead"

	// DefaultOutboxMaxAttempts is how many failed publishes a message gets
	// before it is parked as dead.
	DefaultOutboxMaxAttempts = 10

	EventRegistrationConfirmed = "registration.confirmed"
	EventRegistrationCancelled = "registration.cancelled"
)

// OutboxMessage is a notification written in the same transaction as the
// state change it describes and relayed to the broker afterwards.
type OutboxMessage struct {
	ID          string     `json:"id" db:"id"`
	AggregateID string     `json:"aggregate_id" db:"aggregate_id"`
	EventType   string     `json:"event_type" db:"event_type"`
	Payload     []byte     `json:"payload" db:"payload"`
	Status      string     `json:"status" db:"status"`
	Attempts    int        `json:"attempts" db:"attempts"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	SentAt      *time.Time `json:"sent_at,omitempty" db:"sent_at"`
}

// RegistrationNotice is the payload of registration outbox messages
type RegistrationNotice struct {
	EventType      string    `json:"event_type"`
	RegistrationID int       `json:"registration_id"`
	UserID         int       `json:"user_id"`
	EventID        int       `json:"event_id"`
	PaymentID      int       `json:"payment_id"`
	OrderID        int       `json:"order_id"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// NewRegistrationMessage builds an outbox message for a registration change
func NewRegistrationMessage(eventType string, reg *Registration, orderID int) (*OutboxMessage, error) {
	payload, err := json.Marshal(RegistrationNotice{
		EventType:      eventType,
		RegistrationID: reg.ID,
		UserID:         reg.UserID,
		EventID:        reg.EventID,
		PaymentID:      reg.PaymentID,
		OrderID:        orderID,
		OccurredAt:     time.Now().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal registration notice: %w", err)
	}

	return &OutboxMessage{
		ID:          uuid.NewString(),
		AggregateID: strconv.Itoa(reg.ID),
		EventType:   eventType,
		Payload:     payload,
		Status:      OutboxPending,
		CreatedAt:   time.Now(),
	}, nil
}
