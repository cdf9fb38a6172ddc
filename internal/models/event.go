package models

import "time"

// EventStatus represents the status of an event
type EventStatus string

const (
	StatusDraft     EventStatus = "draft"
	StatusPublished EventStatus = "published"
	StatusCancelled EventStatus = "cancelled"
)

// Event is the catalog view of an event used by checkout and reconciliation.
// Content fields (description, images, category) are owned elsewhere.
type Event struct {
	ID               int         `json:"id" db:"id"`
	Title            string      `json:"title" db:"title"`
	Price            int         `json:"price" db:"price"` // Price in cents
	ParticipantCount int         `json:"participant_count" db:"participant_count"`
	Status           EventStatus `json:"status" db:"status"`
	StartDate        time.Time   `json:"start_date" db:"start_date"`
	UpdatedAt        time.Time   `json:"updated_at" db:"updated_at"`
}

// EventCreateRequest represents a request to add an event to the catalog
type EventCreateRequest struct {
	Title     string      `json:"title"`
	Price     int         `json:"price"`
	Status    EventStatus `json:"status"`
	StartDate time.Time   `json:"start_date"`
}

// Validate validates the event creation request
func (r *EventCreateRequest) Validate() error {
	if r.Title == "" {
		return NewValidation("title", "is required")
	}
	if len(r.Title) > 255 {
		return NewValidation("title", "must be less than 255 characters")
	}
	if r.Price < 0 {
		return NewValidation("price", "cannot be negative")
	}
	switch r.Status {
	case StatusDraft, StatusPublished, StatusCancelled:
	default:
		return NewValidation("status", "must be draft, published or cancelled")
	}
	return nil
}

// IsPublished returns true if the event can be added to a cart
func (e *Event) IsPublished() bool {
	return e.Status == StatusPublished
}

// PriceInCurrency returns the price in the main currency unit
func (e *Event) PriceInCurrency() float64 {
	return float64(e.Price) / 100.0
}
