package models

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Cart represents a user's set of candidate events
type Cart struct {
	UserID int        `json:"user_id"`
	Items  []CartItem `json:"items"`
}

// CartItem represents a single event in the cart
type CartItem struct {
	EventID int       `json:"event_id" db:"event_id"`
	AddedAt time.Time `json:"added_at" db:"added_at"`
}

// IsEmpty returns true if the cart has no items
func (c *Cart) IsEmpty() bool {
	return c == nil || len(c.Items) == 0
}

// Contains returns true if the event is already in the cart
func (c *Cart) Contains(eventID int) bool {
	if c == nil {
		return false
	}
	for _, item := range c.Items {
		if item.EventID == eventID {
			return true
		}
	}
	return false
}

// EventIDs returns the event ids in cart order
func (c *Cart) EventIDs() []int {
	if c == nil {
		return nil
	}
	ids := make([]int, 0, len(c.Items))
	for _, item := range c.Items {
		ids = append(ids, item.EventID)
	}
	return ids
}

// Fingerprint identifies the cart content independent of item order and
// timestamps. Two submissions of the same events share a fingerprint.
func (c *Cart) Fingerprint() string {
	ids := c.EventIDs()
	sort.Ints(ids)

	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}

	sum := sha256.Sum256([]byte(strconv.Itoa(c.UserID) + ":" + strings.Join(parts, ",")))
	return hex.EncodeToString(sum[:])
}
