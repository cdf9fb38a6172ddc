package services

import (
	"context"
	"fmt"

	"event-registration-platform/internal/models"
)

// CartService manages a user's candidate line items. The cart always shows
// live prices; the order snapshot is the financial record.
type CartService struct {
	carts  CartRepository
	events EventCatalog
}

// NewCartService creates a new cart service
func NewCartService(carts CartRepository, events EventCatalog) *CartService {
	return &CartService{carts: carts, events: events}
}

// CartView is a cart with its current total
type CartView struct {
	*models.Cart
	Total int `json:"total"` // Amount in cents
}

// AddItem adds an event to the user's cart
func (s *CartService) AddItem(ctx context.Context, userID, eventID int) (*models.CartItem, error) {
	if eventID <= 0 {
		return nil, models.NewValidation("event_id", "must be positive")
	}

	event, err := withRetry(ctx, "get event", func() (*models.Event, error) {
		return s.events.GetByID(ctx, eventID)
	})
	if err != nil {
		return nil, err
	}
	if !event.IsPublished() {
		return nil, models.NewValidation("event_id", "event is not open for registration")
	}

	return s.carts.AddItem(ctx, userID, eventID)
}

// RemoveItem removes an event from the cart; absent items are ignored
func (s *CartService) RemoveItem(ctx context.Context, userID, eventID int) error {
	_, err := withRetry(ctx, "remove cart item", func() (struct{}, error) {
		return struct{}{}, s.carts.RemoveItem(ctx, userID, eventID)
	})
	return err
}

// Clear empties the user's cart
func (s *CartService) Clear(ctx context.Context, userID int) error {
	_, err := withRetry(ctx, "clear cart", func() (struct{}, error) {
		return struct{}{}, s.carts.Clear(ctx, userID)
	})
	return err
}

// GetCart returns the cart with its live total
func (s *CartService) GetCart(ctx context.Context, userID int) (*CartView, error) {
	cart, err := withRetry(ctx, "get cart", func() (*models.Cart, error) {
		return s.carts.GetByUser(ctx, userID)
	})
	if err != nil {
		return nil, err
	}

	total, err := s.total(ctx, cart)
	if err != nil {
		return nil, err
	}

	return &CartView{Cart: cart, Total: total}, nil
}

// GetTotal sums the live prices of the events in the cart
func (s *CartService) GetTotal(ctx context.Context, userID int) (int, error) {
	view, err := s.GetCart(ctx, userID)
	if err != nil {
		return 0, err
	}
	return view.Total, nil
}

func (s *CartService) total(ctx context.Context, cart *models.Cart) (int, error) {
	if cart.IsEmpty() {
		return 0, nil
	}

	prices, err := withRetry(ctx, "get prices", func() (map[int]int, error) {
		return s.events.GetPrices(ctx, cart.EventIDs())
	})
	if err != nil {
		return 0, fmt.Errorf("failed to price cart: %w", err)
	}

	total := 0
	for _, id := range cart.EventIDs() {
		price, ok := prices[id]
		if !ok {
			return 0, models.NewNotFound("event", fmt.Sprint(id))
		}
		total += price
	}
	return total, nil
}
