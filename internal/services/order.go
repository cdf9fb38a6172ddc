package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"event-registration-platform/internal/models"

	"github.com/google/uuid"
)

const (
	maxIdempotencyKeyLength = 128
	maxKeyRotations         = 5
)

// OrderService snapshots carts into orders and handles user cancellation
type OrderService struct {
	orders OrderRepository
	carts  CartRepository
	dedup  DedupWindow
	window time.Duration
	now    func() time.Time
}

// NewOrderService creates a new order service. dedup may be nil, in which
// case duplicate submissions without a key fall back to the recent-order
// check only.
func NewOrderService(orders OrderRepository, carts CartRepository, dedup DedupWindow, window time.Duration) *OrderService {
	return &OrderService{
		orders: orders,
		carts:  carts,
		dedup:  dedup,
		window: window,
		now:    time.Now,
	}
}

// CreateOrderRequest represents a checkout submission
type CreateOrderRequest struct {
	UserID         int
	IdempotencyKey string // optional, client generated
}

// CreateOrder turns the user's cart into an order. A repeated submission
// returns the order created by the first one with created=false.
func (s *OrderService) CreateOrder(ctx context.Context, req CreateOrderRequest) (*models.Order, bool, error) {
	if req.UserID <= 0 {
		return nil, false, models.NewValidation("user_id", "is required")
	}

	key := strings.TrimSpace(req.IdempotencyKey)
	if len(key) > maxIdempotencyKeyLength {
		return nil, false, models.NewValidation("idempotency_key", "is too long")
	}
	derived := key == ""

	if derived {
		cart, err := withRetry(ctx, "get cart", func() (*models.Cart, error) {
			return s.carts.GetByUser(ctx, req.UserID)
		})
		if err != nil {
			return nil, false, err
		}
		if cart.IsEmpty() {
			return s.recentOrder(ctx, req.UserID)
		}
		key = s.resolveKey(ctx, cart)
	}

	order, created, err := s.createFromCart(ctx, req.UserID, key)

	// A derived key can point at an order the user has since cancelled or
	// paid. Only an order still awaiting payment counts as a duplicate, so
	// move on to a key chained off the stale order.
	for attempt := 0; derived && err == nil && !created && order.Status != models.OrderCreated; attempt++ {
		if attempt == maxKeyRotations {
			return nil, false, models.NewConflict("checkout for user %d keeps resolving to closed orders", req.UserID)
		}
		key = rotatedKey(key, order.ID)
		order, created, err = s.createFromCart(ctx, req.UserID, key)
	}

	if errors.Is(err, models.ErrEmptyCart) {
		// A concurrent submission may have taken the cart.
		existing, lookupErr := s.orders.GetByIdempotencyKey(ctx, req.UserID, key)
		if lookupErr == nil && (!derived || existing.Status == models.OrderCreated) {
			return existing, false, nil
		}
		if lookupErr != nil && !models.IsNotFound(lookupErr) {
			return nil, false, lookupErr
		}
		if derived {
			return s.recentOrder(ctx, req.UserID)
		}
		return nil, false, err
	}
	if err != nil {
		return nil, false, err
	}

	if !created {
		log.Printf("[Orders] Duplicate submission for user %d returned order %s", req.UserID, order.OrderNumber)
	}
	return order, created, nil
}

func (s *OrderService) createFromCart(ctx context.Context, userID int, key string) (*models.Order, bool, error) {
	type outcome struct {
		order   *models.Order
		created bool
	}
	res, err := withRetry(ctx, "create order", func() (outcome, error) {
		order, created, err := s.orders.CreateFromCart(ctx, userID, key)
		return outcome{order, created}, err
	})
	return res.order, res.created, err
}

// rotatedKey derives the key that follows a key whose order is closed.
// Every submission that hits the same closed order lands on the same key.
func rotatedKey(key string, closedOrderID int) string {
	return fmt.Sprintf("%s-after-%d", key, closedOrderID)
}

// resolveKey derives the idempotency key for a submission without one
func (s *OrderService) resolveKey(ctx context.Context, cart *models.Cart) string {
	fingerprint := cart.Fingerprint()
	if s.dedup != nil {
		key, err := s.dedup.Resolve(ctx, cart.UserID, fingerprint, uuid.NewString())
		if err == nil {
			return key
		}
		log.Printf("[Orders] Dedup window unavailable, using time bucket: %v", err)
	}

	// Without the window store, submissions of the same cart inside one
	// bucket share a key.
	bucket := s.now().Unix()
	if secs := int64(s.window / time.Second); secs > 0 {
		bucket /= secs
	}
	return fmt.Sprintf("fp-%s-%d", fingerprint[:32], bucket)
}

// recentOrder returns the user's order still awaiting payment from inside
// the dedup window, or ErrEmptyCart when there is none.
func (s *OrderService) recentOrder(ctx context.Context, userID int) (*models.Order, bool, error) {
	order, err := s.orders.LatestByUserSince(ctx, userID, s.now().Add(-s.window))
	if err == nil {
		return order, false, nil
	}
	if models.IsNotFound(err) {
		return nil, false, models.ErrEmptyCart
	}
	return nil, false, err
}

// GetOrder returns an order owned by the user
func (s *OrderService) GetOrder(ctx context.Context, userID, orderID int) (*models.Order, error) {
	order, err := withRetry(ctx, "get order", func() (*models.Order, error) {
		return s.orders.GetByID(ctx, orderID)
	})
	if err != nil {
		return nil, err
	}

	// Other users' orders are reported as missing.
	if order.UserID != userID {
		return nil, models.NewNotFound("order", fmt.Sprint(orderID))
	}
	return order, nil
}

// CancelOrder cancels an order that is still awaiting payment
func (s *OrderService) CancelOrder(ctx context.Context, userID, orderID int) (*models.Order, error) {
	order, err := s.GetOrder(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}

	if !order.CanBeCancelled() {
		return nil, &models.StateError{Entity: "order", From: string(order.Status), To: string(models.OrderCancelled)}
	}

	cancelled, err := withRetry(ctx, "cancel order", func() (bool, error) {
		return s.orders.Cancel(ctx, orderID)
	})
	if err != nil {
		return nil, err
	}

	if !cancelled {
		// Status moved between the read and the conditional update.
		current, err := s.orders.GetByID(ctx, orderID)
		if err != nil {
			return nil, err
		}
		return nil, &models.StateError{Entity: "order", From: string(current.Status), To: string(models.OrderCancelled)}
	}

	order.Status = models.OrderCancelled
	log.Printf("[Orders] Order %s cancelled by user %d", order.OrderNumber, userID)
	return order, nil
}
