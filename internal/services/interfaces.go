package services

import (
	"context"
	"time"

	"event-registration-platform/internal/models"
)

// EventCatalog supplies event existence and live prices
type EventCatalog interface {
	GetByID(ctx context.Context, id int) (*models.Event, error)
	GetPrices(ctx context.Context, ids []int) (map[int]int, error)
}

// CartRepository stores per-user carts
type CartRepository interface {
	AddItem(ctx context.Context, userID, eventID int) (*models.CartItem, error)
	RemoveItem(ctx context.Context, userID, eventID int) error
	Clear(ctx context.Context, userID int) error
	GetByUser(ctx context.Context, userID int) (*models.Cart, error)
}

// OrderRepository persists orders. CreateFromCart must snapshot and clear
// the cart atomically and deduplicate on (userID, idempotencyKey).
type OrderRepository interface {
	CreateFromCart(ctx context.Context, userID int, idempotencyKey string) (*models.Order, bool, error)
	GetByID(ctx context.Context, id int) (*models.Order, error)
	GetByIdempotencyKey(ctx context.Context, userID int, key string) (*models.Order, error)
	LatestByUserSince(ctx context.Context, userID int, since time.Time) (*models.Order, error)
	Cancel(ctx context.Context, id int) (bool, error)
}

// PaymentRepository persists payments. Transition is the only way to change
// a payment's status.
type PaymentRepository interface {
	Create(ctx context.Context, payment *models.Payment) error
	GetByMerchantTxnID(ctx context.Context, mtid string) (*models.Payment, error)
	Transition(ctx context.Context, mtid string, from, to models.PaymentStatus, gatewayTxnID string, raw []byte) (bool, error)
	ListPending(ctx context.Context, createdBefore time.Time, limit int) ([]*models.Payment, error)
	ListUnreconciled(ctx context.Context, limit int) ([]*models.Payment, error)
	ListUnsettledRefunds(ctx context.Context, limit int) ([]*models.Payment, error)
}

// RegistrationRepository applies the registration side of payment outcomes
type RegistrationRepository interface {
	ConfirmForPayment(ctx context.Context, payment *models.Payment) (*models.ReconcileResult, error)
	CancelForPayment(ctx context.Context, payment *models.Payment) (*models.RefundResult, error)
	ListByPayment(ctx context.Context, paymentID int) ([]*models.Registration, error)
}

// GatewayClient talks to the payment gateway over HTTP
type GatewayClient interface {
	Pay(ctx context.Context, request PayRequest) (*PayResponse, error)
	CheckStatus(ctx context.Context, mtid string) (*models.GatewayOutcome, error)
}

// DedupWindow maps a cart fingerprint to the idempotency key of the first
// submission seen inside the window.
type DedupWindow interface {
	Resolve(ctx context.Context, userID int, fingerprint, candidate string) (string, error)
}
