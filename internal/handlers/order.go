package handlers

import (
	"context"
	"log"
	"net/http"

	"event-registration-platform/internal/models"
	"event-registration-platform/internal/services"
)

// IdempotencyKeyHeader lets clients make checkout retries explicit
const IdempotencyKeyHeader = "Idempotency-Key"

// OrderService is the order behaviour the handler needs
type OrderService interface {
	CreateOrder(ctx context.Context, req services.CreateOrderRequest) (*models.Order, bool, error)
	GetOrder(ctx context.Context, userID, orderID int) (*models.Order, error)
	CancelOrder(ctx context.Context, userID, orderID int) (*models.Order, error)
}

// OrderHandler handles checkout and order requests
type OrderHandler struct {
	orderService OrderService
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(orderService OrderService) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

// CreateOrder turns the cart into an order. The first submission answers
// 201; repeats of the same submission answer 200 with the same order.
func (h *OrderHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	order, created, err := h.orderService.CreateOrder(r.Context(), services.CreateOrderRequest{
		UserID:         userID,
		IdempotencyKey: r.Header.Get(IdempotencyKeyHeader),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	status := http.StatusCreated
	if !created {
		log.Printf("[Checkout] Duplicate submission for user %d resolved to order %d", userID, order.ID)
		status = http.StatusOK
	}
	writeJSON(w, status, order)
}

// GetOrder returns one of the user's orders
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	orderID, err := pathInt(r, "orderID")
	if err != nil {
		writeError(w, r, err)
		return
	}

	order, err := h.orderService.GetOrder(r.Context(), userID, orderID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, order)
}

// CancelOrder cancels an unpaid order
func (h *OrderHandler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	orderID, err := pathInt(r, "orderID")
	if err != nil {
		writeError(w, r, err)
		return
	}

	order, err := h.orderService.CancelOrder(r.Context(), userID, orderID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, order)
}
