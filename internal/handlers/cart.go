package handlers

import (
	"context"
	"net/http"

	"event-registration-platform/internal/models"
	"event-registration-platform/internal/services"
)

// CartService is the cart behaviour the handler needs
type CartService interface {
	AddItem(ctx context.Context, userID, eventID int) (*models.CartItem, error)
	RemoveItem(ctx context.Context, userID, eventID int) error
	Clear(ctx context.Context, userID int) error
	GetCart(ctx context.Context, userID int) (*services.CartView, error)
}

// CartHandler handles cart requests
type CartHandler struct {
	cartService CartService
}

// NewCartHandler creates a new cart handler
func NewCartHandler(cartService CartService) *CartHandler {
	return &CartHandler{cartService: cartService}
}

type addCartItemRequest struct {
	EventID int `json:"event_id"`
}

// GetCart returns the user's cart with its live total
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	view, err := h.cartService.GetCart(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, view)
}

// AddItem adds an event to the cart
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req addCartItemRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	item, err := h.cartService.AddItem(r.Context(), userID, req.EventID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, item)
}

// RemoveItem removes an event from the cart
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	eventID, err := pathInt(r, "eventID")
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.cartService.RemoveItem(r.Context(), userID, eventID); err != nil {
		writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ClearCart empties the cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	if err := h.cartService.Clear(r.Context(), userID); err != nil {
		writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
