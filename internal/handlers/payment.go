package handlers

import (
	"context"
	"io"
	"log"
	"net/http"

	"event-registration-platform/internal/models"
	"event-registration-platform/internal/services"

	"github.com/go-chi/chi/v5"
)

// PaymentService is the payment behaviour the handler needs
type PaymentService interface {
	Initiate(ctx context.Context, userID, orderID int) (*services.InitiationResult, error)
	HandleCallback(ctx context.Context, rawBody []byte, signature string) (*services.TransitionResult, error)
	GetPayment(ctx context.Context, userID int, mtid string) (*models.Payment, error)
}

// PaymentHandler handles payment initiation, lookups and gateway callbacks
type PaymentHandler struct {
	paymentService PaymentService
	ackUnknown     bool
}

// NewPaymentHandler creates a new payment handler. With ackUnknown set the
// webhook answers 200 for transaction ids this system never issued.
func NewPaymentHandler(paymentService PaymentService, ackUnknown bool) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService, ackUnknown: ackUnknown}
}

type webhookResponse struct {
	Status  string               `json:"status"`
	Payment string               `json:"merchant_transaction_id,omitempty"`
	From    models.PaymentStatus `json:"from,omitempty"`
	To      models.PaymentStatus `json:"to,omitempty"`
}

// InitiatePayment starts a gateway payment for an order
func (h *PaymentHandler) InitiatePayment(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	orderID, err := pathInt(r, "orderID")
	if err != nil {
		writeError(w, r, err)
		return
	}

	result, err := h.paymentService.Initiate(r.Context(), userID, orderID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

// GetPayment returns one of the user's payments
func (h *PaymentHandler) GetPayment(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	payment, err := h.paymentService.GetPayment(r.Context(), userID, chi.URLParam(r, "mtid"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, payment)
}

// Webhook receives gateway callbacks. Replays answer 2xx so the gateway
// stops retrying; only signature, parse and state failures are non-2xx.
func (h *PaymentHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, r, models.NewValidation("body", "unreadable callback body"))
		return
	}

	result, err := h.paymentService.HandleCallback(r.Context(), body, r.Header.Get(services.SignatureHeader))
	if err != nil {
		if models.IsNotFound(err) && h.ackUnknown {
			log.Printf("[Webhook] Ignoring callback for unknown transaction: %v", err)
			writeJSON(w, http.StatusOK, webhookResponse{Status: "ignored"})
			return
		}
		if result != nil && result.Changed {
			// The transition is recorded; the reconciliation sweep repairs the rest.
			log.Printf("[Webhook] Payment %s moved to %s but follow-up failed: %v", result.Payment.MerchantTransactionID, result.To, err)
		} else {
			log.Printf("[Webhook] Callback rejected: %v", err)
		}
		writeError(w, r, err)
		return
	}

	resp := webhookResponse{
		Status:  "processed",
		Payment: result.Payment.MerchantTransactionID,
		From:    result.From,
		To:      result.To,
	}
	if !result.Changed {
		resp.Status = "unchanged"
	}
	writeJSON(w, http.StatusOK, resp)
}
