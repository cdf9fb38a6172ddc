package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"strings"

	"event-registration-platform/internal/models"
)

// SignatureHeader carries the callback checksum
const SignatureHeader = "X-VERIFY"

// PaymentService starts payments and accepts gateway callbacks. Every
// status change it causes goes through the state machine.
type PaymentService struct {
	orders   OrderRepository
	payments PaymentRepository
	gateway  GatewayClient
	checksum *ChecksumService
	machine  *PaymentStateMachine
	config   GatewayConfig
}

// NewPaymentService creates a new payment service
func NewPaymentService(orders OrderRepository, payments PaymentRepository, gateway GatewayClient, checksum *ChecksumService, machine *PaymentStateMachine, config GatewayConfig) *PaymentService {
	return &PaymentService{
		orders:   orders,
		payments: payments,
		gateway:  gateway,
		checksum: checksum,
		machine:  machine,
		config:   config,
	}
}

// InitiationResult is a started payment and where to send the user
type InitiationResult struct {
	Payment     *models.Payment `json:"payment"`
	RedirectURL string          `json:"redirect_url"`
}

// Initiate creates a pending payment for the order and asks the gateway for
// a payment page. Each call uses a new merchant transaction id.
func (s *PaymentService) Initiate(ctx context.Context, userID, orderID int) (*InitiationResult, error) {
	order, err := withRetry(ctx, "get order", func() (*models.Order, error) {
		return s.orders.GetByID(ctx, orderID)
	})
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, models.NewNotFound("order", strconv.Itoa(orderID))
	}
	if order.Status != models.OrderCreated {
		return nil, &models.StateError{Entity: "order", From: string(order.Status), To: "paid"}
	}

	payment := &models.Payment{
		UserID:                userID,
		OrderID:               order.ID,
		MerchantTransactionID: models.NewMerchantTransactionID(),
		Amount:                order.TotalAmount,
		Status:                models.PaymentPending,
	}

	// No outbound request without a stored payment row.
	if _, err := withRetry(ctx, "create payment", func() (struct{}, error) {
		return struct{}{}, s.payments.Create(ctx, payment)
	}); err != nil {
		return nil, err
	}

	resp, err := s.gateway.Pay(ctx, PayRequest{
		MerchantID:            s.config.MerchantID,
		MerchantTransactionID: payment.MerchantTransactionID,
		MerchantUserID:        "U" + strconv.Itoa(userID),
		Amount:                payment.Amount,
		RedirectURL:           s.config.RedirectURL + "?mtid=" + payment.MerchantTransactionID,
		RedirectMode:          "POST",
		CallbackURL:           s.config.CallbackURL + "?mtid=" + payment.MerchantTransactionID,
		PaymentInstrument:     PaymentInstrument{Type: "PAY_PAGE"},
	})
	if err != nil {
		// The payment stays pending; the status poll will settle it.
		return nil, fmt.Errorf("failed to initiate gateway payment %s: %w", payment.MerchantTransactionID, err)
	}

	log.Printf("[Payments] Initiated %s for order %s (amount %d)", payment.MerchantTransactionID, order.OrderNumber, payment.Amount)
	return &InitiationResult{Payment: payment, RedirectURL: resp.RedirectURL}, nil
}

// CallbackPayload is the gateway's webhook body
type CallbackPayload struct {
	MerchantTransactionID string `json:"merchantTransactionId"`
	GatewayTransactionID  string `json:"gatewayTransactionId"`
	Code                  string `json:"code"`
	Status                string `json:"status"`
}

// HandleCallback verifies and applies a gateway webhook. The signature is
// checked before the body is parsed or any row is read.
func (s *PaymentService) HandleCallback(ctx context.Context, rawBody []byte, signature string) (*TransitionResult, error) {
	if err := s.checksum.Verify(string(rawBody), "", signature); err != nil {
		return nil, err
	}

	var payload CallbackPayload
	if err := json.Unmarshal(rawBody, &payload); err != nil {
		return nil, models.NewValidation("body", "invalid callback payload")
	}

	payload.MerchantTransactionID = strings.TrimSpace(payload.MerchantTransactionID)
	if payload.MerchantTransactionID == "" {
		return nil, models.NewValidation("merchantTransactionId", "is required")
	}

	status, err := statusFromGateway(payload.Code, payload.Status)
	if err != nil {
		return nil, err
	}

	return s.machine.Apply(ctx, models.GatewayOutcome{
		MerchantTransactionID: payload.MerchantTransactionID,
		GatewayTransactionID:  payload.GatewayTransactionID,
		Code:                  payload.Code,
		Status:                status,
		Raw:                   rawBody,
	})
}

// GetPayment returns a payment owned by the user
func (s *PaymentService) GetPayment(ctx context.Context, userID int, mtid string) (*models.Payment, error) {
	payment, err := withRetry(ctx, "get payment", func() (*models.Payment, error) {
		return s.payments.GetByMerchantTxnID(ctx, mtid)
	})
	if err != nil {
		return nil, err
	}
	if payment.UserID != userID {
		return nil, models.NewNotFound("payment", mtid)
	}
	return payment, nil
}
