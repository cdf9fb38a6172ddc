package services

import (
	"context"
	"fmt"
	"log"

	"event-registration-platform/internal/models"
)

// TransitionResult describes what a transition request did
type TransitionResult struct {
	Payment        *models.Payment         `json:"payment"`
	From           models.PaymentStatus    `json:"from"`
	To             models.PaymentStatus    `json:"to"`
	Changed        bool                    `json:"changed"`
	Reconciliation *models.ReconcileResult `json:"reconciliation,omitempty"`
	Refund         *models.RefundResult    `json:"refund,omitempty"`
}

// PaymentStateMachine owns payment status. Webhooks, status polls and the
// admin override all end in Transition, whose only write is the
// repository's conditional update.
type PaymentStateMachine struct {
	payments   PaymentRepository
	reconciler *Reconciler
}

// NewPaymentStateMachine creates a new payment state machine
func NewPaymentStateMachine(payments PaymentRepository, reconciler *Reconciler) *PaymentStateMachine {
	return &PaymentStateMachine{payments: payments, reconciler: reconciler}
}

// Apply feeds a gateway outcome into the state machine. Pending outcomes
// change nothing.
func (m *PaymentStateMachine) Apply(ctx context.Context, outcome models.GatewayOutcome) (*TransitionResult, error) {
	if outcome.Status == models.PaymentPending {
		payment, err := m.get(ctx, outcome.MerchantTransactionID)
		if err != nil {
			return nil, err
		}
		return &TransitionResult{Payment: payment, From: payment.Status, To: payment.Status}, nil
	}

	return m.Transition(ctx, outcome.MerchantTransactionID, outcome.Status, outcome.GatewayTransactionID, outcome.Raw)
}

// Transition moves a payment to `to`. Repeating a transition that already
// happened is a no-op; any other illegal move is a StateError. When this
// call is the one that moved the payment to success or refunded, the
// registration side effects run exactly here.
func (m *PaymentStateMachine) Transition(ctx context.Context, mtid string, to models.PaymentStatus, gatewayTxnID string, raw []byte) (*TransitionResult, error) {
	from, ok := sourceStatus(to)
	if !ok {
		return nil, models.NewValidation("status", fmt.Sprintf("cannot transition a payment to %q", to))
	}

	payment, err := m.get(ctx, mtid)
	if err != nil {
		return nil, err
	}

	if payment.Status == to {
		return &TransitionResult{Payment: payment, From: payment.Status, To: to}, nil
	}
	if payment.Status != from {
		return nil, &models.StateError{Entity: "payment", From: string(payment.Status), To: string(to)}
	}

	attempts := 0
	changed, err := withRetry(ctx, "transition payment", func() (bool, error) {
		attempts++
		return m.payments.Transition(ctx, mtid, from, to, gatewayTxnID, raw)
	})
	if err != nil {
		return nil, err
	}

	if !changed {
		current, err := m.get(ctx, mtid)
		if err != nil {
			return nil, err
		}
		if current.Status != to {
			return nil, &models.StateError{Entity: "payment", From: string(current.Status), To: string(to)}
		}
		if attempts == 1 {
			// Lost the race to another delivery or the admin path.
			return &TransitionResult{Payment: current, From: current.Status, To: to}, nil
		}
		// The failed attempt may have committed. Settling is idempotent, so
		// run it rather than risk a paid payment with no registrations.
		log.Printf("[Payments] %s reached %s after a failed write, settling again", mtid, to)
		return m.settle(ctx, &TransitionResult{Payment: current, From: from, To: to, Changed: true})
	}

	payment.Status = to
	if gatewayTxnID != "" {
		payment.GatewayTransactionID = &gatewayTxnID
	}
	log.Printf("[Payments] %s moved %s -> %s", mtid, from, to)

	return m.settle(ctx, &TransitionResult{Payment: payment, From: from, To: to, Changed: true})
}

// settle runs the registration side effects of a transition into success
// or refunded
func (m *PaymentStateMachine) settle(ctx context.Context, result *TransitionResult) (*TransitionResult, error) {
	mtid := result.Payment.MerchantTransactionID

	switch result.To {
	case models.PaymentSuccess:
		rec, err := m.reconciler.Reconcile(ctx, result.Payment)
		if err != nil {
			// Money has moved; the payment stays success and the sweep retries.
			return result, fmt.Errorf("payment %s captured but reconciliation failed: %w", mtid, err)
		}
		result.Reconciliation = rec
	case models.PaymentRefunded:
		refund, err := m.reconciler.SettleRefund(ctx, result.Payment)
		if err != nil {
			return result, fmt.Errorf("payment %s refunded but registrations were not released: %w", mtid, err)
		}
		result.Refund = refund
	}

	return result, nil
}

// Refund moves a successful payment to refunded
func (m *PaymentStateMachine) Refund(ctx context.Context, mtid string) (*TransitionResult, error) {
	return m.Transition(ctx, mtid, models.PaymentRefunded, "", nil)
}

// AdminOverride forces a payment to success or refunded, subject to the
// same transition rules as the gateway.
func (m *PaymentStateMachine) AdminOverride(ctx context.Context, mtid string, to models.PaymentStatus) (*TransitionResult, error) {
	if to != models.PaymentSuccess && to != models.PaymentRefunded {
		return nil, models.NewValidation("status", "override target must be success or refunded")
	}

	log.Printf("[Admin] Override requested for %s -> %s", mtid, to)
	return m.Transition(ctx, mtid, to, "", nil)
}

func (m *PaymentStateMachine) get(ctx context.Context, mtid string) (*models.Payment, error) {
	return withRetry(ctx, "get payment", func() (*models.Payment, error) {
		return m.payments.GetByMerchantTxnID(ctx, mtid)
	})
}

// sourceStatus returns the only status a payment may leave to reach `to`
func sourceStatus(to models.PaymentStatus) (models.PaymentStatus, bool) {
	for _, from := range []models.PaymentStatus{models.PaymentPending, models.PaymentSuccess} {
		if models.CanTransition(from, to) {
			return from, true
		}
	}
	return "", false
}
