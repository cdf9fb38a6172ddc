package services

import (
	"context"
	"fmt"
	"log"
	"time"
)

// StatusPoller settles payments whose callback never arrived by asking the
// gateway directly. Results go through the state machine like a webhook.
type StatusPoller struct {
	payments PaymentRepository
	gateway  GatewayClient
	machine  *PaymentStateMachine
	now      func() time.Time
}

// NewStatusPoller creates a new status poller
func NewStatusPoller(payments PaymentRepository, gateway GatewayClient, machine *PaymentStateMachine) *StatusPoller {
	return &StatusPoller{payments: payments, gateway: gateway, machine: machine, now: time.Now}
}

// PollResult summarises one polling pass
type PollResult struct {
	Checked int `json:"checked"`
	Settled int `json:"settled"`
	Pending int `json:"still_pending"`
	Errors  int `json:"errors"`
}

// PollPending checks pending payments older than olderThan
func (p *StatusPoller) PollPending(ctx context.Context, olderThan time.Duration, limit int) (*PollResult, error) {
	pending, err := p.payments.ListPending(ctx, p.now().Add(-olderThan), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending payments: %w", err)
	}

	result := &PollResult{}
	for _, payment := range pending {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
		result.Checked++

		outcome, err := p.gateway.CheckStatus(ctx, payment.MerchantTransactionID)
		if err != nil {
			result.Errors++
			log.Printf("[Poller] Status check for %s failed: %v", payment.MerchantTransactionID, err)
			continue
		}

		transition, err := p.machine.Apply(ctx, *outcome)
		if err != nil {
			result.Errors++
			log.Printf("[Poller] Applying %s for %s failed: %v", outcome.Status, payment.MerchantTransactionID, err)
			continue
		}

		if transition.Changed {
			result.Settled++
		} else {
			result.Pending++
		}
	}

	log.Printf("[Poller] Checked %d pending payments: %d settled, %d pending, %d errors",
		result.Checked, result.Settled, result.Pending, result.Errors)
	return result, nil
}
