package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"event-registration-platform/internal/models"
)

// Reconciler turns successful payments into confirmed registrations and
// refunded payments into released seats. Both directions are safe to re-run.
type Reconciler struct {
	registrations RegistrationRepository
	payments      PaymentRepository
}

// NewReconciler creates a new reconciler
func NewReconciler(registrations RegistrationRepository, payments PaymentRepository) *Reconciler {
	return &Reconciler{registrations: registrations, payments: payments}
}

// SweepResult summarises a reconciliation sweep
type SweepResult struct {
	Reconciled     int `json:"reconciled"`
	Registrations  int `json:"registrations"`
	RefundsSettled int `json:"refunds_settled"`
	Failed         int `json:"failed"`
}

// Reconcile confirms the registrations for a successful payment
func (r *Reconciler) Reconcile(ctx context.Context, payment *models.Payment) (*models.ReconcileResult, error) {
	if payment.Status != models.PaymentSuccess {
		return nil, &models.StateError{Entity: "payment", From: string(payment.Status), To: "reconciled"}
	}

	result, err := withRetry(ctx, "confirm registrations", func() (*models.ReconcileResult, error) {
		return r.registrations.ConfirmForPayment(ctx, payment)
	})
	if err != nil {
		log.Printf("[Reconciler] Payment %s: reconciliation failed: %v", payment.MerchantTransactionID, err)
		return nil, err
	}

	log.Printf("[Reconciler] Payment %s: %d confirmed, %d already present, order confirmed=%v",
		payment.MerchantTransactionID, len(result.Confirmed), result.AlreadyPresent, result.OrderConfirmed)
	return result, nil
}

// SettleRefund releases the registrations held by a refunded payment
func (r *Reconciler) SettleRefund(ctx context.Context, payment *models.Payment) (*models.RefundResult, error) {
	if payment.Status != models.PaymentRefunded {
		return nil, &models.StateError{Entity: "payment", From: string(payment.Status), To: "refund settled"}
	}

	result, err := withRetry(ctx, "cancel registrations", func() (*models.RefundResult, error) {
		return r.registrations.CancelForPayment(ctx, payment)
	})
	if err != nil {
		log.Printf("[Reconciler] Payment %s: refund settlement failed: %v", payment.MerchantTransactionID, err)
		return nil, err
	}

	log.Printf("[Reconciler] Payment %s: %d registrations cancelled, order refunded=%v",
		payment.MerchantTransactionID, len(result.Cancelled), result.OrderRefunded)
	return result, nil
}

// ReconcileOutstanding finishes payments whose side effects did not
// complete: successful payments with an unconfirmed order and refunded
// payments with a still-confirmed order.
func (r *Reconciler) ReconcileOutstanding(ctx context.Context, limit int) (*SweepResult, error) {
	sweep := &SweepResult{}
	var errs []error

	unreconciled, err := r.payments.ListUnreconciled(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list unreconciled payments: %w", err)
	}
	for _, payment := range unreconciled {
		result, err := r.Reconcile(ctx, payment)
		if err != nil {
			sweep.Failed++
			errs = append(errs, fmt.Errorf("payment %s: %w", payment.MerchantTransactionID, err))
			continue
		}
		sweep.Reconciled++
		sweep.Registrations += len(result.Confirmed)
	}

	refunds, err := r.payments.ListUnsettledRefunds(ctx, limit)
	if err != nil {
		return sweep, fmt.Errorf("failed to list unsettled refunds: %w", err)
	}
	for _, payment := range refunds {
		if _, err := r.SettleRefund(ctx, payment); err != nil {
			sweep.Failed++
			errs = append(errs, fmt.Errorf("payment %s: %w", payment.MerchantTransactionID, err))
			continue
		}
		sweep.RefundsSettled++
	}

	return sweep, errors.Join(errs...)
}
