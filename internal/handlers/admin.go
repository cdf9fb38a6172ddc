package handlers

import (
	"context"
	"log"
	"net/http"

	"event-registration-platform/internal/models"
	"event-registration-platform/internal/services"

	"github.com/go-chi/chi/v5"
)

// PaymentAdmin is the operator behaviour the admin handler needs
type PaymentAdmin interface {
	AdminOverride(ctx context.Context, mtid string, to models.PaymentStatus) (*services.TransitionResult, error)
	ReconcileOutstanding(ctx context.Context, limit int) (*services.SweepResult, error)
}

// Auditor records and lists operator actions
type Auditor interface {
	LogAction(ctx context.Context, entry services.AuditEntry) error
	GetPaymentHistory(ctx context.Context, mtid string, limit int) ([]*models.AuditLog, error)
}

// AdminHandler handles operator overrides
type AdminHandler struct {
	admin   PaymentAdmin
	auditor Auditor
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(admin PaymentAdmin, auditor Auditor) *AdminHandler {
	return &AdminHandler{admin: admin, auditor: auditor}
}

type overrideRequest struct {
	Status models.PaymentStatus `json:"status"`
	Reason string               `json:"reason"`
}

type reconcileRequest struct {
	Limit int `json:"limit"`
}

// OverridePayment forces a payment to success or refunded through the same
// conditional transition the webhook uses
func (h *AdminHandler) OverridePayment(w http.ResponseWriter, r *http.Request) {
	mtid := chi.URLParam(r, "mtid")

	var req overrideRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	log.Printf("[Admin] Override %s -> %s requested from %s (reason: %q)", mtid, req.Status, r.RemoteAddr, req.Reason)

	result, err := h.admin.AdminOverride(r.Context(), mtid, req.Status)

	details := map[string]interface{}{"to": req.Status, "reason": req.Reason}
	if result != nil {
		details["from"] = result.From
		details["changed"] = result.Changed
	}
	if err != nil {
		details["error"] = err.Error()
	}
	h.audit(r, models.AuditActionPaymentOverride, models.AuditTargetPayment, mtid, details)

	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// PaymentAudit lists the operator actions recorded for a payment
func (h *AdminHandler) PaymentAudit(w http.ResponseWriter, r *http.Request) {
	logs, err := h.auditor.GetPaymentHistory(r.Context(), chi.URLParam(r, "mtid"), 20)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if logs == nil {
		logs = []*models.AuditLog{}
	}
	writeJSON(w, http.StatusOK, logs)
}

func (h *AdminHandler) audit(r *http.Request, action, targetType, targetID string, details interface{}) {
	// Failures are logged by the auditor and never change the response.
	_ = h.auditor.LogAction(r.Context(), services.AuditEntry{
		Action:     action,
		TargetType: targetType,
		TargetID:   targetID,
		Details:    details,
		IPAddress:  r.RemoteAddr,
		UserAgent:  r.UserAgent(),
	})
}

// Reconcile runs one reconciliation sweep
func (h *AdminHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	req := reconcileRequest{Limit: 100}
	if r.ContentLength > 0 {
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, r, err)
			return
		}
	}
	if req.Limit <= 0 || req.Limit > 1000 {
		writeError(w, r, models.NewValidation("limit", "must be between 1 and 1000"))
		return
	}

	result, err := h.admin.ReconcileOutstanding(r.Context(), req.Limit)
	h.audit(r, models.AuditActionReconcileSweep, models.AuditTargetSweep, "manual", map[string]interface{}{"limit": req.Limit, "result": result})
	if err != nil {
		// Partial sweeps still report what they repaired.
		log.Printf("[Admin] Reconciliation sweep finished with errors: %v", err)
		if result != nil {
			writeJSON(w, http.StatusMultiStatus, result)
			return
		}
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}
