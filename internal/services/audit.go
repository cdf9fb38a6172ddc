package services

import (
	"context"
	"encoding/json"
	"log"

	"event-registration-platform/internal/models"
)

// AuditRepository stores operator actions
type AuditRepository interface {
	Create(ctx context.Context, req *models.AuditLogCreateRequest) (*models.AuditLog, error)
	GetByTarget(ctx context.Context, targetType, targetID string, limit int) ([]*models.AuditLog, error)
}

// AuditService records operator actions
type AuditService struct {
	auditRepo AuditRepository
}

// NewAuditService creates a new audit service
func NewAuditService(auditRepo AuditRepository) *AuditService {
	return &AuditService{auditRepo: auditRepo}
}

// AuditEntry describes one operator action
type AuditEntry struct {
	Action     string
	TargetType string
	TargetID   string
	Details    interface{}
	IPAddress  string
	UserAgent  string
}

// LogAction records an operator action. A failed write is logged and
// returned but never undoes the action itself.
func (s *AuditService) LogAction(ctx context.Context, entry AuditEntry) error {
	var details json.RawMessage
	if entry.Details != nil {
		raw, err := json.Marshal(entry.Details)
		if err != nil {
			return err
		}
		details = raw
	}

	_, err := s.auditRepo.Create(ctx, &models.AuditLogCreateRequest{
		Action:     entry.Action,
		TargetType: entry.TargetType,
		TargetID:   entry.TargetID,
		Details:    details,
		IPAddress:  entry.IPAddress,
		UserAgent:  entry.UserAgent,
	})
	if err != nil {
		log.Printf("[Admin] Failed to write audit log for %s %s: %v", entry.Action, entry.TargetID, err)
	}
	return err
}

// GetPaymentHistory returns the newest operator actions on a payment
func (s *AuditService) GetPaymentHistory(ctx context.Context, mtid string, limit int) ([]*models.AuditLog, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.auditRepo.GetByTarget(ctx, models.AuditTargetPayment, mtid, limit)
}
