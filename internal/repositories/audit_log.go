package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"event-registration-platform/internal/models"
)

// AuditLogRepository stores operator actions
type AuditLogRepository struct {
	db *sql.DB
}

// NewAuditLogRepository creates a new audit log repository
func NewAuditLogRepository(db *sql.DB) *AuditLogRepository {
	return &AuditLogRepository{db: db}
}

// Create creates a new audit log entry
func (r *AuditLogRepository) Create(ctx context.Context, req *models.AuditLogCreateRequest) (*models.AuditLog, error) {
	details := req.Details
	if len(details) == 0 {
		details = []byte("{}")
	}

	auditLog := &models.AuditLog{}
	var rawDetails []byte
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO admin_audit_log (action, target_type, target_id, details, ip_address, user_agent, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, action, target_type, target_id, details, ip_address, user_agent, created_at`,
		req.Action,
		req.TargetType,
		req.TargetID,
		string(details),
		req.IPAddress,
		req.UserAgent,
		time.Now(),
	).Scan(
		&auditLog.ID,
		&auditLog.Action,
		&auditLog.TargetType,
		&auditLog.TargetID,
		&rawDetails,
		&auditLog.IPAddress,
		&auditLog.UserAgent,
		&auditLog.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create audit log: %w", err)
	}

	auditLog.Details = rawDetails
	return auditLog, nil
}

// GetByTarget returns the newest entries for a target
func (r *AuditLogRepository) GetByTarget(ctx context.Context, targetType, targetID string, limit int) ([]*models.AuditLog, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, action, target_type, target_id, details, ip_address, user_agent, created_at
		FROM admin_audit_log
		WHERE target_type = $1 AND target_id = $2
		ORDER BY created_at DESC, id DESC
		LIMIT $3`, targetType, targetID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get audit logs: %w", err)
	}
	defer rows.Close()

	var logs []*models.AuditLog
	for rows.Next() {
		entry := &models.AuditLog{}
		var rawDetails []byte
		if err := rows.Scan(&entry.ID, &entry.Action, &entry.TargetType, &entry.TargetID, &rawDetails, &entry.IPAddress, &entry.UserAgent, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan audit log: %w", err)
		}
		entry.Details = rawDetails
		logs = append(logs, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read audit logs: %w", err)
	}

	return logs, nil
}
