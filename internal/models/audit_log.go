package models

import (
	"encoding/json"
	"time"
)

// AuditLog records an operator action against a payment or the sweep
type AuditLog struct {
	ID         int             `json:"id" db:"id"`
	Action     string          `json:"action" db:"action"`
	TargetType string          `json:"target_type" db:"target_type"`
	TargetID   string          `json:"target_id" db:"target_id"`
	Details    json.RawMessage `json:"details" db:"details"`
	IPAddress  string          `json:"ip_address" db:"ip_address"`
	UserAgent  string          `json:"user_agent" db:"user_agent"`
	CreatedAt  time.Time       `json:"created_at" db:"created_at"`
}

// AuditLogCreateRequest represents a request to create an audit log entry
type AuditLogCreateRequest struct {
	Action     string          `json:"action"`
	TargetType string          `json:"target_type"`
	TargetID   string          `json:"target_id"`
	Details    json.RawMessage `json:"details"`
	IPAddress  string          `json:"ip_address"`
	UserAgent  string          `json:"user_agent"`
}

const (
	AuditActionPaymentOverride = "payment_override"
	AuditActionReconcileSweep  = "reconcile_sweep"
)

const (
	AuditTargetPayment = "payment"
	AuditTargetSweep   = "sweep"
)
