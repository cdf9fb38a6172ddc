package models

import (
	"errors"
	"fmt"
)

// ValidationError reports malformed input
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation failed: %s", e.Message)
	}
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Message)
}

// NotFoundError reports a missing order, payment, event or transaction id
type NotFoundError struct {
	Resource string
	Key      string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.Key)
}

// ConflictError reports a duplicate cart item, an empty-cart checkout or a
// duplicate submission
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflict: %s", e.Message)
}

// ChecksumError reports a callback whose signature did not verify
type ChecksumError struct {
	Message string
}

func (e *ChecksumError) Error() string {
	return fmt.Sprintf("checksum verification failed: %s", e.Message)
}

// StateError reports an illegal status transition
type StateError struct {
	Entity string
	From   string
	To     string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("%s cannot move from %s to %s", e.Entity, e.From, e.To)
}

// NewNotFound creates a NotFoundError
func NewNotFound(resource, key string) error {
	return &NotFoundError{Resource: resource, Key: key}
}

// NewConflict creates a ConflictError
func NewConflict(format string, args ...interface{}) error {
	return &ConflictError{Message: fmt.Sprintf(format, args...)}
}

// NewValidation creates a ValidationError
func NewValidation(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

func IsConflict(err error) bool {
	var target *ConflictError
	return errors.As(err, &target)
}

func IsChecksum(err error) bool {
	var target *ChecksumError
	return errors.As(err, &target)
}

func IsState(err error) bool {
	var target *StateError
	return errors.As(err, &target)
}

// IsDomain reports whether err is one of the typed domain errors. Domain
// errors are never retried.
func IsDomain(err error) bool {
	return IsValidation(err) || IsNotFound(err) || IsConflict(err) || IsChecksum(err) || IsState(err)
}

// ErrEmptyCart is returned when checkout finds no items to snapshot
var ErrEmptyCart = &ConflictError{Message: "cart is empty"}
