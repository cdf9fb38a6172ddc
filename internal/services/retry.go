package services

import (
	"context"
	"log"

	"event-registration-platform/internal/models"
)

// withRetry runs fn and, if it fails with a non-domain error, runs it once
// more. Domain errors and context cancellation are returned as is.
func withRetry[T any](ctx context.Context, op string, fn func() (T, error)) (T, error) {
	result, err := fn()
	if err == nil || models.IsDomain(err) || ctx.Err() != nil {
		return result, err
	}

	log.Printf("[Retry] %s failed, retrying once: %v", op, err)
	return fn()
}
