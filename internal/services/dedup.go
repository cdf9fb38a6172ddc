package services

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisDedupWindow keeps fingerprint -> idempotency key mappings in Redis
// with a TTL equal to the dedup window.
type RedisDedupWindow struct {
	client *redis.Client
	window time.Duration
}

// NewRedisDedupWindow creates a dedup window backed by Redis
func NewRedisDedupWindow(client *redis.Client, window time.Duration) *RedisDedupWindow {
	return &RedisDedupWindow{client: client, window: window}
}

func dedupKey(userID int, fingerprint string) string {
	return fmt.Sprintf("checkout:dedup:%d:%s", userID, fingerprint)
}

// Resolve stores candidate for the fingerprint unless a key is already
// held, and returns whichever key won.
func (d *RedisDedupWindow) Resolve(ctx context.Context, userID int, fingerprint, candidate string) (string, error) {
	key := dedupKey(userID, fingerprint)

	stored, err := d.client.SetNX(ctx, key, candidate, d.window).Result()
	if err != nil {
		return "", fmt.Errorf("failed to reserve dedup key: %w", err)
	}
	if stored {
		return candidate, nil
	}

	existing, err := d.client.Get(ctx, key).Result()
	if err == redis.Nil {
		// Expired between SETNX and GET; the candidate is as good as any.
		return candidate, nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read dedup key: %w", err)
	}
	return existing, nil
}
