package repository

import (
	"context"
	"time"
)

// Storage is a string key-value store holding session keys.
type Storage interface {
	// Get returns the value and whether the key is present
	Get(ctx context.Context, key string) (string, bool, error)
	// Set stores value; ttl <= 0 means no expiry
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	// Delete removes keys; missing keys are not an error
	Delete(ctx context.Context, keys ...string) error
}
