// Package store provides the small key/value store behind admin credentials and sessions.
package store

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("key not found")

// Store is a byte-oriented key/value store. A zero ttl keeps the value until it is
// deleted or cleared.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	// Clear removes every key starting with prefix.
	Clear(ctx context.Context, prefix string) error
}
