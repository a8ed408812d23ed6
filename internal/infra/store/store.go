// Package store provides the fallible key/value store used for best-effort
// log mirroring and session-flag caching. Implementations may fail at any
// time; callers must treat every operation as optional.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a key has no value.
var ErrNotFound = errors.New("store: key not found")

// Store is a simple key/value store with a bounded-list extension for log
// mirroring.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error

	// PushTrim prepends value to the list at key and trims it to maxLen
	// entries, newest first.
	PushTrim(ctx context.Context, key, value string, maxLen int) error

	Close() error
}
