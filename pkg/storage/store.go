package storage

import (
	"context"

	"github.com/vango-dev/teamstore/internal/errors"
)

// Store is a synchronous string-keyed key-value store.
// Implementations must be safe for concurrent use.
type Store interface {
	// Get returns the value stored under key.
	// Returns ("", false, nil) if the key doesn't exist.
	Get(ctx context.Context, key string) (string, bool, error)

	// Set stores value under key, overwriting any previous value.
	Set(ctx context.Context, key, value string) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases any resources held by the store.
	Close() error
}

// Availability is implemented by stores that can report whether they are
// reachable in the current execution context.
type Availability interface {
	Available() bool
}

// IsAvailable reports whether s can be used for persistence.
// A nil store is unavailable; stores that don't implement Availability are
// assumed available.
func IsAvailable(s Store) bool {
	if s == nil {
		return false
	}
	if a, ok := s.(Availability); ok {
		return a.Available()
	}
	return true
}

// ErrStoreClosed is returned when operations are attempted on a closed store.
var ErrStoreClosed = errors.New("E212")

// Unavailable is the store of an execution context without persistent
// storage. Reads find nothing and writes are dropped.
type Unavailable struct{}

// Available always reports false.
func (Unavailable) Available() bool { return false }

func (Unavailable) Get(context.Context, string) (string, bool, error) { return "", false, nil }
func (Unavailable) Set(context.Context, string, string) error         { return nil }
func (Unavailable) Delete(context.Context, string) error              { return nil }
func (Unavailable) Close() error                                      { return nil }
