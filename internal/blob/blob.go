// Package blob stores opaque values under string keys. Each backend keeps
// one value per key and replaces it whole on every Put.
package blob

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when no value exists for the key.
var ErrNotFound = errors.New("blob: not found")

// UpdateFunc receives the current value of a key, nil when absent, and
// returns the value to write. A nil result leaves the key untouched.
type UpdateFunc func(current []byte) ([]byte, error)

// Store defines the key-value operations the registry needs.
//
// Update is an atomic read-modify-write: no other writer, in this process
// or another one sharing the backend, can change the key between the read
// and the write. fn may run more than once when a backend retries after a
// conflict.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Update(ctx context.Context, key string, fn UpdateFunc) error
}
