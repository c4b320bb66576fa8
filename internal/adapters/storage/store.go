// Package storage provides the key-value backends that persist ledger
// snapshots.
package storage

import "context"

// Backend is a local persisted key-value store. Values are whole documents;
// Set overwrites.
type Backend interface {
	// Get returns the value stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key. Failures wrap ErrUnavailable or
	// ErrQuotaExceeded.
	Set(ctx context.Context, key string, value []byte) error

	// Remove deletes key. Removing a missing key is not an error.
	Remove(ctx context.Context, key string) error
}
