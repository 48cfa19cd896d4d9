// Package secrets is the opaque key/value capability the session uses to
// persist tokens across runs. Implementations never interpret values.
package secrets

import "errors"

// ErrNotFound is returned by Get when no value exists for the key.
var ErrNotFound = errors.New("secret not found")

// Store is injected into the session so tests can substitute an
// in-memory backend for the OS keychain.
type Store interface {
	Get(key string) (string, error)
	Set(key, value string) error
	// Delete is idempotent: deleting a missing key is not an error.
	Delete(key string) error
}
