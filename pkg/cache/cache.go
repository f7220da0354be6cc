// Package cache provides pluggable byte caches for index responses.
//
// Three backends are included:
//   - FileCache: on-disk cache for CLI usage (XDG cache directory)
//   - RedisCache: shared cache for server deployments
//   - NullCache: no-op cache for tests or --no-cache runs
//
// Keys are arbitrary strings; backends hash them, so namespacing with a
// prefix (e.g. "pypi:numpy") is safe regardless of key content.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache stores byte values with per-entry TTL.
type Cache interface {
	// Get retrieves a value. The second return reports whether the key was
	// present and fresh; expired or missing entries return (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value. A ttl of 0 means the entry never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// hashKey maps an arbitrary cache key to a fixed-width hex name. Both the
// file and Redis backends store under the hash, which keeps raw keys (URLs,
// package names with slashes) out of filesystem paths and Redis keyspaces.
func hashKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}
