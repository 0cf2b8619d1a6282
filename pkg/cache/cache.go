// Package cache stores rendered image variants and optimizer output.
//
// Rendering a variant is the most expensive step of a responsive run, and
// the same source image is usually rendered with the same operations on
// every build. The cache stores the encoded output keyed by the source
// content hash and the operation list, so unchanged inputs are never
// re-encoded.
//
// # Backends
//
//   - [FileCache]: JSON entries in a hashed directory tree (CLI default)
//   - [RedisCache]: shared cache for build farms
//   - [NullCache]: caching disabled
//
// # Keys
//
// Keys are produced by a [Keyer] so that hosts can namespace them, for
// example per project with [NewScopedKeyer].
package cache

import (
	"context"
	"time"
)

// Default time-to-live values for cached entries.
const (
	// TTLVariant is the lifetime of a rendered variant.
	TTLVariant = 30 * 24 * time.Hour

	// TTLMinify is the lifetime of optimizer output.
	TTLMinify = 30 * 24 * time.Hour
)

// Cache is a byte store with per-entry expiry.
// Implementations must be safe for concurrent use.
type Cache interface {
	// Get returns the stored data and true on a hit.
	// A miss is not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of 0 means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Keyer generates cache keys.
type Keyer interface {
	// VariantKey identifies a rendered variant by source content hash and operations.
	VariantKey(sourceHash string, ops any) string

	// MinifyKey identifies optimizer output by plugin name and content hash.
	MinifyKey(plugin, contentHash string) string
}

// DefaultKeyer builds keys of the form "<kind>:<sha256>".
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default key scheme.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// VariantKey hashes the source hash together with the JSON form of ops.
func (DefaultKeyer) VariantKey(sourceHash string, ops any) string {
	return hashKey("variant", sourceHash, ops)
}

// MinifyKey hashes the plugin name together with the content hash.
func (DefaultKeyer) MinifyKey(plugin, contentHash string) string {
	return hashKey("minify", plugin, contentHash)
}
