package cache

// ScopedKeyer wraps a Keyer with a prefix for namespace isolation.
// Builds that share a redis instance use it to keep their entries apart.
//
// Example usage:
//
//	// Per-project keys on a shared cache
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "site:docs:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// VariantKey generates a prefixed key for a rendered variant.
func (k *ScopedKeyer) VariantKey(sourceHash string, ops any) string {
	return k.prefix + k.inner.VariantKey(sourceHash, ops)
}

// MinifyKey generates a prefixed key for optimizer output.
func (k *ScopedKeyer) MinifyKey(plugin, contentHash string) string {
	return k.prefix + k.inner.MinifyKey(plugin, contentHash)
}
