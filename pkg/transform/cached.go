package transform

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/imgflow/pkg/cache"
	"github.com/matzehuels/imgflow/pkg/observability"
)

// Cached decorates a Transformer with a render cache. Entries are keyed by
// the source content hash and the operation list; cache failures degrade to
// uncached renders.
type Cached struct {
	Next   Transformer
	Cache  cache.Cache
	Keyer  cache.Keyer
	TTL    time.Duration
	Logger *log.Logger
}

// NewCached wraps next. A nil cache disables caching and a nil keyer uses
// the default key scheme.
func NewCached(next Transformer, c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Cached {
	if c == nil {
		c = cache.NewNullCache()
	}
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	return &Cached{Next: next, Cache: c, Keyer: keyer, TTL: cache.TTLVariant, Logger: logger}
}

// Metadata is passed through uncached.
func (t *Cached) Metadata(ctx context.Context, data []byte) (Metadata, error) {
	return t.Next.Metadata(ctx, data)
}

// Render returns the cached output for (data, ops) or renders and stores it.
func (t *Cached) Render(ctx context.Context, data []byte, ops []Operation) ([]byte, error) {
	key := t.Keyer.VariantKey(cache.Hash(data), keyedOps(ops))
	hooks := observability.Cache()

	if out, hit, err := t.Cache.Get(ctx, key); err == nil && hit {
		hooks.OnCacheHit(ctx, "variant")
		return out, nil
	} else if err != nil {
		t.debug("cache read failed", "err", err)
	}
	hooks.OnCacheMiss(ctx, "variant")

	out, err := t.Next.Render(ctx, data, ops)
	if err != nil {
		return nil, err
	}

	if err := t.Cache.Set(ctx, key, out, t.TTL); err != nil {
		t.debug("cache write failed", "err", err)
	} else {
		hooks.OnCacheSet(ctx, "variant", len(out))
	}
	return out, nil
}

func (t *Cached) debug(msg string, kv ...any) {
	if t.Logger != nil {
		t.Logger.Debug(msg, kv...)
	}
}

var _ Transformer = (*Cached)(nil)
