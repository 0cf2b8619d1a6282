package imagemin

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/imgflow/pkg/cache"
	"github.com/matzehuels/imgflow/pkg/observability"
)

// CachedPlugin decorates a Plugin with an output cache keyed by plugin name
// and input content hash. Cache failures degrade to uncached runs.
type CachedPlugin struct {
	Plugin
	Cache  cache.Cache
	Keyer  cache.Keyer
	TTL    time.Duration
	Logger *log.Logger
}

// NewCachedPlugin wraps p. A nil keyer uses the default key scheme.
func NewCachedPlugin(p Plugin, c cache.Cache, keyer cache.Keyer, logger *log.Logger) *CachedPlugin {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	return &CachedPlugin{Plugin: p, Cache: c, Keyer: keyer, TTL: cache.TTLMinify, Logger: logger}
}

// Available forwards to the wrapped plugin.
func (p *CachedPlugin) Available() error {
	if a, ok := p.Plugin.(Availability); ok {
		return a.Available()
	}
	return nil
}

// Optimize returns the cached output for data or runs the plugin and stores it.
func (p *CachedPlugin) Optimize(ctx context.Context, data []byte) ([]byte, error) {
	key := p.Keyer.MinifyKey(p.Name(), cache.Hash(data))
	hooks := observability.Cache()

	if out, hit, err := p.Cache.Get(ctx, key); err == nil && hit {
		hooks.OnCacheHit(ctx, "minify")
		return out, nil
	} else if err != nil {
		p.debug("cache read failed", "plugin", p.Name(), "err", err)
	}
	hooks.OnCacheMiss(ctx, "minify")

	out, err := p.Plugin.Optimize(ctx, data)
	if err != nil {
		return nil, err
	}

	if err := p.Cache.Set(ctx, key, out, p.TTL); err != nil {
		p.debug("cache write failed", "plugin", p.Name(), "err", err)
	} else {
		hooks.OnCacheSet(ctx, "minify", len(out))
	}
	return out, nil
}

func (p *CachedPlugin) debug(msg string, kv ...any) {
	if p.Logger != nil {
		p.Logger.Debug(msg, kv...)
	}
}

var _ Availability = (*CachedPlugin)(nil)
