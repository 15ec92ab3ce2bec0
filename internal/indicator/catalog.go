package indicator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/rs/zerolog"
)

// CatalogStore is the durable side of the catalog.
type CatalogStore interface {
	GetAllActive(ctx context.Context) ([]Definition, error)
	GetByTypes(ctx context.Context, typeKeys []string) ([]Definition, error)
	GetByType(ctx context.Context, typeKey string) (*Definition, error)
	Upsert(ctx context.Context, def Definition) error
	Delete(ctx context.Context, typeKey string) error
}

// Catalog fronts the definition store with a bounded in-process TTL cache.
// The cache is read-only from the pipeline's perspective during a request;
// it is invalidated explicitly by catalog writes and expires entries after
// the configured TTL otherwise.
type Catalog struct {
	store  CatalogStore
	cache  *expirable.LRU[string, Definition]
	ttl    time.Duration
	logger zerolog.Logger

	mu            sync.RWMutex
	activeTypes   []string
	activeFetched time.Time
}

// NewCatalog builds a cached catalog. size bounds the number of cached
// definitions; ttl bounds their staleness.
func NewCatalog(store CatalogStore, size int, ttl time.Duration, logger zerolog.Logger) *Catalog {
	return &Catalog{
		store:  store,
		cache:  expirable.NewLRU[string, Definition](size, nil, ttl),
		ttl:    ttl,
		logger: logger.With().Str("component", "IndicatorCatalog").Logger(),
	}
}

// GetByTypes returns definitions for the given keys, serving from cache
// where possible and batch-fetching the misses. Keys with no catalog entry
// are absent from the result; the resolver decides what to do about them.
func (c *Catalog) GetByTypes(ctx context.Context, typeKeys []string) ([]Definition, error) {
	found := make(map[string]Definition, len(typeKeys))
	var misses []string

	for _, key := range typeKeys {
		if def, ok := c.cache.Get(key); ok {
			found[key] = def
		} else {
			misses = append(misses, key)
		}
	}

	if len(misses) > 0 {
		defs, err := c.store.GetByTypes(ctx, misses)
		if err != nil {
			return nil, err
		}
		for _, def := range defs {
			c.cache.Add(def.Type, def)
			found[def.Type] = def
		}
	}

	// Preserve request order, deduplicated.
	out := make([]Definition, 0, len(found))
	seen := make(map[string]bool, len(found))
	for _, key := range typeKeys {
		if def, ok := found[key]; ok && !seen[key] {
			out = append(out, def)
			seen[key] = true
		}
	}
	return out, nil
}

// GetByType returns one definition, from cache when fresh.
func (c *Catalog) GetByType(ctx context.Context, typeKey string) (*Definition, error) {
	if def, ok := c.cache.Get(typeKey); ok {
		return &def, nil
	}

	def, err := c.store.GetByType(ctx, typeKey)
	if err != nil {
		return nil, err
	}
	c.cache.Add(def.Type, *def)
	return def, nil
}

// GetAllActive returns every active definition, bypassing the per-key
// cache (the full listing is an admin operation, not a pipeline one) but
// refreshing cached entries as a side effect.
func (c *Catalog) GetAllActive(ctx context.Context) ([]Definition, error) {
	defs, err := c.store.GetAllActive(ctx)
	if err != nil {
		return nil, err
	}
	for _, def := range defs {
		c.cache.Add(def.Type, def)
	}
	c.setActiveTypes(defs)
	return defs, nil
}

// ActiveTypes returns the active type keys merged with the built-in
// fallback set. This is the extractor's closed allowed-key list. The
// catalog side is cached with the same TTL as definitions; a store failure
// degrades to the built-in set alone.
func (c *Catalog) ActiveTypes(ctx context.Context) []string {
	c.mu.RLock()
	fresh := time.Since(c.activeFetched) < c.ttl && c.activeTypes != nil
	cached := c.activeTypes
	c.mu.RUnlock()

	if fresh {
		return mergeTypes(cached)
	}

	defs, err := c.store.GetAllActive(ctx)
	if err != nil {
		c.logger.Warn().Err(err).Msg("failed to list active indicator types, using builtins")
		return mergeTypes(nil)
	}
	c.setActiveTypes(defs)

	keys := make([]string, 0, len(defs))
	for _, def := range defs {
		keys = append(keys, def.Type)
	}
	return mergeTypes(keys)
}

func (c *Catalog) setActiveTypes(defs []Definition) {
	keys := make([]string, 0, len(defs))
	for _, def := range defs {
		keys = append(keys, def.Type)
	}
	c.mu.Lock()
	c.activeTypes = keys
	c.activeFetched = time.Now()
	c.mu.Unlock()
}

// mergeTypes unions catalog keys with the built-in fallback keys,
// preserving catalog order first.
func mergeTypes(catalogKeys []string) []string {
	seen := make(map[string]bool, len(catalogKeys))
	out := make([]string, 0, len(catalogKeys)+len(builtinDefinitions))
	for _, k := range catalogKeys {
		if !seen[k] {
			out = append(out, k)
			seen[k] = true
		}
	}
	for _, k := range BuiltinTypes() {
		if !seen[k] {
			out = append(out, k)
			seen[k] = true
		}
	}
	return out
}

// Upsert writes a definition through to the store and invalidates its
// cache entry.
func (c *Catalog) Upsert(ctx context.Context, def Definition) error {
	if def.Type == "" {
		return fmt.Errorf("definition type key is required")
	}
	if err := c.store.Upsert(ctx, def); err != nil {
		return err
	}
	c.Invalidate(def.Type)
	return nil
}

// Delete removes a definition and invalidates its cache entry.
func (c *Catalog) Delete(ctx context.Context, typeKey string) error {
	if err := c.store.Delete(ctx, typeKey); err != nil {
		return err
	}
	c.Invalidate(typeKey)
	return nil
}

// Invalidate drops one cached definition and the active-type listing.
func (c *Catalog) Invalidate(typeKey string) {
	c.cache.Remove(typeKey)
	c.mu.Lock()
	c.activeTypes = nil
	c.mu.Unlock()
}

// Purge drops the whole cache.
func (c *Catalog) Purge() {
	c.cache.Purge()
	c.mu.Lock()
	c.activeTypes = nil
	c.mu.Unlock()
}
