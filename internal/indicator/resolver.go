package indicator

import (
	"context"

	"github.com/rs/zerolog"
)

// Resolver maps extracted type keys to full definitions: catalog first,
// built-in fallback table second. Unknown keys with no fallback entry are
// dropped rather than surfaced, since the extractor's closed allowed-key
// list already constrains its output.
type Resolver struct {
	catalog *Catalog
	logger  zerolog.Logger
}

// NewResolver creates a resolver over the cached catalog.
func NewResolver(catalog *Catalog, logger zerolog.Logger) *Resolver {
	return &Resolver{
		catalog: catalog,
		logger:  logger.With().Str("component", "IndicatorResolver").Logger(),
	}
}

// Resolve returns one definition per resolvable key, in input order. The
// catalog lookup is a single batch; missing keys fall back to the built-in
// table so generation never blocks on an empty catalog.
func (r *Resolver) Resolve(ctx context.Context, typeKeys []string) ([]Definition, error) {
	defs, err := r.catalog.GetByTypes(ctx, typeKeys)
	if err != nil {
		// A catalog outage is survivable: the built-in table still covers
		// the common set.
		r.logger.Warn().Err(err).Msg("catalog lookup failed, resolving from builtins only")
		defs = nil
	}

	byType := make(map[string]Definition, len(defs))
	for _, def := range defs {
		byType[def.Type] = def
	}

	out := make([]Definition, 0, len(typeKeys))
	seen := make(map[string]bool, len(typeKeys))
	for _, key := range typeKeys {
		if seen[key] {
			continue
		}
		seen[key] = true

		if def, ok := byType[key]; ok {
			out = append(out, def)
			continue
		}
		if def, ok := BuiltinDefinition(key); ok {
			out = append(out, def)
			continue
		}
		r.logger.Debug().Str("type", key).Msg("dropping unresolvable indicator type")
	}

	return out, nil
}
