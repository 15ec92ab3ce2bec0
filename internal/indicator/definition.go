// Package indicator holds the indicator catalog: durable definitions in
// Postgres, an in-process TTL cache, a built-in fallback table, and the
// extraction/resolution stages of the generation pipeline.
package indicator

import (
	"github.com/kapilwn1990/AlgoXera.Lambda.TemplateEngine/internal/rules"
)

// Definition is a catalog entry for one indicator type. Definitions are
// immutable once handed to a prompt-composition call; changes go through
// catalog upsert, which invalidates the cache.
type Definition struct {
	Type            string                         `json:"type"` // lowercase canonical key, unique
	DisplayName     string                         `json:"displayName"`
	Category        string                         `json:"category"`
	ParameterSchema map[string]rules.ParameterSpec `json:"parameterSchema"`
	PromptSnippet   string                         `json:"promptSnippet"`
	Aliases         []string                       `json:"aliases,omitempty"`
	Keywords        []string                       `json:"keywords,omitempty"`
	Active          bool                           `json:"active"`
	SortOrder       int                            `json:"sortOrder"`
}

// TypePrice is force-included in every extraction result: most condition
// grammars reference current price without the user naming it.
const TypePrice = "price"
