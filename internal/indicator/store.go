package indicator

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kapilwn1990/AlgoXera.Lambda.TemplateEngine/internal/rules"
)

// Store persists indicator definitions in PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a definition store on the given pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Migrate creates the indicator_definitions table if it does not exist.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS indicator_definitions (
			type             TEXT PRIMARY KEY,
			display_name     TEXT NOT NULL,
			category         TEXT NOT NULL DEFAULT '',
			parameter_schema JSONB NOT NULL DEFAULT '{}',
			prompt_snippet   TEXT NOT NULL DEFAULT '',
			aliases          JSONB NOT NULL DEFAULT '[]',
			keywords         JSONB NOT NULL DEFAULT '[]',
			active           BOOLEAN NOT NULL DEFAULT true,
			sort_order       INTEGER NOT NULL DEFAULT 0,
			updated_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`)
	if err != nil {
		return fmt.Errorf("failed to create indicator_definitions table: %w", err)
	}
	return nil
}

const definitionColumns = `type, display_name, category, parameter_schema, prompt_snippet, aliases, keywords, active, sort_order`

// GetAllActive returns every active definition ordered by sort_order.
func (s *Store) GetAllActive(ctx context.Context) ([]Definition, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+definitionColumns+`
		FROM indicator_definitions
		WHERE active = true
		ORDER BY sort_order, type`)
	if err != nil {
		return nil, fmt.Errorf("failed to query indicator definitions: %w", err)
	}
	defer rows.Close()

	return scanDefinitions(rows)
}

// GetByTypes returns the definitions for the given type keys in one batch
// query. Keys with no catalog entry are simply absent from the result.
func (s *Store) GetByTypes(ctx context.Context, typeKeys []string) ([]Definition, error) {
	if len(typeKeys) == 0 {
		return nil, nil
	}

	rows, err := s.pool.Query(ctx, `
		SELECT `+definitionColumns+`
		FROM indicator_definitions
		WHERE active = true AND type = ANY($1)
		ORDER BY sort_order, type`, typeKeys)
	if err != nil {
		return nil, fmt.Errorf("failed to query indicator definitions: %w", err)
	}
	defer rows.Close()

	return scanDefinitions(rows)
}

// GetByType returns one definition, or pgx.ErrNoRows wrapped when absent.
func (s *Store) GetByType(ctx context.Context, typeKey string) (*Definition, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+definitionColumns+`
		FROM indicator_definitions
		WHERE type = $1`, typeKey)

	def, err := scanDefinition(row)
	if err != nil {
		return nil, err
	}
	return &def, nil
}

// Upsert inserts or replaces a definition by type key.
func (s *Store) Upsert(ctx context.Context, def Definition) error {
	schemaJSON, err := json.Marshal(def.ParameterSchema)
	if err != nil {
		return fmt.Errorf("failed to marshal parameter schema: %w", err)
	}
	aliasesJSON, err := json.Marshal(emptyIfNil(def.Aliases))
	if err != nil {
		return fmt.Errorf("failed to marshal aliases: %w", err)
	}
	keywordsJSON, err := json.Marshal(emptyIfNil(def.Keywords))
	if err != nil {
		return fmt.Errorf("failed to marshal keywords: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO indicator_definitions
			(type, display_name, category, parameter_schema, prompt_snippet, aliases, keywords, active, sort_order, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
		ON CONFLICT (type) DO UPDATE SET
			display_name = EXCLUDED.display_name,
			category = EXCLUDED.category,
			parameter_schema = EXCLUDED.parameter_schema,
			prompt_snippet = EXCLUDED.prompt_snippet,
			aliases = EXCLUDED.aliases,
			keywords = EXCLUDED.keywords,
			active = EXCLUDED.active,
			sort_order = EXCLUDED.sort_order,
			updated_at = NOW()`,
		def.Type, def.DisplayName, def.Category, schemaJSON, def.PromptSnippet,
		aliasesJSON, keywordsJSON, def.Active, def.SortOrder)
	if err != nil {
		return fmt.Errorf("failed to upsert indicator definition %q: %w", def.Type, err)
	}
	return nil
}

// Delete removes a definition by type key.
func (s *Store) Delete(ctx context.Context, typeKey string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM indicator_definitions WHERE type = $1`, typeKey)
	if err != nil {
		return fmt.Errorf("failed to delete indicator definition %q: %w", typeKey, err)
	}
	return nil
}

func scanDefinitions(rows pgx.Rows) ([]Definition, error) {
	var defs []Definition
	for rows.Next() {
		def, err := scanDefinition(rows)
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	return defs, rows.Err()
}

func scanDefinition(row pgx.Row) (Definition, error) {
	var (
		def          Definition
		schemaJSON   []byte
		aliasesJSON  []byte
		keywordsJSON []byte
	)

	err := row.Scan(&def.Type, &def.DisplayName, &def.Category, &schemaJSON,
		&def.PromptSnippet, &aliasesJSON, &keywordsJSON, &def.Active, &def.SortOrder)
	if err != nil {
		return Definition{}, err
	}

	def.ParameterSchema = make(map[string]rules.ParameterSpec)
	if len(schemaJSON) > 0 {
		if err := json.Unmarshal(schemaJSON, &def.ParameterSchema); err != nil {
			return Definition{}, fmt.Errorf("failed to unmarshal parameter schema for %q: %w", def.Type, err)
		}
	}
	if len(aliasesJSON) > 0 {
		if err := json.Unmarshal(aliasesJSON, &def.Aliases); err != nil {
			return Definition{}, fmt.Errorf("failed to unmarshal aliases for %q: %w", def.Type, err)
		}
	}
	if len(keywordsJSON) > 0 {
		if err := json.Unmarshal(keywordsJSON, &def.Keywords); err != nil {
			return Definition{}, fmt.Errorf("failed to unmarshal keywords for %q: %w", def.Type, err)
		}
	}

	return def, nil
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
