package template

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when a template id does not exist.
var ErrNotFound = errors.New("template not found")

// Repository persists templates in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a template repository on the given pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Migrate creates the templates table if it does not exist.
func (r *Repository) Migrate(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS templates (
			id            UUID PRIMARY KEY,
			owner_id      TEXT NOT NULL,
			name          TEXT NOT NULL,
			description   TEXT NOT NULL DEFAULT '',
			category      TEXT NOT NULL DEFAULT '',
			template_type TEXT NOT NULL,
			status        TEXT NOT NULL,
			rules         JSONB,
			error_message TEXT NOT NULL DEFAULT '',
			created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`)
	if err != nil {
		return fmt.Errorf("failed to create templates table: %w", err)
	}

	_, err = r.pool.Exec(ctx, `
		CREATE INDEX IF NOT EXISTS idx_templates_owner ON templates (owner_id)`)
	if err != nil {
		return fmt.Errorf("failed to create templates owner index: %w", err)
	}
	return nil
}

const templateColumns = `id, owner_id, name, description, category, template_type, status, rules, error_message, created_at, updated_at`

// Create inserts a new template, assigning its id.
func (r *Repository) Create(ctx context.Context, t *Template) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	if t.Status == "" {
		t.Status = StatusDraft
	}

	err := r.pool.QueryRow(ctx, `
		INSERT INTO templates (id, owner_id, name, description, category, template_type, status, rules, error_message)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at`,
		t.ID, t.Owner, t.Name, t.Description, t.Category, t.Type, t.Status, rulesParam(t.Rules), t.ErrorMessage,
	).Scan(&t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create template: %w", err)
	}
	return nil
}

// Update rewrites the template's mutable fields.
func (r *Repository) Update(ctx context.Context, t *Template) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE templates
		SET name = $2, description = $3, category = $4, template_type = $5,
		    status = $6, rules = $7, error_message = $8, updated_at = NOW()
		WHERE id = $1`,
		t.ID, t.Name, t.Description, t.Category, t.Type, t.Status, rulesParam(t.Rules), t.ErrorMessage)
	if err != nil {
		return fmt.Errorf("failed to update template %s: %w", t.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkActive stores the validated rules payload and flips the template to
// active, clearing any previous failure message.
func (r *Repository) MarkActive(ctx context.Context, id string, rulesJSON json.RawMessage) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE templates
		SET status = $2, rules = $3, error_message = '', updated_at = NOW()
		WHERE id = $1`,
		id, StatusActive, []byte(rulesJSON))
	if err != nil {
		return fmt.Errorf("failed to activate template %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkFailed records a terminal pipeline failure.
func (r *Repository) MarkFailed(ctx context.Context, id string, message string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE templates
		SET status = $2, error_message = $3, updated_at = NOW()
		WHERE id = $1`,
		id, StatusFailed, message)
	if err != nil {
		return fmt.Errorf("failed to mark template %s failed: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Get returns one template by id.
func (r *Repository) Get(ctx context.Context, id string) (*Template, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+templateColumns+` FROM templates WHERE id = $1`, id)

	t, err := scanTemplate(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get template %s: %w", id, err)
	}
	return t, nil
}

// GetByOwner returns all templates belonging to an owner, newest first.
func (r *Repository) GetByOwner(ctx context.Context, owner string) ([]*Template, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+templateColumns+`
		FROM templates
		WHERE owner_id = $1
		ORDER BY created_at DESC`, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to list templates for owner %s: %w", owner, err)
	}
	defer rows.Close()

	var templates []*Template
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan template: %w", err)
		}
		templates = append(templates, t)
	}
	return templates, rows.Err()
}

// Delete removes a template by id.
func (r *Repository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM templates WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete template %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanTemplate(row pgx.Row) (*Template, error) {
	var (
		t         Template
		rulesJSON []byte
	)

	err := row.Scan(&t.ID, &t.Owner, &t.Name, &t.Description, &t.Category,
		&t.Type, &t.Status, &rulesJSON, &t.ErrorMessage, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if len(rulesJSON) > 0 {
		t.Rules = json.RawMessage(rulesJSON)
	}
	return &t, nil
}

// rulesParam maps an empty payload to SQL NULL.
func rulesParam(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return []byte(raw)
}
