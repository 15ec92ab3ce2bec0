// Package template defines the persisted template entity and its
// PostgreSQL repository.
package template

import (
	"encoding/json"
	"time"
)

// Status is the template lifecycle state.
type Status string

const (
	StatusDraft      Status = "draft"
	StatusGenerating Status = "generating"
	StatusActive     Status = "active"
	StatusFailed     Status = "failed"
)

// Type selects the rules variant a template carries.
type Type string

const (
	TypeStepwise Type = "stepwise"
	TypeSignal   Type = "signal"
)

// Template is the persisted entity. Rules holds the validated rule
// structure serialized verbatim; it is only written when the generation
// pipeline completes successfully. A template is owner-mutable only, and
// immutable once active except through an explicit update request that
// re-enters the pipeline.
type Template struct {
	ID           string          `json:"id"`
	Owner        string          `json:"owner"`
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	Category     string          `json:"category"`
	Type         Type            `json:"type"`
	Status       Status          `json:"status"`
	Rules        json.RawMessage `json:"rules,omitempty"`
	ErrorMessage string          `json:"errorMessage,omitempty"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}
