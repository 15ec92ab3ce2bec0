// Package queue dispatches generation requests through Kafka: the HTTP
// surface enqueues, a worker consumes and runs the pipeline.
package queue

import (
	"time"
)

// GenerationRequest is the queued message for one template generation.
// Messages may be embedded directly; when empty, the worker loads the
// conversation from the conversation store by ConversationID.
type GenerationRequest struct {
	TemplateID     string           `json:"template_id"`
	ConversationID string           `json:"conversation_id"`
	Owner          string           `json:"owner"`
	Name           string           `json:"name"`
	Description    string           `json:"description"`
	Category       string           `json:"category"`
	TemplateType   string           `json:"template_type"` // "stepwise" or "signal"
	Direction      string           `json:"direction,omitempty"`
	Timeframe      string           `json:"timeframe,omitempty"`
	Messages       []RequestMessage `json:"messages,omitempty"`
}

// RequestMessage is one conversation turn carried in the queue message.
type RequestMessage struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}
