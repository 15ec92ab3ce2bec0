package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/kapilwn1990/AlgoXera.Lambda.TemplateEngine/config"
	"github.com/kapilwn1990/AlgoXera.Lambda.TemplateEngine/internal/convstore"
	"github.com/kapilwn1990/AlgoXera.Lambda.TemplateEngine/internal/generator"
	"github.com/kapilwn1990/AlgoXera.Lambda.TemplateEngine/internal/rules"
	"github.com/kapilwn1990/AlgoXera.Lambda.TemplateEngine/internal/template"
)

// Generator runs one generation request for a pre-created template.
type Generator interface {
	Generate(ctx context.Context, templateID string, req generator.Request) error
}

// ConversationLoader resolves a conversation id to its stored history.
type ConversationLoader interface {
	Get(ctx context.Context, id string) (*convstore.Conversation, error)
}

// TemplateFailer records a terminal failure for a template whose pipeline
// never ran.
type TemplateFailer interface {
	MarkFailed(ctx context.Context, id string, message string) error
}

// Consumer reads generation requests from Kafka and runs the pipeline.
// A bad message never stops the loop: it is logged and the consumer moves
// on to the next message.
type Consumer struct {
	reader        *kafka.Reader
	service       Generator
	conversations ConversationLoader
	templates     TemplateFailer
	logger        zerolog.Logger
}

// NewConsumer creates a consumer for the generation topic.
func NewConsumer(cfg config.KafkaConfig, service Generator, conversations ConversationLoader, templates TemplateFailer, logger zerolog.Logger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.Brokers,
		Topic:          cfg.Topic,
		GroupID:        cfg.GroupID,
		MinBytes:       1,
		MaxBytes:       10e6,
		MaxWait:        1 * time.Second,
		CommitInterval: time.Second,
	})

	return &Consumer{
		reader:        reader,
		service:       service,
		conversations: conversations,
		templates:     templates,
		logger:        logger.With().Str("component", "GenerationConsumer").Logger(),
	}
}

// Start consumes until the context is cancelled.
func (c *Consumer) Start(ctx context.Context) error {
	c.logger.Info().Str("topic", c.reader.Config().Topic).Msg("generation consumer started")

	for {
		select {
		case <-ctx.Done():
			c.logger.Info().Msg("generation consumer shutting down")
			return c.reader.Close()
		default:
			msg, err := c.reader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				c.logger.Error().Err(err).Msg("failed to read message")
				continue
			}

			if err := c.processMessage(ctx, msg); err != nil {
				c.logger.Error().Err(err).Str("key", string(msg.Key)).Msg("failed to process generation request")
			}
		}
	}
}

// processMessage runs one queued generation request end to end.
func (c *Consumer) processMessage(ctx context.Context, msg kafka.Message) error {
	var req GenerationRequest
	if err := json.Unmarshal(msg.Value, &req); err != nil {
		return fmt.Errorf("failed to unmarshal generation request: %w", err)
	}
	if req.TemplateID == "" {
		return fmt.Errorf("generation request has no template id")
	}

	conversation, err := c.conversationText(ctx, req)
	if err != nil {
		// The template was created in "generating" by the producer side;
		// without a status write here it would stay there forever.
		c.recordFailure(ctx, req.TemplateID, err)
		return err
	}

	genReq := generator.Request{
		Owner:        req.Owner,
		Name:         req.Name,
		Description:  req.Description,
		Category:     req.Category,
		Type:         templateType(req.TemplateType),
		Direction:    rules.Direction(req.Direction),
		Timeframe:    req.Timeframe,
		Conversation: conversation,
	}

	// The service records the outcome on the template; an error return
	// here is for logging only.
	return c.service.Generate(ctx, req.TemplateID, genReq)
}

func (c *Consumer) conversationText(ctx context.Context, req GenerationRequest) (string, error) {
	if len(req.Messages) > 0 {
		messages := make([]convstore.Message, 0, len(req.Messages))
		for _, m := range req.Messages {
			messages = append(messages, convstore.Message{Role: m.Role, Content: m.Content, Timestamp: m.Timestamp})
		}
		return convstore.Flatten(messages), nil
	}

	if req.ConversationID == "" {
		return "", errors.New("generation request carries neither messages nor a conversation id")
	}
	if c.conversations == nil {
		return "", errors.New("conversation store is not configured")
	}

	conv, err := c.conversations.Get(ctx, req.ConversationID)
	if err != nil {
		return "", fmt.Errorf("failed to load conversation %s: %w", req.ConversationID, err)
	}
	return convstore.Flatten(conv.Messages), nil
}

// recordFailure marks the template failed on a detached context so the
// write survives the consumer shutting down mid-message.
func (c *Consumer) recordFailure(ctx context.Context, id string, cause error) {
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := c.templates.MarkFailed(writeCtx, id, cause.Error()); err != nil {
		c.logger.Error().Err(err).Str("template_id", id).Msg("failed to record generation failure")
	}
}

func templateType(s string) template.Type {
	if s == string(template.TypeSignal) {
		return template.TypeSignal
	}
	return template.TypeStepwise
}

// Close closes the Kafka reader.
func (c *Consumer) Close() error {
	return c.reader.Close()
}
