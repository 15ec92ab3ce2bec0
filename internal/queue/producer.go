package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/kapilwn1990/AlgoXera.Lambda.TemplateEngine/config"
)

// Producer enqueues generation requests.
type Producer struct {
	writer *kafka.Writer
}

// NewProducer creates a Kafka producer for the generation topic.
func NewProducer(cfg config.KafkaConfig) *Producer {
	return &Producer{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        cfg.Topic,
			Balancer:     &kafka.LeastBytes{},
			BatchTimeout: 50 * time.Millisecond,
			RequiredAcks: kafka.RequireOne,
		},
	}
}

// Enqueue publishes a generation request, keyed by template id so repeat
// requests for the same template land on the same partition.
func (p *Producer) Enqueue(ctx context.Context, req GenerationRequest) error {
	value, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal generation request: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(req.TemplateID),
		Value: value,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to enqueue generation request: %w", err)
	}
	return nil
}

// Close closes the producer.
func (p *Producer) Close() error {
	return p.writer.Close()
}
