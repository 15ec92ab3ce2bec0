// Package convstore is the Redis-backed conversation store: message
// history per conversation id with a bounded TTL.
package convstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/kapilwn1990/AlgoXera.Lambda.TemplateEngine/config"
)

// ErrNotFound is returned when a conversation id has no stored history.
var ErrNotFound = errors.New("conversation not found")

// Message is one conversation turn.
type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Conversation is the stored history for one conversation id.
type Conversation struct {
	ID       string    `json:"id"`
	Owner    string    `json:"owner"`
	Messages []Message `json:"messages"`
}

const (
	keyPrefix  = "conversation:%s"
	defaultTTL = 7 * 24 * time.Hour
)

// Store reads and writes conversations in Redis.
type Store struct {
	client *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

// NewStore connects to Redis and verifies connectivity.
func NewStore(cfg config.RedisConfig, logger zerolog.Logger) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: 2,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &Store{
		client: client,
		ttl:    defaultTTL,
		logger: logger.With().Str("component", "ConversationStore").Logger(),
	}, nil
}

// Put stores a conversation, refreshing its TTL.
func (s *Store) Put(ctx context.Context, conv *Conversation) error {
	data, err := json.Marshal(conv)
	if err != nil {
		return fmt.Errorf("failed to marshal conversation: %w", err)
	}

	key := fmt.Sprintf(keyPrefix, conv.ID)
	if err := s.client.Set(ctx, key, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store conversation %s: %w", conv.ID, err)
	}
	return nil
}

// Append adds messages to a conversation, creating it if absent.
func (s *Store) Append(ctx context.Context, id, owner string, messages ...Message) error {
	conv, err := s.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		conv = &Conversation{ID: id, Owner: owner}
	} else if err != nil {
		return err
	}

	conv.Messages = append(conv.Messages, messages...)
	return s.Put(ctx, conv)
}

// Get returns a stored conversation or ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (*Conversation, error) {
	key := fmt.Sprintf(keyPrefix, id)

	data, err := s.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get conversation %s: %w", id, err)
	}

	var conv Conversation
	if err := json.Unmarshal([]byte(data), &conv); err != nil {
		return nil, fmt.Errorf("failed to unmarshal conversation %s: %w", id, err)
	}
	return &conv, nil
}

// Delete removes a conversation.
func (s *Store) Delete(ctx context.Context, id string) error {
	key := fmt.Sprintf(keyPrefix, id)
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to delete conversation %s: %w", id, err)
	}
	return nil
}

// Close closes the Redis connection.
func (s *Store) Close() error {
	return s.client.Close()
}

// Flatten renders messages as plain conversation text for the pipeline.
func Flatten(messages []Message) string {
	var b strings.Builder
	for _, msg := range messages {
		b.WriteString(msg.Role)
		b.WriteString(": ")
		b.WriteString(msg.Content)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
