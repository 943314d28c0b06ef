package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type EventType string

const (
	// EventTypeKeywordCompleted is published after every keyword run, whatever its status.
	EventTypeKeywordCompleted EventType = "KEYWORD_COMPLETED"
)

// RedisClient is the part of the redis client the publisher needs.
type RedisClient interface {
	XAdd(ctx context.Context, args *redis.XAddArgs) *redis.StringCmd
	Close() error
}

// KeywordEvent announces that one keyword run has finished.
type KeywordEvent struct {
	EventID    string    `json:"event_id"`
	EventType  string    `json:"event_type"`
	RunID      string    `json:"run_id"`
	Keyword    string    `json:"keyword"`
	OutputFile string    `json:"output_file"`
	Records    int       `json:"records"`
	Status     string    `json:"status"`
	Error      string    `json:"error,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

type Publisher struct {
	redis  RedisClient
	stream string
	logger *slog.Logger
}

func NewPublisher(client RedisClient, stream string, logger *slog.Logger) *Publisher {
	return &Publisher{
		redis:  client,
		stream: stream,
		logger: logger.With("component", "notify"),
	}
}

// NewRedisPublisher connects to addr and verifies the connection.
func NewRedisPublisher(ctx context.Context, addr, password string, db int, stream string, logger *slog.Logger) (*Publisher, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return NewPublisher(client, stream, logger), nil
}

func (p *Publisher) KeywordCompleted(ctx context.Context, event *KeywordEvent) error {
	if event.EventID == "" {
		event.EventID = uuid.New().String()
	}
	if event.EventType == "" {
		event.EventType = string(EventTypeKeywordCompleted)
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	args := &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]interface{}{
			"data":       string(data),
			"event_type": event.EventType,
			"run_id":     event.RunID,
			"keyword":    event.Keyword,
			"status":     event.Status,
		},
	}

	if _, err := p.redis.XAdd(ctx, args).Result(); err != nil {
		return fmt.Errorf("failed to publish to redis: %w", err)
	}

	p.logger.Debug("keyword event published",
		"event_id", event.EventID,
		"keyword", event.Keyword,
		"stream", p.stream)

	return nil
}

func (p *Publisher) Close() error {
	return p.redis.Close()
}
