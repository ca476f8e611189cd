package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/sheikh-saqib/personal-banking-ledger/internal/interfaces"
	"github.com/sheikh-saqib/personal-banking-ledger/internal/models/events"
)

// Publisher appends ledger events to a Redis stream.
type Publisher struct {
	client *goredis.Client
	stream string
}

// NewPublisher wraps an existing client.
func NewPublisher(client *goredis.Client, stream string) *Publisher {
	return &Publisher{client: client, stream: stream}
}

// Dial connects to Redis and verifies the connection before returning.
func Dial(ctx context.Context, addr, password string, db int, stream string) (*Publisher, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return NewPublisher(rdb, stream), nil
}

func (p *Publisher) Publish(ctx context.Context, eventType string, event any) error {
	eventJSON, err := json.Marshal(events.Envelope{
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Data:      event,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	args := &goredis.XAddArgs{
		Stream: p.stream,
		Values: map[string]any{
			"type":  eventType,
			"event": eventJSON,
		},
	}
	if _, err := p.client.XAdd(ctx, args).Result(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

func (p *Publisher) Close() error {
	return p.client.Close()
}

var _ interfaces.EventPublisher = (*Publisher)(nil)
