// Package events selects the configured sink for ledger events.
package events

import (
	"context"
	"fmt"

	"github.com/sheikh-saqib/personal-banking-ledger/internal/config"
	"github.com/sheikh-saqib/personal-banking-ledger/internal/events/kafka"
	"github.com/sheikh-saqib/personal-banking-ledger/internal/events/redis"
	"github.com/sheikh-saqib/personal-banking-ledger/internal/interfaces"
)

// Open returns the publisher selected by cfg, or nil when events are disabled.
func Open(ctx context.Context, cfg config.EventsConfig) (interfaces.EventPublisher, error) {
	switch cfg.Driver {
	case config.EventsNone, "":
		return nil, nil
	case config.EventsKafka:
		return kafka.NewPublisher(cfg.Brokers, cfg.Topic), nil
	case config.EventsRedis:
		p, err := redis.Dial(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.Topic)
		if err != nil {
			return nil, err
		}
		return p, nil
	}
	return nil, fmt.Errorf("unknown events driver %q", cfg.Driver)
}
