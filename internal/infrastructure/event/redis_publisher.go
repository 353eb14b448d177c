package event

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/retailops/backend/internal/domain/shared"
	"github.com/retailops/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

const defaultEventChannel = "retailops:events"

// RedisEventPublisher relays domain events to a Redis Pub/Sub channel so
// other services (dashboards, sync workers) can react to stock and billing
// changes. It subscribes as a wildcard handler on the in-process bus.
type RedisEventPublisher struct {
	client  *redis.Client
	channel string
	logger  *zap.Logger
}

// eventEnvelope is the wire format published to Redis
type eventEnvelope struct {
	EventID       string    `json:"event_id"`
	EventType     string    `json:"event_type"`
	AggregateID   string    `json:"aggregate_id"`
	AggregateType string    `json:"aggregate_type"`
	TenantID      string    `json:"tenant_id"`
	OccurredAt    time.Time `json:"occurred_at"`
	Payload       any       `json:"payload"`
}

// NewRedisEventPublisher connects to Redis and returns a publisher
func NewRedisEventPublisher(cfg config.RedisConfig, logger *zap.Logger) (*RedisEventPublisher, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisEventPublisher{
		client:  client,
		channel: defaultEventChannel,
		logger:  logger,
	}, nil
}

// Handle serializes the event and publishes it to Redis.
// Delivery is fire-and-forget: a Redis outage must never fail the
// business operation that produced the event.
func (p *RedisEventPublisher) Handle(ctx context.Context, event shared.DomainEvent) error {
	envelope := eventEnvelope{
		EventID:       event.EventID().String(),
		EventType:     event.EventType(),
		AggregateID:   event.AggregateID().String(),
		AggregateType: event.AggregateType(),
		TenantID:      event.TenantID().String(),
		OccurredAt:    event.OccurredAt(),
		Payload:       event,
	}

	data, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("failed to marshal event %s: %w", event.EventType(), err)
	}

	if err := p.client.Publish(ctx, p.channel, data).Err(); err != nil {
		p.logger.Warn("failed to publish event to redis",
			zap.String("event_type", event.EventType()),
			zap.String("channel", p.channel),
			zap.Error(err),
		)
	}
	return nil
}

// EventTypes returns an empty slice: the publisher relays every event
func (p *RedisEventPublisher) EventTypes() []string {
	return nil
}

// Close releases the Redis connection
func (p *RedisEventPublisher) Close() error {
	return p.client.Close()
}

// Ensure RedisEventPublisher implements EventHandler
var _ shared.EventHandler = (*RedisEventPublisher)(nil)
