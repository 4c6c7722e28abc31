package websocket

import (
	"context"
	"errors"

	"pollbox/internal/redis"
	"pollbox/pkg/logger"
)

// RedisBridge relays results events between API instances. Local mutations
// are published to Redis; events from any instance come back through the
// subscription and reach this instance's listeners.
type RedisBridge struct {
	publisher  *redis.ResultsPublisher
	subscriber *redis.ResultsSubscriber
	hub        *Hub
	logger     *logger.Logger
}

func NewRedisBridge(publisher *redis.ResultsPublisher, subscriber *redis.ResultsSubscriber, hub *Hub, l *logger.Logger) *RedisBridge {
	return &RedisBridge{publisher: publisher, subscriber: subscriber, hub: hub, logger: l}
}

// ResultsUpdated publishes to Redis instead of notifying the hub directly;
// the hub hears about the change through the subscription like everyone else.
func (b *RedisBridge) ResultsUpdated(questionIDs []uint) {
	if err := b.publisher.Publish(context.Background(), questionIDs); err != nil {
		if b.logger != nil {
			b.logger.Errorf("results publish failed: %s", err.Error())
		}
		// Redis is down; at least this instance's listeners hear about it.
		b.hub.ResultsUpdated(questionIDs)
	}
}

// Run blocks relaying subscribed events into the hub until ctx is cancelled.
func (b *RedisBridge) Run(ctx context.Context) {
	err := b.subscriber.Subscribe(ctx, b.hub.ResultsUpdated)
	if err != nil && !errors.Is(err, context.Canceled) && b.logger != nil {
		b.logger.Errorf("results subscription ended: %s", err.Error())
	}
}
