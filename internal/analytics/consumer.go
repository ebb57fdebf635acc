package analytics

import (
	"context"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/serroba/linkstats/internal/messaging"
	"go.uber.org/zap"
)

// Sink receives analytics events taken off the message bus.
type Sink interface {
	LinkCreated(ctx context.Context, event *LinkCreatedEvent) error
	LinkClicked(ctx context.Context, event *LinkClickedEvent) error
}

// NewConsumers builds one consumer per analytics topic, all feeding sink.
func NewConsumers(subscriber message.Subscriber, sink Sink, logger *zap.Logger) []messaging.Runnable {
	return []messaging.Runnable{
		messaging.NewConsumer(subscriber, TopicLinkCreated, sink.LinkCreated, logger),
		messaging.NewConsumer(subscriber, TopicLinkClicked, sink.LinkClicked, logger),
	}
}
