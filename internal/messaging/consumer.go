package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/serroba/linkstats/internal/metrics"
	"go.uber.org/zap"
)

// Handler processes a single decoded event.
type Handler[T any] func(ctx context.Context, event *T) error

// Consumer feeds the JSON events of one topic to a typed handler.
// A message is acked once the handler succeeds; undecodable payloads and
// handler failures are nacked for redelivery.
type Consumer[T any] struct {
	subscriber message.Subscriber
	topic      string
	handle     Handler[T]
	logger     *zap.Logger
	stop       context.CancelFunc
	done       chan struct{}
}

// NewConsumer creates a consumer of topic.
func NewConsumer[T any](
	subscriber message.Subscriber,
	topic string,
	handle Handler[T],
	logger *zap.Logger,
) *Consumer[T] {
	return &Consumer[T]{
		subscriber: subscriber,
		topic:      topic,
		handle:     handle,
		logger:     logger.With(zap.String("topic", topic)),
		done:       make(chan struct{}),
	}
}

// Topic returns the topic this consumer subscribes to.
func (c *Consumer[T]) Topic() string {
	return c.topic
}

// Start subscribes and processes messages in a background goroutine until
// ctx is cancelled, Shutdown is called or the subscription closes.
func (c *Consumer[T]) Start(ctx context.Context) error {
	ctx, c.stop = context.WithCancel(ctx)

	msgs, err := c.subscriber.Subscribe(ctx, c.topic)
	if err != nil {
		c.stop()
		close(c.done)

		return fmt.Errorf("subscribe %s: %w", c.topic, err)
	}

	go func() {
		defer close(c.done)

		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}

				c.deliver(ctx, msg)
			}
		}
	}()

	return nil
}

// deliver settles msg and counts the outcome.
func (c *Consumer[T]) deliver(ctx context.Context, msg *message.Message) {
	requestID := msg.Metadata.Get(MetadataRequestID)
	logger := c.logger.With(
		zap.String("message_id", msg.UUID),
		zap.String("request_id", requestID),
	)

	outcome, err := c.process(context.WithValue(ctx, chimw.RequestIDKey, requestID), msg.Payload)
	metrics.EventsConsumed.WithLabelValues(c.topic, outcome).Inc()

	if err != nil {
		logger.Error("event not processed", zap.String("outcome", outcome), zap.Error(err))
		msg.Nack()

		return
	}

	msg.Ack()
	logger.Debug("event processed")
}

func (c *Consumer[T]) process(ctx context.Context, payload []byte) (string, error) {
	var event T
	if err := json.Unmarshal(payload, &event); err != nil {
		return metrics.EventDecodeFailed, fmt.Errorf("decode event: %w", err)
	}

	if err := c.handle(ctx, &event); err != nil {
		return metrics.EventHandlerError, err
	}

	return metrics.EventAcked, nil
}

// Shutdown stops the consumer and waits for the in-flight message to complete.
// It is a no-op for a consumer that never started.
func (c *Consumer[T]) Shutdown() error {
	if c.stop == nil {
		return nil
	}

	c.stop()
	<-c.done

	return nil
}
