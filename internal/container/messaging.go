package container

import (
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/samber/do"
	"github.com/serroba/linkstats/internal/analytics"
	"github.com/serroba/linkstats/internal/analytics/sink"
	"github.com/serroba/linkstats/internal/messaging"
	"go.uber.org/zap"
)

// ConsumerGroupName is the Redis stream consumer group of the analytics consumers.
const ConsumerGroupName = "linkstats-analytics"

// MessagingPackage provides the event publisher, subscriber and typed publish
// functions. Events go through Redis streams when Redis is configured and through
// an in-process channel otherwise.
func MessagingPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (watermill.LoggerAdapter, error) {
		return messaging.NewZapLogger(do.MustInvoke[*zap.Logger](i)), nil
	})

	do.Provide(injector, func(i *do.Injector) (*gochannel.GoChannel, error) {
		return gochannel.NewGoChannel(gochannel.Config{}, do.MustInvoke[watermill.LoggerAdapter](i)), nil
	})

	do.Provide(injector, func(i *do.Injector) (message.Publisher, error) {
		if !do.MustInvoke[*Options](i).UsesRedis() {
			return do.MustInvoke[*gochannel.GoChannel](i), nil
		}

		client, err := do.Invoke[*RedisClient](i)
		if err != nil {
			return nil, err
		}

		return redisstream.NewPublisher(redisstream.PublisherConfig{
			Client: client.Client,
		}, do.MustInvoke[watermill.LoggerAdapter](i))
	})

	do.Provide(injector, func(i *do.Injector) (message.Subscriber, error) {
		if !do.MustInvoke[*Options](i).UsesRedis() {
			return do.MustInvoke[*gochannel.GoChannel](i), nil
		}

		client, err := do.Invoke[*RedisClient](i)
		if err != nil {
			return nil, err
		}

		return redisstream.NewSubscriber(redisstream.SubscriberConfig{
			Client:        client.Client,
			ConsumerGroup: ConsumerGroupName,
		}, do.MustInvoke[watermill.LoggerAdapter](i))
	})

	do.Provide(injector, func(i *do.Injector) (*messaging.PublisherGroup, error) {
		return messaging.NewPublisherGroup(do.MustInvoke[message.Publisher](i)), nil
	})

	do.Provide(injector, func(i *do.Injector) (messaging.Publish[analytics.LinkCreatedEvent], error) {
		group := do.MustInvoke[*messaging.PublisherGroup](i)

		return messaging.NewPublishFunc[analytics.LinkCreatedEvent](group.Publisher(), analytics.TopicLinkCreated), nil
	})

	do.Provide(injector, func(i *do.Injector) (messaging.Publish[analytics.LinkClickedEvent], error) {
		group := do.MustInvoke[*messaging.PublisherGroup](i)

		return messaging.NewPublishFunc[analytics.LinkClickedEvent](group.Publisher(), analytics.TopicLinkClicked), nil
	})
}

// ConsumerGroupPackage provides the analytics *messaging.ConsumerGroup writing
// every event to the log sink.
func ConsumerGroupPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*messaging.ConsumerGroup, error) {
		logger := do.MustInvoke[*zap.Logger](i)
		subscriber := do.MustInvoke[message.Subscriber](i)

		group := messaging.NewConsumerGroup(subscriber, logger)
		group.Add(analytics.NewConsumers(subscriber, sink.NewLog(logger), logger)...)

		return group, nil
	})
}
