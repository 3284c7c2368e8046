package pkg

import (
	"fmt"
	"log/slog"

	"github.com/Shopify/sarama"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-kafka/v2/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"

	"github.com/SAP-F-2025/tutor-service/internal/config"
)

// PubSub bundles the change-feed publisher and subscriber
type PubSub struct {
	Publisher  message.Publisher
	Subscriber message.Subscriber
	Backend    string
	shared     bool
}

// Close shuts down both halves; for gochannel they are the same object
func (p *PubSub) Close() error {
	if err := p.Publisher.Close(); err != nil {
		return err
	}
	if !p.shared {
		return p.Subscriber.Close()
	}
	return nil
}

// NewPubSub returns an in-process gochannel pubsub, or Kafka when KAFKA_BROKERS is set
func NewPubSub(cfg *config.Config, logger *slog.Logger) (*PubSub, error) {
	wmLogger := watermill.NewSlogLogger(logger)

	if len(cfg.KafkaBrokers) == 0 {
		goChannel := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 64}, wmLogger)
		return &PubSub{Publisher: goChannel, Subscriber: goChannel, Backend: "gochannel", shared: true}, nil
	}

	publisher, err := kafka.NewPublisher(kafka.PublisherConfig{
		Brokers:   cfg.KafkaBrokers,
		Marshaler: kafka.DefaultMarshaler{},
	}, wmLogger)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka publisher: %w", err)
	}

	// Change events only trigger reloads, so old offsets are never replayed
	saramaConfig := kafka.DefaultSaramaSubscriberConfig()
	saramaConfig.Consumer.Offsets.Initial = sarama.OffsetNewest

	// Every instance must see every change, so each one joins its own consumer group
	subscriber, err := kafka.NewSubscriber(kafka.SubscriberConfig{
		Brokers:               cfg.KafkaBrokers,
		Unmarshaler:           kafka.DefaultMarshaler{},
		OverwriteSaramaConfig: saramaConfig,
		ConsumerGroup:         fmt.Sprintf("%s-%s", cfg.KafkaConsumerGroup, uuid.NewString()[:8]),
	}, wmLogger)
	if err != nil {
		_ = publisher.Close()
		return nil, fmt.Errorf("failed to create kafka subscriber: %w", err)
	}

	return &PubSub{Publisher: publisher, Subscriber: subscriber, Backend: "kafka"}, nil
}
