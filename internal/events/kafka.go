package events

import (
	"context"
	"fmt"
	"time"

	"carhub/pkg/kafka"
	kafka_config "carhub/pkg/kafka/config"
	kafka_middleware "carhub/pkg/kafka/middleware"
	"carhub/pkg/logger"
)

// producer is the part of *kafka.Producer the publisher uses.
type producer interface {
	Publish(ctx context.Context, msg kafka.Message) error
	Close() error
}

type kafkaPublisher struct {
	producer producer
	source   string
}

func newKafkaPublisher(p producer, source string) *kafkaPublisher {
	return &kafkaPublisher{producer: p, source: source}
}

// NewPublisher returns a Kafka-backed publisher when brokers are configured and
// a no-op publisher otherwise.
func NewPublisher(cfg *kafka_config.Config, source string, log *logger.Logger) (Publisher, error) {
	if cfg == nil || !cfg.Enabled() {
		log.Info("Kafka disabled, domain events will not be published")
		return NewNoopPublisher(), nil
	}

	p, err := kafka.NewProducer(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}
	if cfg.EnableMiddleware {
		p.Use(kafka_middleware.LoggingProducerMiddleware(log))
	}

	log.Info("Kafka publisher initialized", "topic", p.Topic(), "brokers", cfg.Brokers)
	return newKafkaPublisher(p, source), nil
}

func (k *kafkaPublisher) Publish(ctx context.Context, event Event) error {
	occurredAt := event.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}

	msg, err := kafka.NewMessage().
		WithKey(event.Key).
		WithEventType(event.Type).
		WithCorrelationID(event.CorrelationID).
		WithSchemaVersion(SchemaVersion).
		WithSource(k.source).
		WithValue(envelope{
			Type:       event.Type,
			Key:        event.Key,
			OccurredAt: occurredAt,
			Data:       event.Payload,
		}).
		Build()
	if err != nil {
		return fmt.Errorf("failed to build %s event: %w", event.Type, err)
	}

	if err := k.producer.Publish(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish %s event: %w", event.Type, err)
	}
	return nil
}

func (k *kafkaPublisher) Close() error {
	return k.producer.Close()
}

type envelope struct {
	Type       string    `json:"type"`
	Key        string    `json:"key"`
	OccurredAt time.Time `json:"occurred_at"`
	Data       any       `json:"data"`
}
