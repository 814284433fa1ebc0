package events

import (
	"context"
	"time"

	"innkeep/pkg/config"
	"innkeep/pkg/kafka"
	kafka_config "innkeep/pkg/kafka/config"
	kafka_middleware "innkeep/pkg/kafka/middleware"
	"innkeep/pkg/model"
)

// Publisher emits reservation lifecycle events after a state change commits.
// Publishing is best-effort: a lost event never rolls back a booking.
type Publisher interface {
	Publish(ctx context.Context, event model.ReservationEvent) error
	Close() error
}

type kafkaPublisher struct {
	producer *kafka.Producer
	source   string
}

func NewKafkaPublisher(cfg *config.Config, source string) (Publisher, error) {
	producer, err := kafka.NewProducer(kafka_config.Load(), cfg.EventsTopic, cfg.EventsDLQTopic)
	if err != nil {
		return nil, err
	}

	producer.Use(kafka_middleware.LoggingProducerMiddleware(cfg.Log))

	return &kafkaPublisher{
		producer: producer,
		source:   source,
	}, nil
}

func (p *kafkaPublisher) Publish(ctx context.Context, event model.ReservationEvent) error {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	// Key by room so consumers see each room's lifecycle in order.
	msg := kafka.NewMessage().
		WithKey(event.RoomID).
		WithValue(event).
		WithEventType(event.EventType).
		WithSource(p.source).
		Build()

	return p.producer.Publish(ctx, msg)
}

func (p *kafkaPublisher) Close() error {
	return p.producer.Close()
}
