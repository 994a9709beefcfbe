package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"tahuri-backend/models"
)

// Producer publishes domain messages to one Kafka topic, keyed by
// registration so every message of a registration lands on one partition.
type Producer struct {
	writer *kafka.Writer
}

func NewKafkaProducer(brokers []string, topic string) *Producer {
	return &Producer{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			BatchTimeout: 50 * time.Millisecond,
			RequiredAcks: kafka.RequireOne,
		},
	}
}

func (p *Producer) Publish(ctx context.Context, msg models.DomainMessage) error {
	const op = "broker.Producer.Publish"

	m, err := encode(msg)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := p.writer.WriteMessages(ctx, m); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (p *Producer) Close() error {
	const op = "broker.Producer.Close"

	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func encode(msg models.DomainMessage) (kafka.Message, error) {
	value, err := json.Marshal(msg)
	if err != nil {
		return kafka.Message{}, err
	}

	return kafka.Message{
		Key:   []byte(msg.RegistrationID.String()),
		Value: value,
		Time:  msg.OccurredAt,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(msg.Type)},
		},
	}, nil
}

// Noop drops every message; used when no brokers are configured.
type Noop struct{}

func (Noop) Publish(context.Context, models.DomainMessage) error { return nil }

func (Noop) Close() error { return nil }
