package notification

import (
	"context"
	"errors"

	"github.com/segmentio/kafka-go"
)

// DefaultTopic is the stream topic loan-closed notifications are written to.
const DefaultTopic = "loan-closed"

var (
	// ErrNoKafkaBrokers is returned when the publisher is created without brokers.
	ErrNoKafkaBrokers = errors.New("at least one Kafka broker is required")

	// ErrEmptyTopic is returned when an empty topic is configured.
	ErrEmptyTopic = errors.New("Kafka topic must not be empty")

	// ErrKafkaWriteFailed is returned when a message can not be written to the stream.
	ErrKafkaWriteFailed = errors.New("writing to Kafka failed")
)

// KafkaPublisher writes notifications to a Kafka topic.
type KafkaPublisher struct {
	writer *kafka.Writer
	topic  string
}

// KafkaOption defines a functional option for configuring a KafkaPublisher.
type KafkaOption func(*KafkaPublisher) error

// WithTopic sets the topic messages are written to.
func WithTopic(topic string) KafkaOption {
	return func(p *KafkaPublisher) error {
		if topic == "" {
			return ErrEmptyTopic
		}

		p.topic = topic

		return nil
	}
}

// NewKafkaPublisher creates a publisher writing to the given brokers.
func NewKafkaPublisher(brokers []string, options ...KafkaOption) (*KafkaPublisher, error) {
	if len(brokers) == 0 {
		return nil, ErrNoKafkaBrokers
	}

	p := &KafkaPublisher{
		topic: DefaultTopic,
	}

	for _, option := range options {
		if err := option(p); err != nil {
			return nil, err
		}
	}

	p.writer = &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        p.topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
	}

	return p, nil
}

// Publish writes the encoded notification to the configured topic.
func (p *KafkaPublisher) Publish(ctx context.Context, body []byte) error {
	writeErr := p.writer.WriteMessages(ctx, kafka.Message{Value: body})
	if writeErr != nil {
		return errors.Join(ErrKafkaWriteFailed, writeErr)
	}

	return nil
}

// Close flushes pending messages and releases the writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
