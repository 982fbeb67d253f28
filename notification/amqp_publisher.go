package notification

import (
	"context"
	"errors"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	// DefaultExchange is the exchange loan-opened notifications are published to.
	DefaultExchange = "notification.exchange"

	// DefaultRoutingKey routes loan-opened notifications to the consumer queue.
	DefaultRoutingKey = "notification.routingkey"

	exchangeKindDirect = "direct"
	contentTypeJSON    = "application/json"
)

var (
	// ErrEmptyAMQPURL is returned when the publisher is created without a broker URL.
	ErrEmptyAMQPURL = errors.New("AMQP URL must not be empty")

	// ErrEmptyExchange is returned when an empty exchange name is configured.
	ErrEmptyExchange = errors.New("AMQP exchange must not be empty")

	// ErrEmptyRoutingKey is returned when an empty routing key is configured.
	ErrEmptyRoutingKey = errors.New("AMQP routing key must not be empty")

	// ErrAMQPConnectionFailed is returned when the broker can not be reached.
	ErrAMQPConnectionFailed = errors.New("connecting to AMQP broker failed")

	// ErrAMQPPublishFailed is returned when a message can not be published.
	ErrAMQPPublishFailed = errors.New("publishing to AMQP broker failed")
)

// AMQPPublisher publishes notifications to a RabbitMQ exchange.
// Messages are published persistent so they survive a broker restart.
type AMQPPublisher struct {
	conn       *amqp.Connection
	channel    *amqp.Channel
	exchange   string
	routingKey string
}

// AMQPOption defines a functional option for configuring an AMQPPublisher.
type AMQPOption func(*AMQPPublisher) error

// WithExchange sets the exchange messages are published to.
func WithExchange(exchange string) AMQPOption {
	return func(p *AMQPPublisher) error {
		if exchange == "" {
			return ErrEmptyExchange
		}

		p.exchange = exchange

		return nil
	}
}

// WithRoutingKey sets the routing key messages are published with.
func WithRoutingKey(routingKey string) AMQPOption {
	return func(p *AMQPPublisher) error {
		if routingKey == "" {
			return ErrEmptyRoutingKey
		}

		p.routingKey = routingKey

		return nil
	}
}

// NewAMQPPublisher connects to the broker at url and declares the exchange.
func NewAMQPPublisher(url string, options ...AMQPOption) (*AMQPPublisher, error) {
	if url == "" {
		return nil, ErrEmptyAMQPURL
	}

	p := &AMQPPublisher{
		exchange:   DefaultExchange,
		routingKey: DefaultRoutingKey,
	}

	for _, option := range options {
		if err := option(p); err != nil {
			return nil, err
		}
	}

	conn, dialErr := amqp.Dial(url)
	if dialErr != nil {
		return nil, errors.Join(ErrAMQPConnectionFailed, dialErr)
	}

	channel, channelErr := conn.Channel()
	if channelErr != nil {
		_ = conn.Close()
		return nil, errors.Join(ErrAMQPConnectionFailed, channelErr)
	}

	declareErr := channel.ExchangeDeclare(
		p.exchange,
		exchangeKindDirect,
		true,  // durable
		false, // autoDelete
		false, // internal
		false, // noWait
		nil,
	)
	if declareErr != nil {
		_ = channel.Close()
		_ = conn.Close()

		return nil, errors.Join(ErrAMQPConnectionFailed, declareErr)
	}

	p.conn = conn
	p.channel = channel

	return p, nil
}

// Publish sends the encoded notification to the configured exchange.
func (p *AMQPPublisher) Publish(ctx context.Context, body []byte) error {
	publishErr := p.channel.PublishWithContext(
		ctx,
		p.exchange,
		p.routingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  contentTypeJSON,
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
	if publishErr != nil {
		return errors.Join(ErrAMQPPublishFailed, publishErr)
	}

	return nil
}

// Close releases the channel and the broker connection.
func (p *AMQPPublisher) Close() error {
	channelErr := p.channel.Close()
	connErr := p.conn.Close()

	return errors.Join(channelErr, connErr)
}
