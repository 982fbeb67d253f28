package notification

import (
	"context"
	"errors"

	jsoniter "github.com/json-iterator/go"

	"github.com/analisys/circulation-go/circulation"
)

var jsonAPI = jsoniter.ConfigFastest

var (
	// ErrNilQueuePublisher is returned when a dispatcher is created without a queue publisher.
	ErrNilQueuePublisher = errors.New("queue publisher must not be nil")

	// ErrNilStreamPublisher is returned when a dispatcher is created without a stream publisher.
	ErrNilStreamPublisher = errors.New("stream publisher must not be nil")

	// ErrEncodingNotificationFailed is returned when a notification can not be encoded as JSON.
	ErrEncodingNotificationFailed = errors.New("encoding notification failed")

	// ErrPublishingNotificationFailed is returned when a publisher rejects the encoded notification.
	ErrPublishingNotificationFailed = errors.New("publishing notification failed")
)

// Publisher delivers an encoded notification to a single channel.
type Publisher interface {
	Publish(ctx context.Context, body []byte) error
}

// Logger interface for operational messages and error reporting.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Dispatcher encodes notifications and routes them to the queue or stream channel.
type Dispatcher struct {
	queue  Publisher
	stream Publisher
	logger Logger
}

// Option defines a functional option for configuring a Dispatcher.
type Option func(*Dispatcher) error

// WithLogger sets the logger for the Dispatcher.
func WithLogger(logger Logger) Option {
	return func(d *Dispatcher) error {
		d.logger = logger
		return nil
	}
}

// NewDispatcher creates a Dispatcher delivering to the given queue and stream publishers.
func NewDispatcher(queue Publisher, stream Publisher, options ...Option) (Dispatcher, error) {
	if queue == nil {
		return Dispatcher{}, ErrNilQueuePublisher
	}

	if stream == nil {
		return Dispatcher{}, ErrNilStreamPublisher
	}

	d := Dispatcher{
		queue:  queue,
		stream: stream,
	}

	for _, option := range options {
		if err := option(&d); err != nil {
			return Dispatcher{}, err
		}
	}

	return d, nil
}

// PublishQueue delivers the notification over the queue channel.
func (d Dispatcher) PublishQueue(ctx context.Context, notification circulation.Notification) error {
	return d.publish(ctx, d.queue, "queue", notification)
}

// PublishStream delivers the notification over the stream channel.
func (d Dispatcher) PublishStream(ctx context.Context, notification circulation.Notification) error {
	return d.publish(ctx, d.stream, "stream", notification)
}

func (d Dispatcher) publish(
	ctx context.Context,
	publisher Publisher,
	channel string,
	notification circulation.Notification,
) error {
	body, marshalErr := jsonAPI.Marshal(notification)
	if marshalErr != nil {
		return errors.Join(ErrEncodingNotificationFailed, marshalErr)
	}

	if publishErr := publisher.Publish(ctx, body); publishErr != nil {
		if d.logger != nil {
			d.logger.Error(
				"notification publish failed",
				"channel", channel,
				"target_user", notification.TargetUser,
				"error", publishErr.Error())
		}

		return errors.Join(ErrPublishingNotificationFailed, publishErr)
	}

	if d.logger != nil {
		d.logger.Debug(
			"notification published",
			"channel", channel,
			"target_user", notification.TargetUser)
	}

	return nil
}
