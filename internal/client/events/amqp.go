package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/appstate/internal/client/models"
	"github.com/dmitrijs2005/appstate/internal/logging"
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	// ExchangeName is the topic exchange mode changes are forwarded to.
	ExchangeName = "appstate.events"
	// RoutingKeyModeChanged is the routing key of forwarded ModeChanged events.
	RoutingKeyModeChanged = "mode.changed"
)

// amqpChannel is the part of *amqp.Channel the forwarder needs.
type amqpChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// AMQPForwarder publishes ModeChanged events to RabbitMQ. Subscribe its
// Listener to a Bus.
type AMQPForwarder struct {
	conn     *amqp.Connection
	channel  amqpChannel
	exchange string
	timeout  time.Duration
	log      logging.Logger
	mu       sync.Mutex
}

// DialAMQP connects to url and declares the exchange.
func DialAMQP(url string, log logging.Logger) (*AMQPForwarder, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if err := ch.ExchangeDeclare(ExchangeName, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	f := newAMQPForwarder(ch, log)
	f.conn = conn
	f.log.Info(context.Background(), "RabbitMQ forwarder connected", "exchange", ExchangeName)
	return f, nil
}

func newAMQPForwarder(ch amqpChannel, log logging.Logger) *AMQPForwarder {
	return &AMQPForwarder{
		channel:  ch,
		exchange: ExchangeName,
		timeout:  5 * time.Second,
		log:      logging.OrNop(log).With("component", "amqp"),
	}
}

// Listener forwards every event it receives.
func (f *AMQPForwarder) Listener() Listener {
	return f.Forward
}

// Forward publishes ev as JSON.
func (f *AMQPForwarder) Forward(ctx context.Context, ev models.ModeChanged) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to encode mode change: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	f.mu.Lock()
	defer f.mu.Unlock()

	err = f.channel.PublishWithContext(ctx, f.exchange, RoutingKeyModeChanged, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    ev.ID,
		Timestamp:    ev.OccurredAt,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("failed to publish mode change: %w", err)
	}

	f.log.Debug(ctx, "mode change forwarded", "event_id", ev.ID, "size", len(body))
	return nil
}

// Close closes the channel and the connection.
func (f *AMQPForwarder) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.channel != nil {
		if err := f.channel.Close(); err != nil {
			f.log.Warn(context.Background(), "error closing channel", "error", err)
		}
	}
	if f.conn != nil {
		return f.conn.Close()
	}
	return nil
}
