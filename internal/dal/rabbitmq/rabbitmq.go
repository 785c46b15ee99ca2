// Package rabbitmq publishes outbox events to RabbitMQ.
package rabbitmq

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/corray333/backend-labs/shop/internal/config"
	"github.com/corray333/backend-labs/shop/internal/service/models/outbox"
	"github.com/streadway/amqp"
)

// channel is the part of *amqp.Channel the client uses.
type channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// eventKeys are the routing keys the shop emits.
var eventKeys = []string{outbox.RoutingKeyOrderCreated, outbox.RoutingKeyOrderStatusChanged}

type Client struct {
	conn     *amqp.Connection
	ch       channel
	exchange string
}

// NewClient dials the broker and declares the event topology.
func NewClient(cfg config.RabbitMQConfig) (*Client, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()

		return nil, fmt.Errorf("failed to open RabbitMQ channel: %w", err)
	}

	c := &Client{conn: conn, ch: ch, exchange: cfg.Exchange}
	if err := c.declare(); err != nil {
		_ = c.Close()

		return nil, err
	}

	slog.Info("RabbitMQ connected", "exchange", cfg.Exchange)

	return c, nil
}

func MustNewClient(cfg config.RabbitMQConfig) *Client {
	c, err := NewClient(cfg)
	if err != nil {
		panic(err)
	}

	return c
}

// declare creates a durable topic exchange when one is configured. Without an
// exchange events go through the default exchange, so a durable queue named
// after each routing key is declared instead.
func (c *Client) declare() error {
	if c.exchange != "" {
		if err := c.ch.ExchangeDeclare(c.exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
			return fmt.Errorf("failed to declare exchange %s: %w", c.exchange, err)
		}

		return nil
	}

	for _, key := range eventKeys {
		if _, err := c.ch.QueueDeclare(key, true, false, false, false, nil); err != nil {
			return fmt.Errorf("failed to declare queue %s: %w", key, err)
		}
	}

	return nil
}

// Publish sends msg as a persistent message. An exchange set on the message
// overrides the configured one.
func (c *Client) Publish(_ context.Context, msg outbox.Message) error {
	exchange := c.exchange
	if msg.ExchangeName != "" {
		exchange = msg.ExchangeName
	}

	err := c.ch.Publish(exchange, msg.RoutingKey, false, false, amqp.Publishing{
		ContentType:  msg.ContentType,
		DeliveryMode: amqp.Persistent,
		MessageId:    msg.EventID.String(),
		Timestamp:    msg.CreatedAt,
		Body:         msg.Payload,
	})
	if err != nil {
		return fmt.Errorf("failed to publish %s to %q: %w", msg.RoutingKey, exchange, err)
	}

	return nil
}

func (c *Client) Close() error {
	if c.ch != nil {
		if err := c.ch.Close(); err != nil {
			return fmt.Errorf("failed to close RabbitMQ channel: %w", err)
		}
	}
	if c.conn != nil {
		return c.conn.Close()
	}

	return nil
}
