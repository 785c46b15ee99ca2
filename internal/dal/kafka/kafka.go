package kafka

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/corray333/backend-labs/shop/internal/config"
	"github.com/corray333/backend-labs/shop/internal/service/models/outbox"
	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Client publishes outbox messages to Kafka. The routing key is the topic.
type Client struct {
	writer messageWriter
}

// ParseBrokers splits a comma separated broker list.
func ParseBrokers(brokersCSV string) []string {
	brokers := []string{}
	for _, b := range strings.Split(brokersCSV, ",") {
		b = strings.TrimSpace(b)
		if b != "" {
			brokers = append(brokers, b)
		}
	}

	return brokers
}

// MustNewClient creates a writer for the configured brokers. kafka-go dials
// lazily, so no connection is made here.
func MustNewClient(cfg config.KafkaConfig) *Client {
	brokers := ParseBrokers(cfg.Brokers)
	if len(brokers) == 0 {
		panic("Kafka brokers are not configured")
	}

	slog.Info("Kafka writer created", "brokers", brokers)

	return &Client{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireOne,
			AllowAutoTopicCreation: true,
		},
	}
}

// Publish writes the message keyed by its event id.
func (c *Client) Publish(ctx context.Context, msg outbox.Message) error {
	err := c.writer.WriteMessages(ctx, kafka.Message{
		Topic: msg.RoutingKey,
		Key:   []byte(msg.EventID.String()),
		Value: msg.Payload,
		Time:  msg.CreatedAt,
		Headers: []kafka.Header{
			{Key: "content-type", Value: []byte(msg.ContentType)},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to publish %s: %w", msg.RoutingKey, err)
	}

	return nil
}

func (c *Client) Close() error {
	return c.writer.Close()
}
