package outbox

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Routing keys of the events the shop emits.
const (
	RoutingKeyOrderCreated       = "shop.order.created"
	RoutingKeyOrderStatusChanged = "shop.order.status_changed"
)

const contentTypeJSON = "application/json"

// Message is an event waiting in the outbox table to be published to the broker.
type Message struct {
	ID           int64
	EventID      uuid.UUID
	ExchangeName string
	RoutingKey   string
	Payload      []byte
	ContentType  string
	RetryCount   int
	MaxRetries   int
	LastError    string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	NextRetryAt  time.Time
}

// OrderCreated is the payload of RoutingKeyOrderCreated.
type OrderCreated struct {
	OrderID   int64     `json:"orderId"`
	BuyerID   int64     `json:"buyerId"`
	Total     int64     `json:"total"`
	Currency  string    `json:"currency"`
	Items     int       `json:"items"`
	CreatedAt time.Time `json:"createdAt"`
}

// OrderStatusChanged is the payload of RoutingKeyOrderStatusChanged.
type OrderStatusChanged struct {
	OrderID   int64     `json:"orderId"`
	Status    string    `json:"status"`
	ChangedAt time.Time `json:"changedAt"`
}

// NewMessage marshals payload into a message that is due immediately.
func NewMessage(routingKey string, payload any, maxRetries int, now time.Time) (Message, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return Message{}, fmt.Errorf("failed to marshal %s payload: %w", routingKey, err)
	}

	return Message{
		EventID:     uuid.New(),
		RoutingKey:  routingKey,
		Payload:     body,
		ContentType: contentTypeJSON,
		MaxRetries:  maxRetries,
		CreatedAt:   now,
		UpdatedAt:   now,
		NextRetryAt: now,
	}, nil
}
