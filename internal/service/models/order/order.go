package order

import (
	"time"

	"github.com/corray333/backend-labs/shop/internal/service/models/currency"
	"github.com/corray333/backend-labs/shop/internal/service/models/orderitem"
	"github.com/corray333/backend-labs/shop/internal/service/models/status"
)

// Buyer identifies the chat-platform user who placed an order.
type Buyer struct {
	UserID   int64  `json:"userId"`
	Username string `json:"username,omitempty"`
	Name     string `json:"name"`
}

// Shipping holds free-text delivery fields. They are stored as received.
type Shipping struct {
	City     string `json:"city"`
	Branch   string `json:"branch"`
	Receiver string `json:"receiver"`
	Phone    string `json:"phone"`
}

// Order is the order aggregate: the header plus its snapshot items.
// Total is computed once at creation and never recomputed.
type Order struct {
	ID           int64                 `json:"id"`
	Buyer        Buyer                 `json:"buyer"`
	Total        int64                 `json:"total"`
	Currency     currency.Currency     `json:"currency"`
	Shipping     Shipping              `json:"shipping"`
	Status       status.Status         `json:"status"`
	TrackingCode string                `json:"trackingCode,omitempty"`
	CreatedAt    time.Time             `json:"createdAt"`
	OrderItems   []orderitem.OrderItem `json:"orderItems,omitempty"`
}
