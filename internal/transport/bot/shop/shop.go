// Package shop implements the customer bot: storefront entry commands and
// checkout of web-app carts.
package shop

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/corray333/backend-labs/shop/internal/service/errs"
	"github.com/corray333/backend-labs/shop/internal/service/models/order"
	"github.com/corray333/backend-labs/shop/internal/service/services/notifysvc"
	"github.com/corray333/backend-labs/shop/internal/transport/bot/command"
)

const (
	ReplyPayload   = "Could not read the storefront data."
	ReplyEmptyCart = "Your cart is empty or the items are unavailable."
	ReplyFailed    = "Could not save the order, please try again later."
	ReplyTooLarge  = "The order is too large, please reduce the quantities."
)

// Button is an inline keyboard button. Exactly one of WebAppURL and URL is set.
type Button struct {
	Text      string
	WebAppURL string
	URL       string
}

// Reply is a message for the buyer; Buttons are laid out one per row.
type Reply struct {
	Text    string
	Buttons []Button
}

type orderService interface {
	SubmitCart(ctx context.Context, cart order.Cart) (order.Order, error)
}

type notifier interface {
	Notify(ctx context.Context, text string) notifysvc.Outcome
}

type Handler struct {
	orders    orderService
	notifier  notifier
	webAppURL string
	validate  *validator.Validate
}

func NewHandler(orders orderService, n notifier, webAppURL string) *Handler {
	return &Handler{
		orders:    orders,
		notifier:  n,
		webAppURL: strings.TrimSpace(webAppURL),
		validate:  validator.New(validator.WithRequiredStructEnabled()),
	}
}

// WebAppURL is the storefront address, empty when not configured.
func (h *Handler) WebAppURL() string {
	return h.webAppURL
}

// HandleCommand answers /start, /webapp and /debug. ok is false for anything else.
func (h *Handler) HandleCommand(text string) (Reply, bool) {
	cmd, ok := command.Parse(text)
	if !ok {
		return Reply{}, false
	}

	switch cmd.Name {
	case "start":
		if h.webAppURL == "" {
			return Reply{Text: "The storefront is temporarily unavailable. Set WEBAPP_URL."}, true
		}

		return Reply{
			Text:    "Welcome! Tap the button to open the storefront:",
			Buttons: []Button{{Text: "🛍 Open storefront", WebAppURL: h.webAppURL}},
		}, true
	case "webapp":
		if h.webAppURL == "" {
			return Reply{Text: "WEBAPP_URL is empty. Add the link to the configuration."}, true
		}

		return Reply{
			Text: "Open the storefront:",
			Buttons: []Button{
				{Text: "🛍 Open storefront (inside Telegram)", WebAppURL: h.webAppURL},
				{Text: "🌐 Open in browser", URL: h.webAppURL},
			},
		}, true
	case "debug":
		return Reply{Text: "WEBAPP_URL is now: " + h.webAppURL}, true
	default:
		return Reply{}, false
	}
}

// Checkout submits the web-app cart and returns the buyer reply. The created
// order is returned for Announce; it is nil when nothing was stored.
func (h *Handler) Checkout(ctx context.Context, buyer order.Buyer, data string) (Reply, *order.Order) {
	if buyer.Username != "" && !strings.HasPrefix(buyer.Username, "@") {
		buyer.Username = "@" + buyer.Username
	}

	cart, err := DecodeCheckout(data, buyer, h.validate)
	if err != nil {
		slog.Info("Rejected checkout payload", "user_id", buyer.UserID, "error", err)

		return Reply{Text: ReplyPayload}, nil
	}

	o, err := h.orders.SubmitCart(ctx, cart)
	switch {
	case errors.Is(err, errs.ErrEmptyCart):
		return Reply{Text: ReplyEmptyCart}, nil
	case errors.Is(err, errs.ErrValidation):
		slog.Info("Rejected cart", "user_id", buyer.UserID, "error", err)

		return Reply{Text: ReplyTooLarge}, nil
	case err != nil:
		slog.Error("Failed to submit cart", "user_id", buyer.UserID, "error", err)

		return Reply{Text: ReplyFailed}, nil
	}

	return Reply{Text: fmt.Sprintf("✅ Order #%d created! We will contact you about Nova Poshta delivery.", o.ID)}, &o
}

// Announce sends the new-order notification to the operator.
func (h *Handler) Announce(ctx context.Context, o order.Order) notifysvc.Outcome {
	return h.notifier.Notify(ctx, FormatNewOrder(o))
}

// FormatNewOrder renders the operator notification for a created order.
func FormatNewOrder(o order.Order) string {
	username := o.Buyer.Username
	if username == "" {
		username = "—"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🆕 New order #%d\n", o.ID)
	fmt.Fprintf(&b, "Buyer: %s (%s)\n", o.Buyer.Name, username)
	fmt.Fprintf(&b, "ID: %d\n", o.Buyer.UserID)
	for _, it := range o.OrderItems {
		fmt.Fprintf(&b, "• %s × %d = %d %s\n", it.ProductTitle, it.Quantity, it.LineTotal(), o.Currency)
	}
	fmt.Fprintf(&b, "Total: %d %s\n", o.Total, o.Currency)
	fmt.Fprintf(&b, "City: %s\nBranch: %s\n", o.Shipping.City, o.Shipping.Branch)
	fmt.Fprintf(&b, "Receiver: %s / %s", o.Shipping.Receiver, o.Shipping.Phone)

	return b.String()
}
