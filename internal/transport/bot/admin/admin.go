// Package admin implements the operator bot commands over the catalog, order
// and settings services. Every handler returns the reply text.
package admin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/corray333/backend-labs/shop/internal/metrics"
	"github.com/corray333/backend-labs/shop/internal/service/errs"
	"github.com/corray333/backend-labs/shop/internal/service/models/order"
	"github.com/corray333/backend-labs/shop/internal/service/models/product"
	"github.com/corray333/backend-labs/shop/internal/service/models/setting"
	"github.com/corray333/backend-labs/shop/internal/service/models/status"
	"github.com/corray333/backend-labs/shop/internal/transport/bot/command"
)

const HelpText = "Admin bot commands:\n" +
	"/setme - use this chat for order notifications\n" +
	"/orders - last 10 orders\n" +
	"/order <id> - order details\n" +
	"/status <id> <new|paid|packed|shipped|done|cancelled> - change status\n" +
	"/ttn <id> <number> - save the Nova Poshta tracking number\n" +
	"/delorder <id> - delete an order\n" +
	"/products - product list\n" +
	"/addproduct <sku> | <Title> | <price> [| UAH] - add or update a product\n" +
	"/setprice <sku> <price> - update the price\n" +
	"/settitle <sku> | <New title> - update the title\n" +
	"/toggle <sku> - enable or disable a product"

const (
	usageOrder      = "Usage: /order <id>"
	usageStatus     = "Usage: /status <id> <new|paid|packed|shipped|done|cancelled>"
	usageTTN        = "Usage: /ttn <id> <number>"
	usageDelete     = "Usage: /delorder <id>"
	usageAddProduct = "Usage: /addproduct <sku> | <Title> | <price> [| Currency]"
	usageSetPrice   = "Usage: /setprice <sku> <price>"
	usageSetTitle   = "Usage: /settitle <sku> | <New title>"
	usageToggle     = "Usage: /toggle <sku>"

	replyNotFound = "Not found."
	replyFailed   = "Something went wrong, try again later."
)

type catalogService interface {
	ListAll(ctx context.Context) ([]product.Product, error)
	Upsert(ctx context.Context, in product.UpsertInput) (product.Product, error)
	SetPrice(ctx context.Context, sku string, price int64) error
	SetTitle(ctx context.Context, sku, title string) error
	ToggleActive(ctx context.Context, sku string) (bool, error)
}

type orderService interface {
	ListRecent(ctx context.Context, limit int) ([]order.Order, error)
	GetOrder(ctx context.Context, id int64) (order.Order, error)
	SetStatus(ctx context.Context, id int64, st status.Status) error
	SetTrackingCode(ctx context.Context, id int64, code string) error
	DeleteOrder(ctx context.Context, id int64) error
}

type settingsService interface {
	Set(ctx context.Context, key, value string) error
}

type Handler struct {
	catalog  catalogService
	orders   orderService
	settings settingsService
	metrics  *metrics.Metrics
	location *time.Location
}

func NewHandler(catalog catalogService, orders orderService, settings settingsService, m *metrics.Metrics) *Handler {
	if m == nil {
		m = metrics.Discard()
	}

	return &Handler{
		catalog:  catalog,
		orders:   orders,
		settings: settings,
		metrics:  m,
		location: time.Local,
	}
}

// Handle runs the command in text for the chat and returns the reply.
// An empty reply means the message is ignored.
func (h *Handler) Handle(ctx context.Context, chatID int64, text string) string {
	cmd, ok := command.Parse(text)
	if !ok {
		return ""
	}

	var reply string
	switch cmd.Name {
	case "start":
		reply = "Admin bot. " + HelpText
	case "help":
		reply = HelpText
	case "setme":
		reply = h.setMe(ctx, chatID)
	case "orders":
		reply = h.listOrders(ctx)
	case "order":
		reply = h.showOrder(ctx, cmd.Args)
	case "status":
		reply = h.setStatus(ctx, cmd.Args)
	case "ttn":
		reply = h.setTTN(ctx, cmd.Args)
	case "delorder":
		reply = h.deleteOrder(ctx, cmd.Args)
	case "products":
		reply = h.listProducts(ctx)
	case "addproduct":
		reply = h.addProduct(ctx, cmd.Args)
	case "setprice":
		reply = h.setPrice(ctx, cmd.Args)
	case "settitle":
		reply = h.setTitle(ctx, cmd.Args)
	case "toggle":
		reply = h.toggle(ctx, cmd.Args)
	default:
		return ""
	}

	h.metrics.AdminCommands.WithLabelValues(cmd.Name).Inc()

	return reply
}

func (h *Handler) setMe(ctx context.Context, chatID int64) string {
	if err := h.settings.Set(ctx, setting.AdminChatID, strconv.FormatInt(chatID, 10)); err != nil {
		return h.failure("setme", err)
	}

	return fmt.Sprintf("OK, this chat is saved for notifications: %d", chatID)
}

func (h *Handler) listOrders(ctx context.Context) string {
	orders, err := h.orders.ListRecent(ctx, 0)
	if err != nil {
		return h.failure("orders", err)
	}
	if len(orders) == 0 {
		return "No orders."
	}

	lines := make([]string, 0, len(orders))
	for _, o := range orders {
		lines = append(lines, fmt.Sprintf("#%d • %d %s • %s • %s\n%s / %s\n%s / %s\n———",
			o.ID, o.Total, o.Currency, o.Status, h.stamp(o.CreatedAt),
			o.Shipping.City, o.Shipping.Branch,
			o.Shipping.Receiver, o.Shipping.Phone,
		))
	}

	return strings.Join(lines, "\n")
}

func (h *Handler) showOrder(ctx context.Context, args string) string {
	if args == "" {
		return usageOrder
	}
	id, err := parseID(args)
	if err != nil {
		return usageOrder
	}

	o, err := h.orders.GetOrder(ctx, id)
	if err != nil {
		return h.failure("order", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Order #%d • %d %s • %s • %s\n", o.ID, o.Total, o.Currency, o.Status, h.stamp(o.CreatedAt))
	for _, it := range o.OrderItems {
		fmt.Fprintf(&b, "• %s × %d = %d\n", it.ProductTitle, it.Quantity, it.LineTotal())
	}
	fmt.Fprintf(&b, "City: %s\nBranch: %s\nReceiver: %s / %s",
		o.Shipping.City, o.Shipping.Branch, o.Shipping.Receiver, o.Shipping.Phone)
	if o.TrackingCode != "" {
		fmt.Fprintf(&b, "\nTTN: %s", o.TrackingCode)
	}

	return b.String()
}

func (h *Handler) setStatus(ctx context.Context, args string) string {
	rawID, rawStatus, ok := command.SplitTwo(args)
	if !ok {
		return usageStatus
	}
	id, err := parseID(rawID)
	if err != nil {
		return usageStatus
	}
	st, err := status.Parse(rawStatus)
	if err != nil {
		return usageStatus
	}

	if err := h.orders.SetStatus(ctx, id, st); err != nil {
		return h.failure("status", err)
	}

	return fmt.Sprintf("Order #%d status → %s", id, st)
}

func (h *Handler) setTTN(ctx context.Context, args string) string {
	rawID, code, ok := command.SplitTwo(args)
	if !ok {
		return usageTTN
	}
	id, err := parseID(rawID)
	if err != nil {
		return usageTTN
	}

	if err := h.orders.SetTrackingCode(ctx, id, code); err != nil {
		return h.failure("ttn", err)
	}

	return fmt.Sprintf("TTN for order #%d saved.", id)
}

func (h *Handler) deleteOrder(ctx context.Context, args string) string {
	id, err := parseID(args)
	if err != nil {
		return usageDelete
	}

	if err := h.orders.DeleteOrder(ctx, id); err != nil {
		return h.failure("delorder", err)
	}

	return fmt.Sprintf("Order #%d deleted.", id)
}

func (h *Handler) listProducts(ctx context.Context) string {
	products, err := h.catalog.ListAll(ctx)
	if err != nil {
		return h.failure("products", err)
	}
	if len(products) == 0 {
		return "Catalog is empty."
	}

	lines := make([]string, 0, len(products))
	for _, p := range products {
		mark := "⛔️"
		if p.IsActive {
			mark = "✅"
		}
		lines = append(lines, fmt.Sprintf("%s %s [%s] — %d %s", mark, p.Title, p.SKU, p.Price, p.Currency))
	}

	return strings.Join(lines, "\n")
}

// addProduct splits on every "|". Fields after the fourth are ignored, so a
// title cannot contain "|".
func (h *Handler) addProduct(ctx context.Context, args string) string {
	if !strings.Contains(args, "|") {
		return usageAddProduct
	}
	parts := strings.Split(args, "|")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	if len(parts) < 3 {
		return "At least sku | Title | price is required"
	}

	price, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return "Price must be a whole number."
	}
	in := product.UpsertInput{SKU: parts[0], Title: parts[1], Price: price}
	if len(parts) >= 4 {
		in.Currency = parts[3]
	}

	p, err := h.catalog.Upsert(ctx, in)
	if err != nil {
		return h.failure("addproduct", err)
	}

	return fmt.Sprintf("Product [%s] saved: %s — %d %s", p.SKU, p.Title, p.Price, p.Currency)
}

func (h *Handler) setPrice(ctx context.Context, args string) string {
	sku, rawPrice, ok := command.SplitTwo(args)
	if !ok {
		return usageSetPrice
	}
	price, err := strconv.ParseInt(rawPrice, 10, 64)
	if err != nil {
		return usageSetPrice
	}

	if err := h.catalog.SetPrice(ctx, sku, price); err != nil {
		return h.failure("setprice", err)
	}

	return fmt.Sprintf("Price %s → %d", sku, price)
}

// setTitle splits on the first "|" only, so the title may contain "|".
func (h *Handler) setTitle(ctx context.Context, args string) string {
	sku, title, ok := strings.Cut(args, "|")
	if !ok {
		return usageSetTitle
	}
	sku, title = strings.TrimSpace(sku), strings.TrimSpace(title)

	if err := h.catalog.SetTitle(ctx, sku, title); err != nil {
		return h.failure("settitle", err)
	}

	return fmt.Sprintf("Title %s → %s", sku, title)
}

func (h *Handler) toggle(ctx context.Context, args string) string {
	sku := strings.TrimSpace(args)
	if sku == "" {
		return usageToggle
	}

	active, err := h.catalog.ToggleActive(ctx, sku)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return "SKU not found."
		}

		return h.failure("toggle", err)
	}

	if active {
		return "Enabled product " + sku
	}

	return "Disabled product " + sku
}

// failure maps a service error to the operator reply.
func (h *Handler) failure(cmd string, err error) string {
	switch {
	case errors.Is(err, errs.ErrNotFound):
		return replyNotFound
	case errors.Is(err, errs.ErrValidation):
		return "Invalid input: " + strings.TrimPrefix(err.Error(), errs.ErrValidation.Error()+": ")
	default:
		slog.Error("Admin command failed", "command", cmd, "error", err)

		return replyFailed
	}
}

func (h *Handler) stamp(t time.Time) string {
	return t.In(h.location).Format("02.01 15:04")
}

func parseID(s string) (int64, error) {
	return strconv.ParseInt(strings.TrimSpace(s), 10, 64)
}
