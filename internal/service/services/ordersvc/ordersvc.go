package ordersvc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/corray333/backend-labs/shop/internal/config"
	"github.com/corray333/backend-labs/shop/internal/dal/interfaces/iorderitemrepo"
	"github.com/corray333/backend-labs/shop/internal/dal/interfaces/iorderrepo"
	"github.com/corray333/backend-labs/shop/internal/dal/interfaces/ioutboxrepo"
	"github.com/corray333/backend-labs/shop/internal/dal/interfaces/iproductrepo"
	"github.com/corray333/backend-labs/shop/internal/dal/postgres"
	"github.com/corray333/backend-labs/shop/internal/dal/uow"
	"github.com/corray333/backend-labs/shop/internal/metrics"
	"github.com/corray333/backend-labs/shop/internal/service/errs"
	"github.com/corray333/backend-labs/shop/internal/service/models/currency"
	"github.com/corray333/backend-labs/shop/internal/service/models/order"
	"github.com/corray333/backend-labs/shop/internal/service/models/orderitem"
	"github.com/corray333/backend-labs/shop/internal/service/models/outbox"
	"github.com/corray333/backend-labs/shop/internal/service/models/status"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// DefaultRecentLimit is used by ListRecent when no positive limit is given.
const DefaultRecentLimit = 10

// OrderService is a service for managing orders.
type OrderService struct {
	newUOW       func() unitOfWork
	queryTimeout time.Duration
	txTimeout    time.Duration

	eventsEnabled bool
	exchange      string
	maxRetries    int

	metrics *metrics.Metrics
	now     func() time.Time
}

type unitOfWork interface {
	Begin(ctx context.Context) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error

	ProductRepository() iproductrepo.IProductRepository
	OrderRepository() iorderrepo.IOrderRepository
	OrderItemRepository() iorderitemrepo.IOrderItemRepository
	OutboxRepository() ioutboxrepo.IOutboxRepository
}

// option is a function that configures the OrderService.
type option func(*OrderService)

// MustNewOrderService creates a new OrderService.
func MustNewOrderService(opts ...option) *OrderService {
	s := &OrderService{
		queryTimeout: 2 * time.Second,
		txTimeout:    5 * time.Second,
		maxRetries:   5,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.newUOW == nil {
		panic("ordersvc: database is not configured")
	}
	if s.metrics == nil {
		s.metrics = metrics.Discard()
	}

	return s
}

// WithDB sets the connection pool the OrderService works on.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithDB(db postgres.TxBeginner) option {
	return func(s *OrderService) {
		s.newUOW = func() unitOfWork {
			return uow.NewUnitOfWork(db)
		}
	}
}

// WithTimeouts bounds single queries and whole transactions.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithTimeouts(cfg config.PostgresConfig) option {
	return func(s *OrderService) {
		if cfg.QueryTimeout > 0 {
			s.queryTimeout = cfg.QueryTimeout
		}
		if cfg.TxTimeout > 0 {
			s.txTimeout = cfg.TxTimeout
		}
	}
}

// WithEvents makes order mutations write outbox messages.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithEvents(cfg config.EventsConfig) option {
	return func(s *OrderService) {
		s.eventsEnabled = cfg.Enabled()
		s.exchange = cfg.RabbitMQ.Exchange
		if cfg.Outbox.MaxRetries > 0 {
			s.maxRetries = cfg.Outbox.MaxRetries
		}
	}
}

// WithMetrics sets the counters the OrderService reports to.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithMetrics(m *metrics.Metrics) option {
	return func(s *OrderService) {
		s.metrics = m
	}
}

// SubmitCart turns a cart into an order. Lines with qty <= 0 or an unknown or
// inactive sku are dropped; the rest are priced from the catalog. The header
// and items are written in one transaction.
func (s *OrderService) SubmitCart(ctx context.Context, cart order.Cart) (o order.Order, err error) {
	ctx, span := otel.Tracer("service").Start(ctx, "OrderService.SubmitCart")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("buyer.id", cart.Buyer.UserID),
		attribute.Int("cart.lines", len(cart.Items)),
	)

	ctx, cancel := context.WithTimeout(ctx, s.txTimeout)
	defer cancel()

	work := s.newUOW()
	if err := work.Begin(ctx); err != nil {
		s.metrics.CartRejections.WithLabelValues("persistence").Inc()
		span.SetStatus(codes.Error, err.Error())

		return order.Order{}, fmt.Errorf("%w: %w", errs.ErrOrderPersistence, err)
	}
	defer func() {
		if err == nil {
			return
		}
		if rbErr := work.Rollback(context.WithoutCancel(ctx)); rbErr != nil {
			slog.Error("Failed to rollback order transaction", "error", rbErr)
		}
		span.SetStatus(codes.Error, err.Error())
		switch {
		case errors.Is(err, errs.ErrEmptyCart):
			s.metrics.CartRejections.WithLabelValues("empty").Inc()
		case errors.Is(err, errs.ErrValidation):
			s.metrics.CartRejections.WithLabelValues("invalid").Inc()
		default:
			s.metrics.CartRejections.WithLabelValues("persistence").Inc()
		}
	}()

	items, total, cur, err := s.priceLines(ctx, work.ProductRepository(), cart.Items)
	if errors.Is(err, errs.ErrValidation) {
		return order.Order{}, err
	}
	if err != nil {
		return order.Order{}, fmt.Errorf("%w: %w", errs.ErrOrderPersistence, err)
	}
	if len(items) == 0 {
		return order.Order{}, errs.ErrEmptyCart
	}

	o = order.Order{
		Buyer:     cart.Buyer,
		Total:     total,
		Currency:  cur,
		Shipping:  cart.Shipping,
		Status:    status.New,
		CreatedAt: s.now().UTC().Truncate(time.Second),
	}

	o.ID, err = work.OrderRepository().Insert(ctx, o)
	if err != nil {
		return order.Order{}, fmt.Errorf("%w: %w", errs.ErrOrderPersistence, err)
	}

	for i := range items {
		items[i].OrderID = o.ID
	}
	o.OrderItems, err = work.OrderItemRepository().BulkInsert(ctx, items)
	if err != nil {
		return order.Order{}, fmt.Errorf("%w: %w", errs.ErrOrderPersistence, err)
	}

	if s.eventsEnabled {
		err = s.enqueue(ctx, work, outbox.RoutingKeyOrderCreated, outbox.OrderCreated{
			OrderID:   o.ID,
			BuyerID:   o.Buyer.UserID,
			Total:     o.Total,
			Currency:  o.Currency.String(),
			Items:     len(o.OrderItems),
			CreatedAt: o.CreatedAt,
		})
		if err != nil {
			return order.Order{}, fmt.Errorf("%w: %w", errs.ErrOrderPersistence, err)
		}
	}

	if err = work.Commit(ctx); err != nil {
		return order.Order{}, fmt.Errorf("%w: %w", errs.ErrOrderPersistence, err)
	}

	s.metrics.OrdersCreated.Inc()
	slog.Info("Order created",
		"order_id", o.ID,
		"buyer_id", o.Buyer.UserID,
		"items", len(o.OrderItems),
		"total", o.Total,
		"currency", o.Currency)

	return o, nil
}

// priceLines resolves cart lines against the active catalog.
// The order currency is the currency of the last priced line.
func (s *OrderService) priceLines(
	ctx context.Context,
	products iproductrepo.IProductRepository,
	lines []order.CartLine,
) ([]orderitem.OrderItem, int64, currency.Currency, error) {
	items := make([]orderitem.OrderItem, 0, len(lines))
	cur := currency.Default
	var total int64

	for _, line := range lines {
		sku := strings.TrimSpace(line.SKU)
		if line.Qty <= 0 || sku == "" {
			continue
		}

		p, err := products.GetActive(ctx, sku)
		if errors.Is(err, errs.ErrNotFound) {
			slog.Debug("Dropping unavailable cart line", "sku", sku)

			continue
		}
		if err != nil {
			return nil, 0, "", err
		}

		item := orderitem.OrderItem{
			ProductSKU:   p.SKU,
			ProductTitle: p.Title,
			Price:        p.Price,
			Quantity:     line.Qty,
		}
		line, ok := item.CheckedLineTotal()
		if !ok || total > math.MaxInt64-line {
			return nil, 0, "", fmt.Errorf("%w: order total is too large", errs.ErrValidation)
		}
		items = append(items, item)
		total += line
		cur = p.Currency
	}

	return items, total, cur, nil
}

func (s *OrderService) enqueue(ctx context.Context, work unitOfWork, routingKey string, payload any) error {
	msg, err := outbox.NewMessage(routingKey, payload, s.maxRetries, s.now())
	if err != nil {
		return err
	}
	msg.ExchangeName = s.exchange

	return work.OutboxRepository().Insert(ctx, msg)
}

// ListRecent returns the newest order headers, items are not loaded.
func (s *OrderService) ListRecent(ctx context.Context, limit int) ([]order.Order, error) {
	ctx, span := otel.Tracer("service").Start(ctx, "OrderService.ListRecent")
	defer span.End()

	if limit <= 0 {
		limit = DefaultRecentLimit
	}

	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	return s.newUOW().OrderRepository().Query(ctx, &order.QueryOrdersModel{Limit: limit})
}

// GetOrder returns the order header with its items.
func (s *OrderService) GetOrder(ctx context.Context, id int64) (order.Order, error) {
	ctx, span := otel.Tracer("service").Start(ctx, "OrderService.GetOrder")
	defer span.End()
	span.SetAttributes(attribute.Int64("order.id", id))

	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	work := s.newUOW()

	orders, err := work.OrderRepository().Query(ctx, &order.QueryOrdersModel{Ids: []int64{id}})
	if err != nil {
		return order.Order{}, err
	}
	if len(orders) == 0 {
		return order.Order{}, fmt.Errorf("%w: order #%d", errs.ErrNotFound, id)
	}

	items, err := work.OrderItemRepository().Query(ctx, &orderitem.QueryOrderItemsModel{OrderIds: []int64{id}})
	if err != nil {
		return order.Order{}, err
	}

	o := orders[0]
	o.OrderItems = items

	return o, nil
}

// SetStatus overwrites the status. Any non-empty label is accepted.
func (s *OrderService) SetStatus(ctx context.Context, id int64, st status.Status) (err error) {
	ctx, span := otel.Tracer("service").Start(ctx, "OrderService.SetStatus")
	defer span.End()
	span.SetAttributes(attribute.Int64("order.id", id), attribute.String("order.status", st.String()))

	st, err = status.Parse(st.String())
	if err != nil {
		return fmt.Errorf("%w: %w", errs.ErrValidation, err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.txTimeout)
	defer cancel()

	work := s.newUOW()
	if err := work.Begin(ctx); err != nil {
		return err
	}
	defer func() {
		if err == nil {
			return
		}
		if rbErr := work.Rollback(context.WithoutCancel(ctx)); rbErr != nil {
			slog.Error("Failed to rollback status transaction", "error", rbErr)
		}
	}()

	if err = work.OrderRepository().UpdateStatus(ctx, id, st); err != nil {
		return err
	}

	if s.eventsEnabled {
		err = s.enqueue(ctx, work, outbox.RoutingKeyOrderStatusChanged, outbox.OrderStatusChanged{
			OrderID:   id,
			Status:    st.String(),
			ChangedAt: s.now().UTC(),
		})
		if err != nil {
			return err
		}
	}

	if err = work.Commit(ctx); err != nil {
		return err
	}

	slog.Info("Order status changed", "order_id", id, "status", st)

	return nil
}

// SetTrackingCode overwrites the shipment tracking code.
func (s *OrderService) SetTrackingCode(ctx context.Context, id int64, code string) error {
	ctx, span := otel.Tracer("service").Start(ctx, "OrderService.SetTrackingCode")
	defer span.End()

	code = strings.TrimSpace(code)
	if code == "" {
		return fmt.Errorf("%w: empty tracking code", errs.ErrValidation)
	}

	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	if err := s.newUOW().OrderRepository().UpdateTrackingCode(ctx, id, code); err != nil {
		return err
	}

	slog.Info("Order tracking code set", "order_id", id, "ttn", code)

	return nil
}

// DeleteOrder removes the order together with its items.
func (s *OrderService) DeleteOrder(ctx context.Context, id int64) error {
	ctx, span := otel.Tracer("service").Start(ctx, "OrderService.DeleteOrder")
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	if err := s.newUOW().OrderRepository().Delete(ctx, id); err != nil {
		return err
	}

	slog.Info("Order deleted", "order_id", id)

	return nil
}
