package admin

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/corray333/backend-labs/shop/internal/metrics"
	"github.com/corray333/backend-labs/shop/internal/service/errs"
	"github.com/corray333/backend-labs/shop/internal/service/models/currency"
	"github.com/corray333/backend-labs/shop/internal/service/models/order"
	"github.com/corray333/backend-labs/shop/internal/service/models/orderitem"
	"github.com/corray333/backend-labs/shop/internal/service/models/product"
	"github.com/corray333/backend-labs/shop/internal/service/models/setting"
	"github.com/corray333/backend-labs/shop/internal/service/models/status"
)

type fakeCatalog struct {
	products map[string]product.Product
	upserts  []product.UpsertInput
	err      error
}

func (c *fakeCatalog) ListAll(context.Context) ([]product.Product, error) {
	if c.err != nil {
		return nil, c.err
	}
	out := make([]product.Product, 0, len(c.products))
	for _, sku := range []string{"coffee_1kg", "mug_brand"} {
		if p, ok := c.products[sku]; ok {
			out = append(out, p)
		}
	}

	return out, nil
}

func (c *fakeCatalog) Upsert(_ context.Context, in product.UpsertInput) (product.Product, error) {
	c.upserts = append(c.upserts, in)
	cur := currency.Default
	if in.Currency != "" {
		cur = currency.Currency(in.Currency)
	}
	p := product.Product{SKU: in.SKU, Title: in.Title, Price: in.Price, Currency: cur, IsActive: true}
	c.products[in.SKU] = p

	return p, nil
}

func (c *fakeCatalog) SetPrice(_ context.Context, sku string, price int64) error {
	p, ok := c.products[sku]
	if !ok {
		return errs.ErrNotFound
	}
	if price < 0 {
		return fmt.Errorf("%w: price must not be negative", errs.ErrValidation)
	}
	p.Price = price
	c.products[sku] = p

	return nil
}

func (c *fakeCatalog) SetTitle(_ context.Context, sku, title string) error {
	p, ok := c.products[sku]
	if !ok {
		return errs.ErrNotFound
	}
	p.Title = title
	c.products[sku] = p

	return nil
}

func (c *fakeCatalog) ToggleActive(_ context.Context, sku string) (bool, error) {
	p, ok := c.products[sku]
	if !ok {
		return false, errs.ErrNotFound
	}
	p.IsActive = !p.IsActive
	c.products[sku] = p

	return p.IsActive, nil
}

type fakeOrders struct {
	orders   map[int64]order.Order
	statuses map[int64]status.Status
	ttns     map[int64]string
	deleted  []int64
}

func (o *fakeOrders) ListRecent(context.Context, int) ([]order.Order, error) {
	out := []order.Order{}
	for _, id := range []int64{2, 1} {
		if ord, ok := o.orders[id]; ok {
			out = append(out, ord)
		}
	}

	return out, nil
}

func (o *fakeOrders) GetOrder(_ context.Context, id int64) (order.Order, error) {
	ord, ok := o.orders[id]
	if !ok {
		return order.Order{}, errs.ErrNotFound
	}

	return ord, nil
}

func (o *fakeOrders) SetStatus(_ context.Context, id int64, st status.Status) error {
	if _, ok := o.orders[id]; !ok {
		return errs.ErrNotFound
	}
	o.statuses[id] = st

	return nil
}

func (o *fakeOrders) SetTrackingCode(_ context.Context, id int64, code string) error {
	if _, ok := o.orders[id]; !ok {
		return errs.ErrNotFound
	}
	o.ttns[id] = code

	return nil
}

func (o *fakeOrders) DeleteOrder(_ context.Context, id int64) error {
	if _, ok := o.orders[id]; !ok {
		return errs.ErrNotFound
	}
	o.deleted = append(o.deleted, id)

	return nil
}

type fakeSettings struct {
	values map[string]string
	err    error
}

func (s *fakeSettings) Set(_ context.Context, key, value string) error {
	if s.err != nil {
		return s.err
	}
	s.values[key] = value

	return nil
}

type fixture struct {
	h        *Handler
	catalog  *fakeCatalog
	orders   *fakeOrders
	settings *fakeSettings
	metrics  *metrics.Metrics
}

func newFixture() *fixture {
	catalog := &fakeCatalog{products: map[string]product.Product{
		"coffee_1kg": {SKU: "coffee_1kg", Title: "Coffee beans 1 kg", Price: 1299, Currency: "UAH", IsActive: true},
		"mug_brand":  {SKU: "mug_brand", Title: "Branded mug", Price: 299, Currency: "UAH", IsActive: false},
	}}
	orders := &fakeOrders{
		orders: map[int64]order.Order{
			1: {
				ID:        1,
				Total:     2598,
				Currency:  "UAH",
				Status:    status.New,
				CreatedAt: time.Date(2024, 3, 5, 14, 7, 0, 0, time.UTC),
				Shipping:  order.Shipping{City: "Kyiv", Branch: "12", Receiver: "Ivan", Phone: "+380"},
				OrderItems: []orderitem.OrderItem{
					{ProductTitle: "Coffee beans 1 kg", Price: 1299, Quantity: 2},
				},
			},
		},
		statuses: map[int64]status.Status{},
		ttns:     map[int64]string{},
	}
	settings := &fakeSettings{values: map[string]string{}}
	m := metrics.Discard()

	h := NewHandler(catalog, orders, settings, m)
	h.location = time.UTC

	return &fixture{h: h, catalog: catalog, orders: orders, settings: settings, metrics: m}
}

func TestHandle_IgnoresNonCommands(t *testing.T) {
	f := newFixture()

	require.Empty(t, f.h.Handle(context.Background(), 1, "hello"))
	require.Empty(t, f.h.Handle(context.Background(), 1, "/unknown"))
}

func TestHandle_StartAndHelp(t *testing.T) {
	f := newFixture()

	require.Equal(t, "Admin bot. "+HelpText, f.h.Handle(context.Background(), 1, "/start"))
	require.Equal(t, HelpText, f.h.Handle(context.Background(), 1, "/help@shop_admin_bot"))
	require.Equal(t, 1.0, testutil.ToFloat64(f.metrics.AdminCommands.WithLabelValues("help")))
}

func TestHandle_SetMe(t *testing.T) {
	f := newFixture()

	reply := f.h.Handle(context.Background(), -100500, "/setme")

	require.Equal(t, "OK, this chat is saved for notifications: -100500", reply)
	require.Equal(t, "-100500", f.settings.values[setting.AdminChatID])
}

func TestHandle_SetMeFailure(t *testing.T) {
	f := newFixture()
	f.settings.err = errors.New("connection refused")

	require.Equal(t, replyFailed, f.h.Handle(context.Background(), 7, "/setme"))
}

func TestHandle_Orders(t *testing.T) {
	f := newFixture()

	reply := f.h.Handle(context.Background(), 1, "/orders")

	require.Equal(t, "#1 • 2598 UAH • new • 05.03 14:07\nKyiv / 12\nIvan / +380\n———", reply)
}

func TestHandle_OrdersEmpty(t *testing.T) {
	f := newFixture()
	f.orders.orders = map[int64]order.Order{}

	require.Equal(t, "No orders.", f.h.Handle(context.Background(), 1, "/orders"))
}

func TestHandle_Order(t *testing.T) {
	f := newFixture()

	require.Equal(t, usageOrder, f.h.Handle(context.Background(), 1, "/order"))
	require.Equal(t, usageOrder, f.h.Handle(context.Background(), 1, "/order abc"))
	require.Equal(t, replyNotFound, f.h.Handle(context.Background(), 1, "/order 99"))

	reply := f.h.Handle(context.Background(), 1, "/order 1")
	require.Equal(t, "Order #1 • 2598 UAH • new • 05.03 14:07\n"+
		"• Coffee beans 1 kg × 2 = 2598\n"+
		"City: Kyiv\nBranch: 12\nReceiver: Ivan / +380", reply)
}

func TestHandle_Status(t *testing.T) {
	f := newFixture()

	tests := []struct {
		text  string
		reply string
	}{
		{"/status", usageStatus},
		{"/status 1", usageStatus},
		{"/status x shipped", usageStatus},
		{"/status 99 shipped", replyNotFound},
		{"/status 1 on hold", "Order #1 status → on hold"},
	}

	for _, tt := range tests {
		require.Equal(t, tt.reply, f.h.Handle(context.Background(), 1, tt.text), tt.text)
	}
	require.Equal(t, status.Status("on hold"), f.orders.statuses[1])
}

func TestHandle_TTN(t *testing.T) {
	f := newFixture()

	require.Equal(t, usageTTN, f.h.Handle(context.Background(), 1, "/ttn 1"))
	require.Equal(t, "TTN for order #1 saved.", f.h.Handle(context.Background(), 1, "/ttn 1 20450012345678"))
	require.Equal(t, "20450012345678", f.orders.ttns[1])
}

func TestHandle_DeleteOrder(t *testing.T) {
	f := newFixture()

	require.Equal(t, usageDelete, f.h.Handle(context.Background(), 1, "/delorder"))
	require.Equal(t, replyNotFound, f.h.Handle(context.Background(), 1, "/delorder 5"))
	require.Equal(t, "Order #1 deleted.", f.h.Handle(context.Background(), 1, "/delorder 1"))
	require.Equal(t, []int64{1}, f.orders.deleted)
}

func TestHandle_Products(t *testing.T) {
	f := newFixture()

	reply := f.h.Handle(context.Background(), 1, "/products")

	require.Equal(t, "✅ Coffee beans 1 kg [coffee_1kg] — 1299 UAH\n⛔️ Branded mug [mug_brand] — 299 UAH", reply)
}

func TestHandle_ProductsEmpty(t *testing.T) {
	f := newFixture()
	f.catalog.products = map[string]product.Product{}

	require.Equal(t, "Catalog is empty.", f.h.Handle(context.Background(), 1, "/products"))
}

func TestHandle_AddProduct(t *testing.T) {
	f := newFixture()

	tests := []struct {
		text  string
		reply string
	}{
		{"/addproduct tea", usageAddProduct},
		{"/addproduct tea | Green tea", "At least sku | Title | price is required"},
		{"/addproduct tea | Green tea | cheap", "Price must be a whole number."},
		{"/addproduct tea | Green tea | 150", "Product [tea] saved: Green tea — 150 UAH"},
		{"/addproduct cup | Cup | 90 | EUR | extra", "Product [cup] saved: Cup — 90 EUR"},
	}

	for _, tt := range tests {
		require.Equal(t, tt.reply, f.h.Handle(context.Background(), 1, tt.text), tt.text)
	}
	require.Len(t, f.catalog.upserts, 2)
}

func TestHandle_SetPrice(t *testing.T) {
	f := newFixture()

	require.Equal(t, usageSetPrice, f.h.Handle(context.Background(), 1, "/setprice mug_brand"))
	require.Equal(t, usageSetPrice, f.h.Handle(context.Background(), 1, "/setprice mug_brand lots"))
	require.Equal(t, replyNotFound, f.h.Handle(context.Background(), 1, "/setprice nope 10"))
	require.Equal(t, "Invalid input: price must not be negative",
		f.h.Handle(context.Background(), 1, "/setprice mug_brand -1"))
	require.Equal(t, "Price mug_brand → 349", f.h.Handle(context.Background(), 1, "/setprice mug_brand 349"))
	require.Equal(t, int64(349), f.catalog.products["mug_brand"].Price)
}

func TestHandle_SetTitle(t *testing.T) {
	f := newFixture()

	require.Equal(t, usageSetTitle, f.h.Handle(context.Background(), 1, "/settitle mug_brand Big mug"))
	require.Equal(t, "Title mug_brand → Mug | large",
		f.h.Handle(context.Background(), 1, "/settitle mug_brand | Mug | large"))
	require.Equal(t, "Mug | large", f.catalog.products["mug_brand"].Title)
}

func TestHandle_Toggle(t *testing.T) {
	f := newFixture()

	require.Equal(t, usageToggle, f.h.Handle(context.Background(), 1, "/toggle"))
	require.Equal(t, "SKU not found.", f.h.Handle(context.Background(), 1, "/toggle nope"))
	require.Equal(t, "Enabled product mug_brand", f.h.Handle(context.Background(), 1, "/toggle mug_brand"))
	require.Equal(t, "Disabled product mug_brand", f.h.Handle(context.Background(), 1, "/toggle mug_brand"))
}

func TestHandle_CatalogFailure(t *testing.T) {
	f := newFixture()
	f.catalog.err = errors.New("timeout")

	require.Equal(t, replyFailed, f.h.Handle(context.Background(), 1, "/products"))
}
