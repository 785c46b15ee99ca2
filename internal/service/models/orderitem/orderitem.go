package orderitem

import "math"

// OrderItem is a line of an order. SKU, title and price are copied from the
// catalog at order time and are never re-joined to live catalog rows.
type OrderItem struct {
	ID           int64  `json:"id"`
	OrderID      int64  `json:"orderId"`
	ProductSKU   string `json:"productSku"`
	ProductTitle string `json:"productTitle"`
	Price        int64  `json:"price"`
	Quantity     int    `json:"quantity"`
}

// LineTotal returns price x quantity.
func (i OrderItem) LineTotal() int64 {
	return i.Price * int64(i.Quantity)
}

// CheckedLineTotal is LineTotal that reports false instead of overflowing int64.
func (i OrderItem) CheckedLineTotal() (int64, bool) {
	if i.Price < 0 || i.Quantity < 0 {
		return 0, false
	}
	if i.Quantity > 0 && i.Price > math.MaxInt64/int64(i.Quantity) {
		return 0, false
	}

	return i.LineTotal(), true
}
