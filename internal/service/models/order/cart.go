package order

// CartLine is one requested (sku, qty) pair of a cart submission.
type CartLine struct {
	SKU string `json:"sku"`
	Qty int    `json:"qty"`
}

// Cart is a buyer's checkout submission after transport decoding.
type Cart struct {
	Buyer    Buyer
	Items    []CartLine
	Shipping Shipping
}
