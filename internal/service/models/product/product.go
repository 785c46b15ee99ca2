package product

import "github.com/corray333/backend-labs/shop/internal/service/models/currency"

// Product is a catalog row keyed by SKU. Products are never hard-deleted.
type Product struct {
	SKU      string            `json:"sku"`
	Title    string            `json:"title"`
	Price    int64             `json:"price"`
	Currency currency.Currency `json:"currency"`
	IsActive bool              `json:"isActive"`
}

// UpsertInput is the payload of a catalog upsert. A SKU cannot contain
// spaces: /setprice and /toggle take it as a single word.
type UpsertInput struct {
	SKU      string `validate:"required,excludesall= "`
	Title    string `validate:"required"`
	Price    int64  `validate:"gte=0"`
	Currency string
}
