package iproductrepo

import (
	"context"

	"github.com/corray333/backend-labs/shop/internal/service/models/product"
)

// IProductRepository is an interface for product postgres repository.
type IProductRepository interface {
	Query(ctx context.Context, filter *product.QueryProductsModel) ([]product.Product, error)
	GetActive(ctx context.Context, sku string) (product.Product, error)
	Upsert(ctx context.Context, p product.Product) error
	UpdatePrice(ctx context.Context, sku string, price int64) error
	UpdateTitle(ctx context.Context, sku, title string) error
	ToggleActive(ctx context.Context, sku string) (bool, error)
}
