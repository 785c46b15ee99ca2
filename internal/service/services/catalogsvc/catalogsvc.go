package catalogsvc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/corray333/backend-labs/shop/internal/config"
	"github.com/corray333/backend-labs/shop/internal/dal/interfaces/iproductrepo"
	"github.com/corray333/backend-labs/shop/internal/service/errs"
	"github.com/corray333/backend-labs/shop/internal/service/models/currency"
	"github.com/corray333/backend-labs/shop/internal/service/models/product"
	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
)

// CatalogService manages the product catalog.
type CatalogService struct {
	productRepo  iproductrepo.IProductRepository
	validate     *validator.Validate
	queryTimeout time.Duration
}

// option is a function that configures the CatalogService.
type option func(*CatalogService)

// MustNewCatalogService creates a new CatalogService.
func MustNewCatalogService(opts ...option) *CatalogService {
	s := &CatalogService{
		validate:     validator.New(validator.WithRequiredStructEnabled()),
		queryTimeout: 2 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.productRepo == nil {
		panic("catalogsvc: product repository is not configured")
	}

	return s
}

// WithProductRepository sets the product repository for the CatalogService.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithProductRepository(repo iproductrepo.IProductRepository) option {
	return func(s *CatalogService) {
		s.productRepo = repo
	}
}

// WithTimeouts bounds every catalog query.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithTimeouts(cfg config.PostgresConfig) option {
	return func(s *CatalogService) {
		if cfg.QueryTimeout > 0 {
			s.queryTimeout = cfg.QueryTimeout
		}
	}
}

// ListActive returns the products offered to buyers, sorted by title.
func (s *CatalogService) ListActive(ctx context.Context) ([]product.Product, error) {
	ctx, span := otel.Tracer("service").Start(ctx, "CatalogService.ListActive")
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	return s.productRepo.Query(ctx, &product.QueryProductsModel{OnlyActive: true})
}

// ListAll returns every product including inactive ones, sorted by title.
func (s *CatalogService) ListAll(ctx context.Context) ([]product.Product, error) {
	ctx, span := otel.Tracer("service").Start(ctx, "CatalogService.ListAll")
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	return s.productRepo.Query(ctx, nil)
}

// Upsert creates the product or overwrites title, price and currency of an
// existing one. The product is active afterwards. An empty currency means UAH.
func (s *CatalogService) Upsert(ctx context.Context, in product.UpsertInput) (product.Product, error) {
	ctx, span := otel.Tracer("service").Start(ctx, "CatalogService.Upsert")
	defer span.End()

	in.SKU = strings.TrimSpace(in.SKU)
	in.Title = strings.TrimSpace(in.Title)
	if err := s.validate.Struct(in); err != nil {
		return product.Product{}, fmt.Errorf("%w: %s", errs.ErrValidation, describe(err))
	}

	cur := currency.Default
	if strings.TrimSpace(in.Currency) != "" {
		parsed, err := currency.ParseCurrency(in.Currency)
		if err != nil {
			return product.Product{}, fmt.Errorf("%w: %w %q", errs.ErrValidation, err, in.Currency)
		}
		cur = parsed
	}

	p := product.Product{
		SKU:      in.SKU,
		Title:    in.Title,
		Price:    in.Price,
		Currency: cur,
		IsActive: true,
	}

	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	if err := s.productRepo.Upsert(ctx, p); err != nil {
		return product.Product{}, err
	}

	slog.Info("Product saved", "sku", p.SKU, "price", p.Price, "currency", p.Currency)

	return p, nil
}

// SetPrice changes the price of an existing product.
func (s *CatalogService) SetPrice(ctx context.Context, sku string, price int64) error {
	ctx, span := otel.Tracer("service").Start(ctx, "CatalogService.SetPrice")
	defer span.End()

	if price < 0 {
		return fmt.Errorf("%w: price must be a non-negative integer", errs.ErrValidation)
	}

	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	if err := s.productRepo.UpdatePrice(ctx, strings.TrimSpace(sku), price); err != nil {
		return err
	}

	slog.Info("Product price changed", "sku", sku, "price", price)

	return nil
}

// SetTitle changes the title of an existing product.
func (s *CatalogService) SetTitle(ctx context.Context, sku, title string) error {
	ctx, span := otel.Tracer("service").Start(ctx, "CatalogService.SetTitle")
	defer span.End()

	title = strings.TrimSpace(title)
	if title == "" {
		return fmt.Errorf("%w: empty title", errs.ErrValidation)
	}

	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	if err := s.productRepo.UpdateTitle(ctx, strings.TrimSpace(sku), title); err != nil {
		return err
	}

	slog.Info("Product title changed", "sku", sku)

	return nil
}

// ToggleActive flips the product's active flag and returns the new value.
func (s *CatalogService) ToggleActive(ctx context.Context, sku string) (bool, error) {
	ctx, span := otel.Tracer("service").Start(ctx, "CatalogService.ToggleActive")
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	active, err := s.productRepo.ToggleActive(ctx, strings.TrimSpace(sku))
	if err != nil {
		return false, err
	}

	slog.Info("Product toggled", "sku", sku, "active", active)

	return active, nil
}

// describe turns validator errors into "field: rule" pairs.
func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}

	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, strings.ToLower(fe.Field())+": "+fe.Tag())
	}

	return strings.Join(parts, ", ")
}
