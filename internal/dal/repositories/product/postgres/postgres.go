package postgresrepo

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/corray333/backend-labs/shop/internal/dal/postgres"
	"github.com/corray333/backend-labs/shop/internal/service/errs"
	"github.com/corray333/backend-labs/shop/internal/service/models/currency"
	"github.com/corray333/backend-labs/shop/internal/service/models/product"
	"github.com/jackc/pgx/v5"
)

// ProductDal represents product data access layer model.
type ProductDal struct {
	SKU      string `db:"sku"`
	Title    string `db:"title"`
	Price    int64  `db:"price"`
	Currency string `db:"currency"`
	IsActive bool   `db:"is_active"`
}

// ToModel converts ProductDal to service layer Product model.
// Stored currencies are trusted as-is.
func (p *ProductDal) ToModel() product.Product {
	return product.Product{
		SKU:      p.SKU,
		Title:    p.Title,
		Price:    p.Price,
		Currency: currency.Currency(p.Currency),
		IsActive: p.IsActive,
	}
}

// ProductDalFromModel converts service layer Product model to ProductDal.
func ProductDalFromModel(p product.Product) ProductDal {
	return ProductDal{
		SKU:      p.SKU,
		Title:    p.Title,
		Price:    p.Price,
		Currency: p.Currency.String(),
		IsActive: p.IsActive,
	}
}

var productColumns = []string{"sku", "title", "price", "currency", "is_active"}

// PostgresProductRepository represents a Postgres product repository.
type PostgresProductRepository struct {
	conn postgres.GenericConn
	sb   sq.StatementBuilderType
}

// NewPostgresProductRepository creates a new Postgres product repository.
func NewPostgresProductRepository(conn postgres.GenericConn) *PostgresProductRepository {
	return &PostgresProductRepository{
		conn: conn,
		sb:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// Query retrieves products ordered by title.
func (r *PostgresProductRepository) Query(
	ctx context.Context,
	filter *product.QueryProductsModel,
) ([]product.Product, error) {
	query := r.sb.Select(productColumns...).From("products")

	if filter != nil {
		if len(filter.SKUs) > 0 {
			query = query.Where(sq.Eq{"sku": filter.SKUs})
		}
		if filter.OnlyActive {
			query = query.Where(sq.Eq{"is_active": true})
		}
	}

	sql, args, err := query.OrderBy("title").ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	result := make([]product.Product, 0)
	for rows.Next() {
		var dal ProductDal
		if err := rows.Scan(&dal.SKU, &dal.Title, &dal.Price, &dal.Currency, &dal.IsActive); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		result = append(result, dal.ToModel())
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return result, nil
}

// GetActive returns the active product with the given sku.
func (r *PostgresProductRepository) GetActive(ctx context.Context, sku string) (product.Product, error) {
	sql, args, err := r.sb.Select(productColumns...).
		From("products").
		Where(sq.Eq{"sku": sku}).
		Where(sq.Eq{"is_active": true}).
		ToSql()
	if err != nil {
		return product.Product{}, fmt.Errorf("failed to build query: %w", err)
	}

	var dal ProductDal
	err = r.conn.QueryRow(ctx, sql, args...).Scan(&dal.SKU, &dal.Title, &dal.Price, &dal.Currency, &dal.IsActive)
	if errors.Is(err, pgx.ErrNoRows) {
		return product.Product{}, fmt.Errorf("%w: active product %q", errs.ErrNotFound, sku)
	}
	if err != nil {
		return product.Product{}, fmt.Errorf("failed to get product: %w", err)
	}

	return dal.ToModel(), nil
}

// Upsert inserts the product or overwrites title, price and currency of an
// existing one. Either way the product ends up active.
func (r *PostgresProductRepository) Upsert(ctx context.Context, p product.Product) error {
	dal := ProductDalFromModel(p)

	sql, args, err := r.sb.Insert("products").
		Columns(productColumns...).
		Values(dal.SKU, dal.Title, dal.Price, dal.Currency, true).
		Suffix("ON CONFLICT (sku) DO UPDATE SET " +
			"title = EXCLUDED.title, price = EXCLUDED.price, currency = EXCLUDED.currency, is_active = TRUE").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build upsert query: %w", err)
	}

	if _, err := r.conn.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("failed to upsert product: %w", err)
	}

	return nil
}

// UpdatePrice sets the price of the product.
func (r *PostgresProductRepository) UpdatePrice(ctx context.Context, sku string, price int64) error {
	return r.update(ctx, sku, "price", price)
}

// UpdateTitle sets the title of the product.
func (r *PostgresProductRepository) UpdateTitle(ctx context.Context, sku, title string) error {
	return r.update(ctx, sku, "title", title)
}

func (r *PostgresProductRepository) update(ctx context.Context, sku, column string, value any) error {
	sql, args, err := r.sb.Update("products").
		Set(column, value).
		Where(sq.Eq{"sku": sku}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update query: %w", err)
	}

	tag, err := r.conn.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("failed to update product %s: %w", column, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: product %q", errs.ErrNotFound, sku)
	}

	return nil
}

// ToggleActive flips is_active in a single statement and returns the new value.
func (r *PostgresProductRepository) ToggleActive(ctx context.Context, sku string) (bool, error) {
	sql, args, err := r.sb.Update("products").
		Set("is_active", sq.Expr("NOT is_active")).
		Where(sq.Eq{"sku": sku}).
		Suffix("RETURNING is_active").
		ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build toggle query: %w", err)
	}

	var active bool
	err = r.conn.QueryRow(ctx, sql, args...).Scan(&active)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, fmt.Errorf("%w: product %q", errs.ErrNotFound, sku)
	}
	if err != nil {
		return false, fmt.Errorf("failed to toggle product: %w", err)
	}

	return active, nil
}
