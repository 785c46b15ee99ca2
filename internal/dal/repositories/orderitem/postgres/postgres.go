package postgresrepo

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/corray333/backend-labs/shop/internal/dal/postgres"
	"github.com/corray333/backend-labs/shop/internal/service/models/orderitem"
)

// OrderItemDal represents order item data access layer model.
type OrderItemDal struct {
	ID           int64  `db:"id"`
	OrderID      int64  `db:"order_id"`
	ProductSKU   string `db:"product_sku"`
	ProductTitle string `db:"product_title"`
	Price        int64  `db:"price"`
	Qty          int    `db:"qty"`
}

// ToModel converts OrderItemDal to service layer OrderItem model.
func (o *OrderItemDal) ToModel() orderitem.OrderItem {
	return orderitem.OrderItem{
		ID:           o.ID,
		OrderID:      o.OrderID,
		ProductSKU:   o.ProductSKU,
		ProductTitle: o.ProductTitle,
		Price:        o.Price,
		Quantity:     o.Qty,
	}
}

// OrderItemDalFromModel converts service layer OrderItem model to OrderItemDal.
func OrderItemDalFromModel(o orderitem.OrderItem) OrderItemDal {
	return OrderItemDal{
		ID:           o.ID,
		OrderID:      o.OrderID,
		ProductSKU:   o.ProductSKU,
		ProductTitle: o.ProductTitle,
		Price:        o.Price,
		Qty:          o.Quantity,
	}
}

// PostgresOrderItemRepository represents a Postgres order item repository.
type PostgresOrderItemRepository struct {
	conn postgres.GenericConn
	sb   sq.StatementBuilderType
}

// NewPostgresOrderItemRepository creates a new Postgres order item repository.
func NewPostgresOrderItemRepository(conn postgres.GenericConn) *PostgresOrderItemRepository {
	return &PostgresOrderItemRepository{
		conn: conn,
		sb:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// BulkInsert inserts multiple order items and returns them with IDs.
func (r *PostgresOrderItemRepository) BulkInsert(
	ctx context.Context,
	orderItems []orderitem.OrderItem,
) ([]orderitem.OrderItem, error) {
	if len(orderItems) == 0 {
		return []orderitem.OrderItem{}, nil
	}

	query := r.sb.Insert("order_items").
		Columns("order_id", "product_sku", "product_title", "price", "qty")
	for _, item := range orderItems {
		dal := OrderItemDalFromModel(item)
		query = query.Values(dal.OrderID, dal.ProductSKU, dal.ProductTitle, dal.Price, dal.Qty)
	}

	sql, args, err := query.Suffix("RETURNING id").ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build insert query: %w", err)
	}

	rows, err := r.conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to bulk insert order items: %w", err)
	}
	defer rows.Close()

	result := make([]orderitem.OrderItem, 0, len(orderItems))
	for i := 0; rows.Next(); i++ {
		if i >= len(orderItems) {
			return nil, fmt.Errorf("insert returned more rows than items: %d", len(orderItems))
		}

		item := orderItems[i]
		if err := rows.Scan(&item.ID); err != nil {
			return nil, fmt.Errorf("failed to scan order item id: %w", err)
		}
		result = append(result, item)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	if len(result) != len(orderItems) {
		return nil, fmt.Errorf("inserted %d of %d order items", len(result), len(orderItems))
	}

	return result, nil
}

// Query retrieves order items, grouped by order in insertion order.
func (r *PostgresOrderItemRepository) Query(
	ctx context.Context,
	filter *orderitem.QueryOrderItemsModel,
) ([]orderitem.OrderItem, error) {
	query := r.sb.Select("id", "order_id", "product_sku", "product_title", "price", "qty").
		From("order_items")

	if filter != nil && len(filter.OrderIds) > 0 {
		query = query.Where(sq.Eq{"order_id": filter.OrderIds})
	}

	sql, args, err := query.OrderBy("order_id", "id").ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	result := make([]orderitem.OrderItem, 0)
	for rows.Next() {
		var dal OrderItemDal
		err := rows.Scan(&dal.ID, &dal.OrderID, &dal.ProductSKU, &dal.ProductTitle, &dal.Price, &dal.Qty)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		result = append(result, dal.ToModel())
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return result, nil
}
