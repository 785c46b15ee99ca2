package postgresrepo

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/corray333/backend-labs/shop/internal/dal/postgres"
	"github.com/corray333/backend-labs/shop/internal/service/errs"
	"github.com/corray333/backend-labs/shop/internal/service/models/currency"
	"github.com/corray333/backend-labs/shop/internal/service/models/order"
	"github.com/corray333/backend-labs/shop/internal/service/models/orderitem"
	"github.com/corray333/backend-labs/shop/internal/service/models/status"
)

// OrderDal represents order data access layer model.
type OrderDal struct {
	ID         int64  `db:"id"`
	TgUserID   int64  `db:"tg_user_id"`
	TgUsername string `db:"tg_username"`
	TgName     string `db:"tg_name"`
	Total      int64  `db:"total"`
	Currency   string `db:"currency"`
	City       string `db:"city"`
	Branch     string `db:"branch"`
	Receiver   string `db:"receiver"`
	Phone      string `db:"phone"`
	Status     string `db:"status"`
	NpTTN      string `db:"np_ttn"`
	CreatedAt  int64  `db:"created_at"`
}

// ToModel converts OrderDal to service layer Order model.
func (o *OrderDal) ToModel() order.Order {
	return order.Order{
		ID: o.ID,
		Buyer: order.Buyer{
			UserID:   o.TgUserID,
			Username: o.TgUsername,
			Name:     o.TgName,
		},
		Total:    o.Total,
		Currency: currency.Currency(o.Currency),
		Shipping: order.Shipping{
			City:     o.City,
			Branch:   o.Branch,
			Receiver: o.Receiver,
			Phone:    o.Phone,
		},
		Status:       status.Status(o.Status),
		TrackingCode: o.NpTTN,
		CreatedAt:    time.Unix(o.CreatedAt, 0).UTC(),
		OrderItems:   []orderitem.OrderItem{}, // Will be populated separately
	}
}

// OrderDalFromModel converts service layer Order model to OrderDal.
func OrderDalFromModel(o order.Order) OrderDal {
	return OrderDal{
		ID:         o.ID,
		TgUserID:   o.Buyer.UserID,
		TgUsername: o.Buyer.Username,
		TgName:     o.Buyer.Name,
		Total:      o.Total,
		Currency:   o.Currency.String(),
		City:       o.Shipping.City,
		Branch:     o.Shipping.Branch,
		Receiver:   o.Shipping.Receiver,
		Phone:      o.Shipping.Phone,
		Status:     o.Status.String(),
		NpTTN:      o.TrackingCode,
		CreatedAt:  o.CreatedAt.Unix(),
	}
}

// nullable maps an empty string to SQL NULL.
func nullable(s string) any {
	if s == "" {
		return nil
	}

	return s
}

var orderColumns = []string{
	"id",
	"tg_user_id",
	"COALESCE(tg_username, '')",
	"COALESCE(tg_name, '')",
	"total",
	"currency",
	"COALESCE(city, '')",
	"COALESCE(branch, '')",
	"COALESCE(receiver, '')",
	"COALESCE(phone, '')",
	"status",
	"COALESCE(np_ttn, '')",
	"created_at",
}

// PostgresOrderRepository represents a Postgres order repository.
type PostgresOrderRepository struct {
	conn postgres.GenericConn
	sb   sq.StatementBuilderType
}

// NewPostgresOrderRepository creates a new Postgres order repository.
func NewPostgresOrderRepository(conn postgres.GenericConn) *PostgresOrderRepository {
	return &PostgresOrderRepository{
		conn: conn,
		sb:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// Insert stores the order header and returns its generated id.
func (r *PostgresOrderRepository) Insert(ctx context.Context, o order.Order) (int64, error) {
	dal := OrderDalFromModel(o)

	sql, args, err := r.sb.Insert("orders").
		Columns(
			"tg_user_id",
			"tg_username",
			"tg_name",
			"total",
			"currency",
			"city",
			"branch",
			"receiver",
			"phone",
			"status",
			"created_at",
		).
		Values(
			dal.TgUserID,
			nullable(dal.TgUsername),
			nullable(dal.TgName),
			dal.Total,
			dal.Currency,
			nullable(dal.City),
			nullable(dal.Branch),
			nullable(dal.Receiver),
			nullable(dal.Phone),
			dal.Status,
			dal.CreatedAt,
		).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build insert query: %w", err)
	}

	var id int64
	if err := r.conn.QueryRow(ctx, sql, args...).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to insert order: %w", err)
	}

	return id, nil
}

// Query retrieves orders newest first.
func (r *PostgresOrderRepository) Query(
	ctx context.Context,
	filter *order.QueryOrdersModel,
) ([]order.Order, error) {
	query := r.sb.Select(orderColumns...).From("orders")

	if filter != nil {
		if len(filter.Ids) > 0 {
			query = query.Where(sq.Eq{"id": filter.Ids})
		}
		if filter.Limit > 0 {
			query = query.Limit(uint64(filter.Limit))
		}
	}

	sql, args, err := query.OrderBy("id DESC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	result := make([]order.Order, 0)
	for rows.Next() {
		var dal OrderDal
		err := rows.Scan(
			&dal.ID,
			&dal.TgUserID,
			&dal.TgUsername,
			&dal.TgName,
			&dal.Total,
			&dal.Currency,
			&dal.City,
			&dal.Branch,
			&dal.Receiver,
			&dal.Phone,
			&dal.Status,
			&dal.NpTTN,
			&dal.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		result = append(result, dal.ToModel())
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return result, nil
}

// UpdateStatus overwrites the order status.
func (r *PostgresOrderRepository) UpdateStatus(ctx context.Context, id int64, st status.Status) error {
	return r.update(ctx, id, "status", st.String())
}

// UpdateTrackingCode overwrites the shipment tracking code.
func (r *PostgresOrderRepository) UpdateTrackingCode(ctx context.Context, id int64, code string) error {
	return r.update(ctx, id, "np_ttn", code)
}

func (r *PostgresOrderRepository) update(ctx context.Context, id int64, column string, value any) error {
	sql, args, err := r.sb.Update("orders").
		Set(column, value).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update query: %w", err)
	}

	tag, err := r.conn.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("failed to update order %s: %w", column, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: order #%d", errs.ErrNotFound, id)
	}

	return nil
}

// Delete removes the order. Its items go with it via ON DELETE CASCADE.
func (r *PostgresOrderRepository) Delete(ctx context.Context, id int64) error {
	sql, args, err := r.sb.Delete("orders").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete query: %w", err)
	}

	tag, err := r.conn.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("failed to delete order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: order #%d", errs.ErrNotFound, id)
	}

	return nil
}
