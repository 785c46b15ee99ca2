package iorderrepo

import (
	"context"

	"github.com/corray333/backend-labs/shop/internal/service/models/order"
	"github.com/corray333/backend-labs/shop/internal/service/models/status"
)

// IOrderRepository is an interface for order postgres repository.
type IOrderRepository interface {
	Insert(ctx context.Context, o order.Order) (int64, error)
	Query(ctx context.Context, filter *order.QueryOrdersModel) ([]order.Order, error)
	UpdateStatus(ctx context.Context, id int64, st status.Status) error
	UpdateTrackingCode(ctx context.Context, id int64, code string) error
	Delete(ctx context.Context, id int64) error
}
