package postgresrepo

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/corray333/backend-labs/shop/internal/service/errs"
	"github.com/corray333/backend-labs/shop/internal/service/models/currency"
	"github.com/corray333/backend-labs/shop/internal/service/models/order"
	"github.com/corray333/backend-labs/shop/internal/service/models/status"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"
)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	return mock
}

func orderRows() *pgxmock.Rows {
	return pgxmock.NewRows([]string{
		"id", "tg_user_id", "tg_username", "tg_name", "total", "currency",
		"city", "branch", "receiver", "phone", "status", "np_ttn", "created_at",
	})
}

func TestInsert_NullsEmptyOptionalFields(t *testing.T) {
	mock := newMock(t)
	createdAt := time.Unix(1700000000, 0)

	mock.ExpectQuery(regexp.QuoteMeta(
		"INSERT INTO orders (tg_user_id,tg_username,tg_name,total,currency,city,branch,receiver,phone,status,created_at) " +
			"VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11) RETURNING id",
	)).WithArgs(
		int64(42), nil, "Ann", int64(2598), "UAH", "Kyiv", "5", "Ann K", "+380", "new", int64(1700000000),
	).WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(7)))

	r := NewPostgresOrderRepository(mock)
	id, err := r.Insert(context.Background(), order.Order{
		Buyer:     order.Buyer{UserID: 42, Name: "Ann"},
		Total:     2598,
		Currency:  currency.CurrencyUAH,
		Shipping:  order.Shipping{City: "Kyiv", Branch: "5", Receiver: "Ann K", Phone: "+380"},
		Status:    status.New,
		CreatedAt: createdAt,
	})
	require.NoError(t, err)
	require.Equal(t, int64(7), id)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInsert_Error(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery("INSERT INTO orders").WillReturnError(errors.New("disk full"))

	r := NewPostgresOrderRepository(mock)
	_, err := r.Insert(context.Background(), order.Order{Status: status.New})
	require.ErrorContains(t, err, "failed to insert order")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestQuery_NewestFirstWithLimit(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM orders ORDER BY id DESC LIMIT 2")).
		WillReturnRows(orderRows().
			AddRow(int64(9), int64(42), "ann", "Ann", int64(299), "UAH", "", "", "", "", "shipped", "2045", int64(1700000100)).
			AddRow(int64(8), int64(43), "", "", int64(1299), "UAH", "Lviv", "1", "Bob", "+1", "new", "", int64(1700000000)))

	r := NewPostgresOrderRepository(mock)
	got, err := r.Query(context.Background(), &order.QueryOrdersModel{Limit: 2})
	require.NoError(t, err)
	require.Len(t, got, 2)

	require.Equal(t, int64(9), got[0].ID)
	require.Equal(t, status.Shipped, got[0].Status)
	require.Equal(t, "2045", got[0].TrackingCode)
	require.Equal(t, "ann", got[0].Buyer.Username)
	require.Equal(t, time.Unix(1700000100, 0).UTC(), got[0].CreatedAt)

	require.Equal(t, "Lviv", got[1].Shipping.City)
	require.Empty(t, got[1].OrderItems)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestQuery_ByIds(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM orders WHERE id IN ($1) ORDER BY id DESC")).
		WithArgs(int64(5)).
		WillReturnRows(orderRows())

	r := NewPostgresOrderRepository(mock)
	got, err := r.Query(context.Background(), &order.QueryOrdersModel{Ids: []int64{5}})
	require.NoError(t, err)
	require.Empty(t, got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatus_FreeForm(t *testing.T) {
	mock := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE orders SET status = $1 WHERE id = $2")).
		WithArgs("on_hold", int64(3)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	r := NewPostgresOrderRepository(mock)
	require.NoError(t, r.UpdateStatus(context.Background(), 3, status.Status("on_hold")))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateTrackingCode_Missing(t *testing.T) {
	mock := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE orders SET np_ttn = $1 WHERE id = $2")).
		WithArgs("20450000000000", int64(99)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	r := NewPostgresOrderRepository(mock)
	err := r.UpdateTrackingCode(context.Background(), 99, "20450000000000")
	require.ErrorIs(t, err, errs.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDelete(t *testing.T) {
	mock := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM orders WHERE id = $1")).
		WithArgs(int64(3)).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM orders WHERE id = $1")).
		WithArgs(int64(4)).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	r := NewPostgresOrderRepository(mock)
	require.NoError(t, r.Delete(context.Background(), 3))
	require.ErrorIs(t, r.Delete(context.Background(), 4), errs.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}
