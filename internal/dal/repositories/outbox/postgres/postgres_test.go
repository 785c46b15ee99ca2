package postgresrepo

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/corray333/backend-labs/shop/internal/service/errs"
	"github.com/corray333/backend-labs/shop/internal/service/models/outbox"
	"github.com/google/uuid"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newRepo(t *testing.T) (*OutboxRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	r := NewOutboxRepository(mock)
	r.now = func() time.Time { return fixedNow }

	return r, mock
}

func TestInsert(t *testing.T) {
	r, mock := newRepo(t)

	msg, err := outbox.NewMessage(outbox.RoutingKeyOrderCreated, outbox.OrderCreated{OrderID: 1}, 5, fixedNow)
	require.NoError(t, err)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO outbox (content_type,created_at,event_id,exchange_name," +
		"last_error,max_retries,next_retry_at,payload,retry_count,routing_key,updated_at)")).
		WithArgs(
			"application/json", fixedNow, msg.EventID.String(), "", "",
			5, fixedNow, msg.Payload, 0, outbox.RoutingKeyOrderCreated, fixedNow,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, r.Insert(context.Background(), msg))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListDue(t *testing.T) {
	r, mock := newRepo(t)
	eventID := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta(
		"FROM outbox WHERE next_retry_at <= $1 AND retry_count < max_retries ORDER BY next_retry_at ASC LIMIT 10",
	)).WithArgs(fixedNow).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "event_id", "exchange_name", "routing_key", "payload", "content_type",
			"retry_count", "max_retries", "last_error", "created_at", "updated_at", "next_retry_at",
		}).AddRow(
			int64(3), eventID.String(), "shop", outbox.RoutingKeyOrderStatusChanged, []byte(`{}`), "application/json",
			1, 5, "timeout", fixedNow, fixedNow, fixedNow,
		))

	got, err := r.ListDue(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, eventID, got[0].EventID)
	require.Equal(t, 1, got[0].RetryCount)
	require.Equal(t, "timeout", got[0].LastError)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkFailedAndDelete(t *testing.T) {
	r, mock := newRepo(t)
	next := fixedNow.Add(time.Minute)

	mock.ExpectExec(regexp.QuoteMeta(
		"UPDATE outbox SET retry_count = $1, last_error = $2, next_retry_at = $3, updated_at = $4 WHERE id = $5",
	)).WithArgs(2, "nack", next, fixedNow, int64(3)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE outbox SET")).
		WithArgs(1, "nack", next, fixedNow, int64(4)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM outbox WHERE id = $1")).
		WithArgs(int64(3)).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	require.NoError(t, r.MarkFailed(context.Background(), 3, 2, "nack", next))
	require.ErrorIs(t, r.MarkFailed(context.Background(), 4, 1, "nack", next), errs.ErrNotFound)
	require.NoError(t, r.Delete(context.Background(), 3))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListDue_BadEventID(t *testing.T) {
	r, mock := newRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM outbox")).
		WithArgs(fixedNow).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "event_id", "exchange_name", "routing_key", "payload", "content_type",
			"retry_count", "max_retries", "last_error", "created_at", "updated_at", "next_retry_at",
		}).AddRow(
			int64(8), "not-a-uuid", "", outbox.RoutingKeyOrderCreated, []byte(`{}`), "application/json",
			0, 5, "", fixedNow, fixedNow, fixedNow,
		))

	_, err := r.ListDue(context.Background(), 5)
	require.ErrorContains(t, err, "outbox message 8 has bad event id")
}
