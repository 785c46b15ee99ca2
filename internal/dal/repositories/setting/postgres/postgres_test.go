package postgresrepo

import (
	"context"
	"regexp"
	"testing"

	"github.com/corray333/backend-labs/shop/internal/service/errs"
	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"
)

func TestGet(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT value FROM settings WHERE key = $1")).
		WithArgs("ADMIN_CHAT_ID").
		WillReturnRows(pgxmock.NewRows([]string{"value"}).AddRow("-100123"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT value FROM settings WHERE key = $1")).
		WithArgs("SHOP_ADMIN_CHAT_ID").
		WillReturnError(pgx.ErrNoRows)

	r := NewPostgresSettingRepository(mock)

	v, err := r.Get(context.Background(), "ADMIN_CHAT_ID")
	require.NoError(t, err)
	require.Equal(t, "-100123", v)

	_, err = r.Get(context.Background(), "SHOP_ADMIN_CHAT_ID")
	require.ErrorIs(t, err, errs.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsert(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec(regexp.QuoteMeta(
		"INSERT INTO settings (key,value) VALUES ($1,$2) ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value",
	)).WithArgs("ADMIN_CHAT_ID", "555").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	r := NewPostgresSettingRepository(mock)
	require.NoError(t, r.Upsert(context.Background(), "ADMIN_CHAT_ID", "555"))
	require.NoError(t, mock.ExpectationsWereMet())
}
