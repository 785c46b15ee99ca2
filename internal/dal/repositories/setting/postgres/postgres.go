package postgresrepo

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/corray333/backend-labs/shop/internal/dal/postgres"
	"github.com/corray333/backend-labs/shop/internal/service/errs"
	"github.com/jackc/pgx/v5"
)

// PostgresSettingRepository stores string settings by key.
type PostgresSettingRepository struct {
	conn postgres.GenericConn
	sb   sq.StatementBuilderType
}

// NewPostgresSettingRepository creates a new Postgres setting repository.
func NewPostgresSettingRepository(conn postgres.GenericConn) *PostgresSettingRepository {
	return &PostgresSettingRepository{
		conn: conn,
		sb:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// Get returns the value stored under key or errs.ErrNotFound.
func (r *PostgresSettingRepository) Get(ctx context.Context, key string) (string, error) {
	sql, args, err := r.sb.Select("value").
		From("settings").
		Where(sq.Eq{"key": key}).
		ToSql()
	if err != nil {
		return "", fmt.Errorf("failed to build query: %w", err)
	}

	var value string
	err = r.conn.QueryRow(ctx, sql, args...).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", fmt.Errorf("%w: setting %q", errs.ErrNotFound, key)
	}
	if err != nil {
		return "", fmt.Errorf("failed to get setting: %w", err)
	}

	return value, nil
}

// Upsert inserts or replaces the value under key.
func (r *PostgresSettingRepository) Upsert(ctx context.Context, key, value string) error {
	sql, args, err := r.sb.Insert("settings").
		Columns("key", "value").
		Values(key, value).
		Suffix("ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build upsert query: %w", err)
	}

	if _, err := r.conn.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("failed to upsert setting: %w", err)
	}

	return nil
}
