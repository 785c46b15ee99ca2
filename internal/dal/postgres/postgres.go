package postgres

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/corray333/backend-labs/shop/internal/config"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

const (
	migrationsDir = "migrations"
	pingTimeout   = 3 * time.Second
)

var newPoolWithConfig = pgxpool.NewWithConfig

// Client represents a Postgres client.
type Client struct {
	pool *pgxpool.Pool
}

// Pool returns the underlying connection pool.
func (p *Client) Pool() *pgxpool.Pool {
	return p.pool
}

// Close closes the database connection for graceful shutdown.
func (p *Client) Close() {
	p.pool.Close()
}

// NewPool parses the DSN and applies the pool limits from cfg. No connection is made.
func NewPool(ctx context.Context, cfg config.PostgresConfig) (*pgxpool.Pool, error) {
	pcfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to parse postgres config: %w", err)
	}

	pcfg.MaxConns = cfg.MaxConns
	pcfg.MinConns = cfg.MinConns
	pcfg.MaxConnIdleTime = cfg.MaxConnIdleTime
	pcfg.MaxConnLifetime = cfg.MaxConnLifetime

	pool, err := newPoolWithConfig(ctx, pcfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres pool: %w", err)
	}

	return pool, nil
}

// Ping checks connectivity with a short timeout.
func Ping(parent context.Context, pool *pgxpool.Pool) error {
	ctx, cancel := context.WithTimeout(parent, pingTimeout)
	defer cancel()

	return pool.Ping(ctx)
}

// MustNewClient connects, pings and applies the embedded migrations.
func MustNewClient(ctx context.Context, cfg config.PostgresConfig) *Client {
	pool, err := NewPool(ctx, cfg)
	if err != nil {
		panic(err)
	}

	if err := Ping(ctx, pool); err != nil {
		pool.Close()
		panic(fmt.Sprintf("failed to ping postgres: %v", err))
	}

	if err := migrate(pool); err != nil {
		pool.Close()
		panic(err)
	}

	slog.Info("Postgres connected", "host", cfg.Host, "db", cfg.DB)

	return &Client{
		pool: pool,
	}
}

// migrate runs goose with the stdlib adapter over the pool.
func migrate(pool *pgxpool.Pool) error {
	goose.SetBaseFS(embedMigrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	if err := goose.Up(db, migrationsDir); err != nil && !errors.Is(err, goose.ErrNoNextVersion) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	return nil
}
