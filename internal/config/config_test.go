package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/corray333/backend-labs/shop/internal/config"
)

func TestLoad_ErrWhenShopTokenMissing(t *testing.T) {
	t.Setenv("SHOP_BOT_TOKEN", "")
	t.Setenv("SHOP_BOTS_SHOP_TOKEN", "")

	_, err := config.Load(t.TempDir())
	require.Error(t, err)
	require.Contains(t, err.Error(), "SHOP_BOT_TOKEN")
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("SHOP_BOT_TOKEN", "shop-token")

	cfg, err := config.Load(t.TempDir())
	require.NoError(t, err)

	require.Equal(t, "shop-token", cfg.Bots.ShopToken)
	require.Empty(t, cfg.Bots.AdminToken)
	require.Equal(t, "localhost", cfg.Postgres.Host)
	require.Equal(t, 5432, cfg.Postgres.Port)
	require.EqualValues(t, 20, cfg.Postgres.MaxConns)
	require.Equal(t, 2*time.Second, cfg.Postgres.QueryTimeout)
	require.Equal(t, 5*time.Second, cfg.Postgres.TxTimeout)
	require.Equal(t, "8080", cfg.Server.HTTP.Port)
	require.Empty(t, cfg.Server.HTTP.AdminToken)
	require.Empty(t, cfg.Server.HTTP.CORS.AllowedOrigins)
	require.Equal(t, config.BrokerNone, cfg.Events.Broker)
	require.False(t, cfg.Events.Enabled())
	require.Equal(t, 5, cfg.Events.Outbox.MaxRetries)
	require.False(t, cfg.Tracing.Enabled)
}

func TestLoad_FileAndEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	yaml := `
postgres:
  host: db
  user: u
  password: p
  db: orders
  query_timeout: 1500ms
bots:
  webapp_url: https://example.com/shop
events:
  broker: rabbitmq
server:
  http:
    port: "9090"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o600))

	t.Setenv("SHOP_BOT_TOKEN", "shop-token")
	t.Setenv("ADMIN_BOT_TOKEN", "admin-token")
	t.Setenv("SHOP_POSTGRES_PORT", "6432")

	cfg, err := config.Load(dir)
	require.NoError(t, err)

	require.Equal(t, "db", cfg.Postgres.Host)
	require.Equal(t, 6432, cfg.Postgres.Port)
	require.Equal(t, 1500*time.Millisecond, cfg.Postgres.QueryTimeout)
	require.Equal(t, "admin-token", cfg.Bots.AdminToken)
	require.Equal(t, "https://example.com/shop", cfg.Bots.WebAppURL)
	require.Equal(t, "9090", cfg.Server.HTTP.Port)
	require.Equal(t, []string{"https://example.com"}, cfg.Server.HTTP.CORS.AllowedOrigins)
	require.True(t, cfg.Events.Enabled())
	require.Equal(t, "postgres://u:p@db:6432/orders?sslmode=disable", cfg.Postgres.DSN())
}

func TestLoad_UnknownBroker(t *testing.T) {
	t.Setenv("SHOP_BOT_TOKEN", "shop-token")
	t.Setenv("SHOP_EVENTS_BROKER", "nats")

	_, err := config.Load(t.TempDir())
	require.ErrorContains(t, err, "nats")
}

func TestLoad_CORSOriginsOverrideStorefront(t *testing.T) {
	dir := t.TempDir()
	yaml := `
bots:
  webapp_url: https://example.com/shop
server:
  http:
    admin_token: s3cret
    cors:
      allowed_origins: ["https://admin.example.com"]
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o600))
	t.Setenv("SHOP_BOT_TOKEN", "shop-token")

	cfg, err := config.Load(dir)
	require.NoError(t, err)

	require.Equal(t, "s3cret", cfg.Server.HTTP.AdminToken)
	require.Equal(t, []string{"https://admin.example.com"}, cfg.Server.HTTP.CORS.AllowedOrigins)
}
