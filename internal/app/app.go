package app

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/corray333/backend-labs/shop/internal/config"
	"github.com/corray333/backend-labs/shop/internal/dal/kafka"
	"github.com/corray333/backend-labs/shop/internal/dal/postgres"
	"github.com/corray333/backend-labs/shop/internal/dal/rabbitmq"
	outboxrepo "github.com/corray333/backend-labs/shop/internal/dal/repositories/outbox/postgres"
	productrepo "github.com/corray333/backend-labs/shop/internal/dal/repositories/product/postgres"
	settingrepo "github.com/corray333/backend-labs/shop/internal/dal/repositories/setting/postgres"
	"github.com/corray333/backend-labs/shop/internal/metrics"
	"github.com/corray333/backend-labs/shop/internal/otel"
	"github.com/corray333/backend-labs/shop/internal/service/services/catalogsvc"
	"github.com/corray333/backend-labs/shop/internal/service/services/notifysvc"
	"github.com/corray333/backend-labs/shop/internal/service/services/ordersvc"
	"github.com/corray333/backend-labs/shop/internal/service/services/settingsvc"
	"github.com/corray333/backend-labs/shop/internal/transport/bot/admin"
	"github.com/corray333/backend-labs/shop/internal/transport/bot/shop"
	"github.com/corray333/backend-labs/shop/internal/transport/bot/telegram"
	httptransport "github.com/corray333/backend-labs/shop/internal/transport/http"
	outboxworker "github.com/corray333/backend-labs/shop/internal/worker/outbox"
)

type publisher interface {
	outboxworker.Publisher
	Close() error
}

// App represents the application.
type App struct {
	cfg            *config.Config
	transport      *httptransport.HTTPTransport
	shopBot        *telegram.Bot
	adminBot       *telegram.Bot
	outboxWorker   *outboxworker.Worker
	publisher      publisher
	postgresClient *postgres.Client
	otelController *otel.OtelController
}

// MustNewApp creates a new application.
func MustNewApp(cfg *config.Config) *App {
	otelController := otel.MustInitOtel(cfg.Tracing)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	postgresClient := postgres.MustNewClient(context.Background(), cfg.Postgres)
	pool := postgresClient.Pool()

	catalogSvc := catalogsvc.MustNewCatalogService(
		catalogsvc.WithProductRepository(productrepo.NewPostgresProductRepository(pool)),
		catalogsvc.WithTimeouts(cfg.Postgres),
	)
	orderSvc := ordersvc.MustNewOrderService(
		ordersvc.WithDB(pool),
		ordersvc.WithTimeouts(cfg.Postgres),
		ordersvc.WithEvents(cfg.Events),
		ordersvc.WithMetrics(m),
	)
	settingsSvc := settingsvc.MustNewSettingsService(
		settingsvc.WithSettingRepository(settingrepo.NewPostgresSettingRepository(pool)),
		settingsvc.WithTimeouts(cfg.Postgres),
	)

	shopBot := telegram.MustNewBot("shop", cfg.Bots.ShopToken, cfg.Bots)

	// The admin bot is optional; without it notifications go to the fallback chat only.
	var (
		adminBot *telegram.Bot
		primary  notifysvc.Sender
	)
	if cfg.Bots.AdminToken != "" {
		adminBot = telegram.MustNewBot("admin", cfg.Bots.AdminToken, cfg.Bots)
		adminBot.ServeAdmin(admin.NewHandler(catalogSvc, orderSvc, settingsSvc, m))
		primary = adminBot
	} else {
		slog.Info("Admin bot disabled, ADMIN_BOT_TOKEN is empty")
	}

	gateway := notifysvc.MustNewGateway(
		notifysvc.WithSettings(settingsSvc),
		notifysvc.WithPrimary(primary),
		notifysvc.WithFallback(shopBot),
		notifysvc.WithConfig(cfg.Notify),
		notifysvc.WithMetrics(m),
	)

	shopBot.ServeShop(shop.NewHandler(orderSvc, gateway, cfg.Bots.WebAppURL))

	var (
		pub    publisher
		worker *outboxworker.Worker
	)
	switch cfg.Events.Broker {
	case config.BrokerRabbitMQ:
		pub = rabbitmq.MustNewClient(cfg.Events.RabbitMQ)
	case config.BrokerKafka:
		pub = kafka.MustNewClient(cfg.Events.Kafka)
	}
	if pub != nil {
		worker = outboxworker.NewWorker(outboxrepo.NewOutboxRepository(pool), pub, m, cfg.Events.Outbox)
	}

	transport := httptransport.NewHTTPTransport(cfg.Server.HTTP, catalogSvc, orderSvc, pool, m)
	transport.RegisterRoutes()

	return &App{
		cfg:            cfg,
		transport:      transport,
		shopBot:        shopBot,
		adminBot:       adminBot,
		outboxWorker:   worker,
		publisher:      pub,
		postgresClient: postgresClient,
		otelController: otelController,
	}
}

// Run starts the application.
// Tracks interrupt signal to gracefully shut down the application.
func (a *App) Run() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("Starting HTTP server")

		return a.transport.Run()
	})

	a.shopBot.SetupMenuButton(gctx, a.cfg.Bots.WebAppURL)
	g.Go(func() error {
		return a.shopBot.Start(gctx)
	})

	if a.adminBot != nil {
		g.Go(func() error {
			return a.adminBot.Start(gctx)
		})
	}

	if a.outboxWorker != nil {
		g.Go(func() error {
			slog.Info("Starting outbox worker", "broker", a.cfg.Events.Broker)
			a.outboxWorker.Start(gctx)

			return nil
		})
	}

	<-gctx.Done()
	slog.Info("Shutdown signal received")

	a.gracefulShutdown()

	if err := g.Wait(); err != nil {
		slog.Error("Application stopped with error", "error", err)
	}

	a.closeResources()
	slog.Info("Application shutdown complete")
}

// gracefulShutdown stops the HTTP server; bots and the worker stop on context cancellation.
func (a *App) gracefulShutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.transport.Shutdown(ctx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	} else {
		slog.Info("HTTP server stopped gracefully")
	}
}

// closeResources releases the broker, database and tracer once every runner has returned.
func (a *App) closeResources() {
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			slog.Error("Broker connection close error", "error", err)
		} else {
			slog.Info("Broker connection closed gracefully")
		}
	}

	a.postgresClient.Close()
	slog.Info("Database connection closed gracefully")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := a.otelController.Shutdown(ctx); err != nil {
		slog.Error("Otel trace provider connection close error", "error", err)
	} else {
		slog.Info("Otel trace provider connection closed gracefully")
	}
}
