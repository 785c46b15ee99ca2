package httptransport

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/corray333/backend-labs/shop/internal/config"
	"github.com/corray333/backend-labs/shop/internal/metrics"
	"github.com/corray333/backend-labs/shop/internal/service/errs"
	"github.com/corray333/backend-labs/shop/internal/service/models/order"
	"github.com/corray333/backend-labs/shop/internal/service/models/product"
	"github.com/corray333/backend-labs/shop/internal/transport/http/docs"
	"github.com/corray333/backend-labs/shop/internal/transport/http/health"
	"github.com/corray333/backend-labs/shop/internal/transport/http/response"
	"github.com/corray333/backend-labs/shop/internal/transport/http/v1/orders"
	"github.com/corray333/backend-labs/shop/internal/transport/http/v1/products"
	"github.com/corray333/backend-labs/shop/pkg/http/middleware/trace"
	"github.com/corray333/backend-labs/shop/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger/v2"
)

type catalogService interface {
	ListActive(ctx context.Context) ([]product.Product, error)
}

type orderService interface {
	ListRecent(ctx context.Context, limit int) ([]order.Order, error)
	GetOrder(ctx context.Context, id int64) (order.Order, error)
}

type pinger interface {
	Ping(ctx context.Context) error
}

type HTTPTransport struct {
	server          *http.Server
	router          *chi.Mux
	catalog         catalogService
	orders          orderService
	db              pinger
	metrics         *metrics.Metrics
	adminToken      string
	shutdownTimeout time.Duration
}

func NewHTTPTransport(
	cfg config.HTTPConfig,
	catalog catalogService,
	orders orderService,
	db pinger,
	m *metrics.Metrics,
) *HTTPTransport {
	router := newRouter(cfg.CORS, m)
	server := newServer(cfg.Port, router)

	return &HTTPTransport{
		server:          server,
		router:          router,
		catalog:         catalog,
		orders:          orders,
		db:              db,
		metrics:         m,
		adminToken:      cfg.AdminToken,
		shutdownTimeout: cfg.ShutdownTimeout,
	}
}

// Run serves until Shutdown is called.
func (h *HTTPTransport) Run() error {
	slog.Info("HTTP server listening", "addr", h.server.Addr)

	if err := h.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

func (h *HTTPTransport) Shutdown(ctx context.Context) error {
	if h.shutdownTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.shutdownTimeout)
		defer cancel()
	}

	return h.server.Shutdown(ctx)
}

// Handler exposes the router, mainly for tests.
func (h *HTTPTransport) Handler() http.Handler {
	return h.router
}

// RegisterRoutes registers the routes for the HTTPTransport.
func (h *HTTPTransport) RegisterRoutes() {
	h.router.Get("/healthz", h.health)
	h.router.Handle("/metrics", h.metrics.Handler())

	h.router.Route("/api", func(r chi.Router) {
		r.Get("/products", h.listProducts)

		// Orders carry buyer contact data and are served to admins only.
		if h.adminToken == "" {
			slog.Info("Order API disabled, server.http.admin_token is empty")

			return
		}
		r.Group(func(r chi.Router) {
			r.Use(requireToken(h.adminToken))
			r.Get("/orders", h.listOrders)
			r.Get("/orders/{id}", h.getOrder)
		})
	})

	h.router.Get("/swagger/doc.json", docs.ServeDoc)
	h.router.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))
}

func (h *HTTPTransport) health(w http.ResponseWriter, r *http.Request) {
	health.Health(w, r, h.db)
}

func (h *HTTPTransport) listProducts(w http.ResponseWriter, r *http.Request) {
	products.ListProducts(w, r, h.catalog)
}

func (h *HTTPTransport) listOrders(w http.ResponseWriter, r *http.Request) {
	orders.ListOrders(w, r, h.orders)
}

func (h *HTTPTransport) getOrder(w http.ResponseWriter, r *http.Request) {
	orders.GetOrder(w, r, h.orders)
}

// requireToken accepts requests carrying "Authorization: Bearer <token>".
func requireToken(token string) func(next http.Handler) http.Handler {
	want := []byte("Bearer " + token)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if subtle.ConstantTimeCompare([]byte(r.Header.Get("Authorization")), want) != 1 {
				response.Error(w, r, errs.ErrUnauthorized)

				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func newRouter(cfg config.CORSConfig, m *metrics.Metrics) *chi.Mux {
	router := chi.NewMux()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Use(logger.NewLoggerMiddleware(slog.Default()))
	router.Use(trace.NewTraceMiddleware("http"))
	router.Use(newMetricsMiddleware(m))

	opts := cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   cfg.AllowedMethods,
		AllowedHeaders:   cfg.AllowedHeaders,
		ExposedHeaders:   cfg.ExposedHeaders,
		AllowCredentials: cfg.AllowCredentials,
		MaxAge:           cfg.MaxAge,
	}
	// cors treats an empty origin list as "*"; no configured origin means no cross-origin reads.
	if len(cfg.AllowedOrigins) == 0 {
		opts.AllowOriginFunc = func(*http.Request, string) bool { return false }
	}

	router.Use(cors.New(opts).Handler)

	return router
}

// newMetricsMiddleware counts requests per chi route pattern so ids in paths
// do not blow up label cardinality.
func newMetricsMiddleware(m *metrics.Metrics) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			route := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				route = rctx.RoutePattern()
			}
			m.HTTPRequests.WithLabelValues(route, strconv.Itoa(ww.Status())).Inc()
			m.HTTPLatencyMS.WithLabelValues(route).Observe(float64(time.Since(start).Milliseconds()))
		})
	}
}

func newServer(port string, router http.Handler) *http.Server {
	return &http.Server{
		Addr:              "0.0.0.0:" + port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
