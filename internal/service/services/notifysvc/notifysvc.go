package notifysvc

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/corray333/backend-labs/shop/internal/config"
	"github.com/corray333/backend-labs/shop/internal/metrics"
	"github.com/corray333/backend-labs/shop/internal/service/errs"
	"github.com/corray333/backend-labs/shop/internal/service/models/setting"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

// Outcome is the result of a single Notify call.
type Outcome int

const (
	OutcomeDropped Outcome = iota
	OutcomeSentPrimary
	OutcomeSentFallback
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSentPrimary:
		return "sent_primary"
	case OutcomeSentFallback:
		return "sent_fallback"
	default:
		return "dropped"
	}
}

// Sender delivers a plain text message to a chat.
type Sender interface {
	SendText(ctx context.Context, chatID int64, text string) error
}

type settingsReader interface {
	Get(ctx context.Context, key string) (string, bool, error)
}

// Gateway delivers operator notifications. It tries the chat registered under
// ADMIN_CHAT_ID through the primary sender, then SHOP_ADMIN_CHAT_ID through the
// fallback sender. Failures are logged and never returned.
type Gateway struct {
	settings settingsReader
	primary  Sender
	fallback Sender
	timeout  time.Duration
	metrics  *metrics.Metrics
}

// option is a function that configures the Gateway.
type option func(*Gateway)

// MustNewGateway creates a new Gateway.
func MustNewGateway(opts ...option) *Gateway {
	g := &Gateway{timeout: 5 * time.Second}
	for _, opt := range opts {
		opt(g)
	}

	if g.settings == nil {
		panic("notifysvc: settings are not configured")
	}
	if g.metrics == nil {
		g.metrics = metrics.Discard()
	}

	return g
}

// WithSettings sets where the notification chat ids are read from.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithSettings(s settingsReader) option {
	return func(g *Gateway) {
		g.settings = s
	}
}

// WithPrimary sets the sender used for ADMIN_CHAT_ID, normally the admin bot.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithPrimary(s Sender) option {
	return func(g *Gateway) {
		g.primary = s
	}
}

// WithFallback sets the sender used for SHOP_ADMIN_CHAT_ID, normally the shop bot.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithFallback(s Sender) option {
	return func(g *Gateway) {
		g.fallback = s
	}
}

//goland:noinspection GoExportedFuncWithUnexportedType
func WithConfig(cfg config.NotifyConfig) option {
	return func(g *Gateway) {
		if cfg.Timeout > 0 {
			g.timeout = cfg.Timeout
		}
	}
}

//goland:noinspection GoExportedFuncWithUnexportedType
func WithMetrics(m *metrics.Metrics) option {
	return func(g *Gateway) {
		g.metrics = m
	}
}

// Notify sends text to the operator and reports where it went.
func (g *Gateway) Notify(ctx context.Context, text string) Outcome {
	ctx, span := otel.Tracer("service").Start(ctx, "Gateway.Notify")
	defer span.End()

	outcome := g.deliver(ctx, text)

	span.SetAttributes(attribute.String("notify.outcome", outcome.String()))
	g.metrics.Notifications.WithLabelValues(outcome.String()).Inc()

	return outcome
}

func (g *Gateway) deliver(ctx context.Context, text string) Outcome {
	if g.primary != nil {
		err := g.sendTo(ctx, g.primary, setting.AdminChatID, text)
		if err == nil {
			return OutcomeSentPrimary
		}
		slog.Warn("Primary notification failed",
			"error", fmt.Errorf("%w: %w", errs.ErrNotificationDelivery, err))
	}

	if g.fallback != nil {
		err := g.sendTo(ctx, g.fallback, setting.ShopAdminChatID, text)
		if err == nil {
			return OutcomeSentFallback
		}
		slog.Warn("Fallback notification failed",
			"error", fmt.Errorf("%w: %w", errs.ErrNotificationDelivery, err))
	}

	slog.Info("Notification dropped")

	return OutcomeDropped
}

// sendTo resolves the chat registered under key and sends text to it.
func (g *Gateway) sendTo(ctx context.Context, s Sender, key, text string) error {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	raw, ok, err := g.settings.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", key, err)
	}
	if !ok || strings.TrimSpace(raw) == "" {
		return fmt.Errorf("%s is not set", key)
	}

	chatID, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return fmt.Errorf("bad %s %q: %w", key, raw, err)
	}

	return s.SendText(ctx, chatID, text)
}
