package outbox

import (
	"context"
	"log/slog"
	"time"

	"github.com/corray333/backend-labs/shop/internal/config"
	"github.com/corray333/backend-labs/shop/internal/dal/interfaces/ioutboxrepo"
	"github.com/corray333/backend-labs/shop/internal/metrics"
	"github.com/corray333/backend-labs/shop/internal/service/models/outbox"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	defaultPollInterval = 10 * time.Second
	defaultBatchSize    = 100
	firstRetryDelay     = 30 * time.Second
)

// Publisher delivers one outbox message to the broker.
type Publisher interface {
	Publish(ctx context.Context, msg outbox.Message) error
}

// Worker drains the outbox table into the broker. Delivered messages are
// deleted; failed ones are rescheduled with exponential backoff until their
// attempts run out, after which they stay in the table for inspection.
type Worker struct {
	repo         ioutboxrepo.IOutboxRepository
	publisher    Publisher
	metrics      *metrics.Metrics
	pollInterval time.Duration
	batchSize    int
	now          func() time.Time
}

func NewWorker(
	repo ioutboxrepo.IOutboxRepository,
	publisher Publisher,
	m *metrics.Metrics,
	cfg config.OutboxConfig,
) *Worker {
	w := &Worker{
		repo:         repo,
		publisher:    publisher,
		metrics:      m,
		pollInterval: cfg.PollInterval,
		batchSize:    cfg.BatchSize,
		now:          time.Now,
	}
	if w.pollInterval <= 0 {
		w.pollInterval = defaultPollInterval
	}
	if w.batchSize <= 0 {
		w.batchSize = defaultBatchSize
	}
	if w.metrics == nil {
		w.metrics = metrics.Discard()
	}

	return w
}

// Start polls until ctx is cancelled.
func (w *Worker) Start(ctx context.Context) {
	slog.Info("Outbox worker started", "poll_interval", w.pollInterval, "batch_size", w.batchSize)

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("Outbox worker stopped")

			return
		case <-ticker.C:
			w.drain(ctx)
		}
	}
}

// backoff is the delay after the n-th failed attempt: 30s, 60s, 120s, ...
func backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}

	return firstRetryDelay << (attempt - 1)
}

// drain publishes one batch of due messages.
func (w *Worker) drain(ctx context.Context) {
	ctx, span := otel.Tracer("worker").Start(ctx, "OutboxWorker.drain")
	defer span.End()

	due, err := w.repo.ListDue(ctx, w.batchSize)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		slog.Error("Failed to list due outbox messages", "error", err)

		return
	}
	span.SetAttributes(attribute.Int("outbox.batch", len(due)))

	for _, msg := range due {
		if ctx.Err() != nil {
			return
		}
		w.deliver(ctx, msg)
	}
}

func (w *Worker) deliver(ctx context.Context, msg outbox.Message) {
	if err := w.publisher.Publish(ctx, msg); err != nil {
		w.metrics.OutboxPublished.WithLabelValues("retry").Inc()
		w.reschedule(ctx, msg, err)

		return
	}
	w.metrics.OutboxPublished.WithLabelValues("ok").Inc()

	// A failed delete only means the event may be published twice.
	if err := w.repo.Delete(ctx, msg.ID); err != nil {
		slog.Error("Failed to delete published outbox message", "outbox_id", msg.ID, "error", err)

		return
	}
	slog.Debug("Outbox message published", "outbox_id", msg.ID, "routing_key", msg.RoutingKey)
}

func (w *Worker) reschedule(ctx context.Context, msg outbox.Message, cause error) {
	attempts := msg.RetryCount + 1
	retryAt := w.now().Add(backoff(attempts))

	if attempts >= msg.MaxRetries {
		slog.Error("Outbox message gave up",
			"outbox_id", msg.ID,
			"event_id", msg.EventID,
			"routing_key", msg.RoutingKey,
			"attempts", attempts,
			"error", cause)
	} else {
		slog.Warn("Outbox publish failed",
			"outbox_id", msg.ID,
			"attempts", attempts,
			"retry_at", retryAt,
			"error", cause)
	}

	if err := w.repo.MarkFailed(ctx, msg.ID, attempts, cause.Error(), retryAt); err != nil {
		slog.Error("Failed to reschedule outbox message", "outbox_id", msg.ID, "error", err)
	}
}
