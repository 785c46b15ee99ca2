package ioutboxrepo

import (
	"context"
	"time"

	"github.com/corray333/backend-labs/shop/internal/service/models/outbox"
)

// IOutboxRepository is the event queue written by the order service and drained by the worker.
type IOutboxRepository interface {
	Insert(ctx context.Context, msg outbox.Message) error
	// ListDue returns messages whose retry time has come and that still have attempts left.
	ListDue(ctx context.Context, limit int) ([]outbox.Message, error)
	Delete(ctx context.Context, id int64) error
	MarkFailed(ctx context.Context, id int64, attempts int, lastError string, retryAt time.Time) error
}
