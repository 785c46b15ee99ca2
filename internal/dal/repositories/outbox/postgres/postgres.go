package postgresrepo

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/corray333/backend-labs/shop/internal/dal/postgres"
	"github.com/corray333/backend-labs/shop/internal/service/errs"
	"github.com/corray333/backend-labs/shop/internal/service/models/outbox"
	"github.com/google/uuid"
)

// MessageDal is an outbox row. event_id is UUID in the table and travels as text.
type MessageDal struct {
	ID           int64     `db:"id"`
	EventID      string    `db:"event_id"`
	ExchangeName string    `db:"exchange_name"`
	RoutingKey   string    `db:"routing_key"`
	Payload      []byte    `db:"payload"`
	ContentType  string    `db:"content_type"`
	RetryCount   int       `db:"retry_count"`
	MaxRetries   int       `db:"max_retries"`
	LastError    string    `db:"last_error"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
	NextRetryAt  time.Time `db:"next_retry_at"`
}

func (m *MessageDal) ToModel() (outbox.Message, error) {
	eventID, err := uuid.Parse(m.EventID)
	if err != nil {
		return outbox.Message{}, fmt.Errorf("outbox message %d has bad event id: %w", m.ID, err)
	}

	return outbox.Message{
		ID:           m.ID,
		EventID:      eventID,
		ExchangeName: m.ExchangeName,
		RoutingKey:   m.RoutingKey,
		Payload:      m.Payload,
		ContentType:  m.ContentType,
		RetryCount:   m.RetryCount,
		MaxRetries:   m.MaxRetries,
		LastError:    m.LastError,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
		NextRetryAt:  m.NextRetryAt,
	}, nil
}

func MessageDalFromModel(m outbox.Message) MessageDal {
	return MessageDal{
		ID:           m.ID,
		EventID:      m.EventID.String(),
		ExchangeName: m.ExchangeName,
		RoutingKey:   m.RoutingKey,
		Payload:      m.Payload,
		ContentType:  m.ContentType,
		RetryCount:   m.RetryCount,
		MaxRetries:   m.MaxRetries,
		LastError:    m.LastError,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
		NextRetryAt:  m.NextRetryAt,
	}
}

// scan order of selectColumns.
func (m *MessageDal) targets() []any {
	return []any{
		&m.ID, &m.EventID, &m.ExchangeName, &m.RoutingKey, &m.Payload, &m.ContentType,
		&m.RetryCount, &m.MaxRetries, &m.LastError, &m.CreatedAt, &m.UpdatedAt, &m.NextRetryAt,
	}
}

var selectColumns = []string{
	"id", "event_id::text", "exchange_name", "routing_key", "payload", "content_type",
	"retry_count", "max_retries", "last_error", "created_at", "updated_at", "next_retry_at",
}

// OutboxRepository stores events written together with orders until the worker publishes them.
type OutboxRepository struct {
	conn postgres.GenericConn
	sb   sq.StatementBuilderType
	now  func() time.Time
}

func NewOutboxRepository(conn postgres.GenericConn) *OutboxRepository {
	return &OutboxRepository{
		conn: conn,
		sb:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
		now:  time.Now,
	}
}

// Insert enqueues msg. Use a transaction-bound conn to commit it with the order.
func (r *OutboxRepository) Insert(ctx context.Context, msg outbox.Message) error {
	dal := MessageDalFromModel(msg)

	sql, args, err := r.sb.Insert("outbox").
		SetMap(map[string]any{
			"event_id":      dal.EventID,
			"exchange_name": dal.ExchangeName,
			"routing_key":   dal.RoutingKey,
			"payload":       dal.Payload,
			"content_type":  dal.ContentType,
			"retry_count":   dal.RetryCount,
			"max_retries":   dal.MaxRetries,
			"last_error":    dal.LastError,
			"created_at":    dal.CreatedAt,
			"updated_at":    dal.UpdatedAt,
			"next_retry_at": dal.NextRetryAt,
		}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build outbox insert: %w", err)
	}

	if _, err = r.conn.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("failed to insert outbox message %s: %w", dal.RoutingKey, err)
	}

	return nil
}

// ListDue returns up to limit messages whose retry time has come and which
// still have attempts left, oldest schedule first.
func (r *OutboxRepository) ListDue(ctx context.Context, limit int) ([]outbox.Message, error) {
	sql, args, err := r.sb.Select(selectColumns...).
		From("outbox").
		Where(sq.LtOrEq{"next_retry_at": r.now()}).
		Where("retry_count < max_retries").
		OrderBy("next_retry_at ASC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build outbox select: %w", err)
	}

	rows, err := r.conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query due outbox messages: %w", err)
	}
	defer rows.Close()

	due := make([]outbox.Message, 0, limit)
	for rows.Next() {
		var dal MessageDal
		if err := rows.Scan(dal.targets()...); err != nil {
			return nil, fmt.Errorf("failed to scan outbox message: %w", err)
		}
		msg, err := dal.ToModel()
		if err != nil {
			return nil, err
		}
		due = append(due, msg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read outbox messages: %w", err)
	}

	return due, nil
}

// Delete drops a delivered message.
func (r *OutboxRepository) Delete(ctx context.Context, id int64) error {
	sql, args, err := r.sb.Delete("outbox").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build outbox delete: %w", err)
	}

	if _, err = r.conn.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("failed to delete outbox message %d: %w", id, err)
	}

	return nil
}

// MarkFailed records a failed delivery attempt and when to try again.
func (r *OutboxRepository) MarkFailed(
	ctx context.Context,
	id int64,
	attempts int,
	lastError string,
	retryAt time.Time,
) error {
	sql, args, err := r.sb.Update("outbox").
		Set("retry_count", attempts).
		Set("last_error", lastError).
		Set("next_retry_at", retryAt).
		Set("updated_at", r.now()).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build outbox update: %w", err)
	}

	tag, err := r.conn.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("failed to mark outbox message %d failed: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: outbox message %d", errs.ErrNotFound, id)
	}

	return nil
}
