package outbox

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/corray333/backend-labs/shop/internal/config"
	"github.com/corray333/backend-labs/shop/internal/metrics"
	"github.com/corray333/backend-labs/shop/internal/service/models/outbox"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

type retry struct {
	id     int64
	count  int
	errMsg string
	next   time.Time
}

type fakeRepo struct {
	pending []outbox.Message
	getErr  error
	deleted []int64
	retries []retry
}

func (f *fakeRepo) Insert(context.Context, outbox.Message) error { return nil }

func (f *fakeRepo) ListDue(_ context.Context, limit int) ([]outbox.Message, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	if len(f.pending) > limit {
		return f.pending[:limit], nil
	}

	return f.pending, nil
}

func (f *fakeRepo) Delete(_ context.Context, id int64) error {
	f.deleted = append(f.deleted, id)

	return nil
}

func (f *fakeRepo) MarkFailed(_ context.Context, id int64, count int, lastError string, next time.Time) error {
	f.retries = append(f.retries, retry{id: id, count: count, errMsg: lastError, next: next})

	return nil
}

type fakePublisher struct {
	failFor map[int64]error
	sent    []int64
}

func (f *fakePublisher) Publish(_ context.Context, msg outbox.Message) error {
	if err := f.failFor[msg.ID]; err != nil {
		return err
	}
	f.sent = append(f.sent, msg.ID)

	return nil
}

var fixedNow = time.Date(2025, 2, 3, 4, 5, 6, 0, time.UTC)

func newTestWorker(repo *fakeRepo, pub *fakePublisher) (*Worker, *metrics.Metrics) {
	m := metrics.Discard()
	w := NewWorker(repo, pub, m, config.OutboxConfig{BatchSize: 10})
	w.now = func() time.Time { return fixedNow }

	return w, m
}

func TestDrain_DeletesPublished(t *testing.T) {
	repo := &fakeRepo{pending: []outbox.Message{{ID: 1, MaxRetries: 5}, {ID: 2, MaxRetries: 5}}}
	pub := &fakePublisher{}
	w, m := newTestWorker(repo, pub)

	w.drain(context.Background())

	require.Equal(t, []int64{1, 2}, pub.sent)
	require.Equal(t, []int64{1, 2}, repo.deleted)
	require.Empty(t, repo.retries)
	require.Equal(t, 2.0, testutil.ToFloat64(m.OutboxPublished.WithLabelValues("ok")))
}

func TestDrain_ReschedulesWithBackoff(t *testing.T) {
	repo := &fakeRepo{pending: []outbox.Message{
		{ID: 1, RetryCount: 0, MaxRetries: 5},
		{ID: 2, RetryCount: 2, MaxRetries: 5},
		{ID: 3, MaxRetries: 5},
	}}
	pub := &fakePublisher{failFor: map[int64]error{
		1: errors.New("nack"),
		2: errors.New("nack"),
	}}
	w, m := newTestWorker(repo, pub)

	w.drain(context.Background())

	require.Equal(t, []int64{3}, repo.deleted)
	require.Equal(t, []retry{
		{id: 1, count: 1, errMsg: "nack", next: fixedNow.Add(30 * time.Second)},
		{id: 2, count: 3, errMsg: "nack", next: fixedNow.Add(120 * time.Second)},
	}, repo.retries)
	require.Equal(t, 2.0, testutil.ToFloat64(m.OutboxPublished.WithLabelValues("retry")))
}

func TestDrain_ListError(t *testing.T) {
	repo := &fakeRepo{getErr: errors.New("db down")}
	pub := &fakePublisher{}
	w, _ := newTestWorker(repo, pub)

	w.drain(context.Background())

	require.Empty(t, pub.sent)
}

func TestNewWorker_Defaults(t *testing.T) {
	w := NewWorker(&fakeRepo{}, &fakePublisher{}, nil, config.OutboxConfig{})

	require.Equal(t, 10*time.Second, w.pollInterval)
	require.Equal(t, 100, w.batchSize)
}

func TestBackoff(t *testing.T) {
	require.Equal(t, 30*time.Second, backoff(0))
	require.Equal(t, 30*time.Second, backoff(1))
	require.Equal(t, 60*time.Second, backoff(2))
	require.Equal(t, 240*time.Second, backoff(4))
}

func TestStart_StopsOnContextCancel(t *testing.T) {
	w := NewWorker(&fakeRepo{}, &fakePublisher{}, nil, config.OutboxConfig{PollInterval: time.Millisecond})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	time.Sleep(5 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
}
