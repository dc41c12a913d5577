package outbox

import (
	"context"
	"errors"
	"testing"
	"time"

	outboxmodel "github.com/corray333/food-ordering/internal/service/models/outbox"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type retryUpdate struct {
	id          int64
	retryCount  int
	lastError   string
	nextRetryAt time.Time
}

type fakeOutboxRepo struct {
	pending []outboxmodel.OutboxMessage
	deleted []int64
	retries []retryUpdate
}

func (r *fakeOutboxRepo) Insert(context.Context, outboxmodel.OutboxMessage) error {
	return nil
}

func (r *fakeOutboxRepo) GetPendingMessages(_ context.Context, _ time.Time, limit int) ([]outboxmodel.OutboxMessage, error) {
	if limit < len(r.pending) {
		return r.pending[:limit], nil
	}
	return r.pending, nil
}

func (r *fakeOutboxRepo) Delete(_ context.Context, id int64) error {
	r.deleted = append(r.deleted, id)
	return nil
}

func (r *fakeOutboxRepo) UpdateRetry(_ context.Context, id int64, retryCount int, lastError string, nextRetryAt time.Time) error {
	r.retries = append(r.retries, retryUpdate{id: id, retryCount: retryCount, lastError: lastError, nextRetryAt: nextRetryAt})
	return nil
}

type fakePublisher struct {
	failFor   map[int64]bool
	published []string
}

func (p *fakePublisher) Publish(_ context.Context, msg outboxmodel.OutboxMessage) error {
	if p.failFor[msg.ID] {
		return errors.New("broker unavailable")
	}
	p.published = append(p.published, msg.EventID)
	return nil
}

func TestProcessMessages(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	repo := &fakeOutboxRepo{pending: []outboxmodel.OutboxMessage{
		{ID: 1, EventID: "a"},
		{ID: 2, EventID: "b", RetryCount: 2},
		{ID: 3, EventID: "c"},
	}}
	pub := &fakePublisher{failFor: map[int64]bool{2: true}}

	w := NewWorker(repo, pub)
	w.now = func() time.Time { return now }
	w.retryInterval = 10 * time.Second

	w.processMessages(context.Background())

	assert.Equal(t, []string{"a", "c"}, pub.published)
	assert.Equal(t, []int64{1, 3}, repo.deleted)
	require.Len(t, repo.retries, 1)
	assert.Equal(t, retryUpdate{
		id:          2,
		retryCount:  3,
		lastError:   "broker unavailable",
		nextRetryAt: now.Add(80 * time.Second),
	}, repo.retries[0])
}

func TestStart_StopsOnContextCancel(t *testing.T) {
	t.Parallel()

	w := NewWorker(&fakeOutboxRepo{}, &fakePublisher{})
	w.pollInterval = time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
}
