package consumer

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/corray333/food-ordering/internal/service/models/event"
	"github.com/corray333/food-ordering/internal/service/models/inbox"
	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ackRecord struct {
	acked   bool
	nacked  bool
	requeue bool
}

type fakeAcknowledger struct {
	mu      sync.Mutex
	records map[uint64]*ackRecord
}

func newFakeAcknowledger() *fakeAcknowledger {
	return &fakeAcknowledger{records: make(map[uint64]*ackRecord)}
}

func (a *fakeAcknowledger) record(tag uint64) *ackRecord {
	a.mu.Lock()
	defer a.mu.Unlock()

	r, ok := a.records[tag]
	if !ok {
		r = &ackRecord{}
		a.records[tag] = r
	}

	return r
}

func (a *fakeAcknowledger) Ack(tag uint64, _ bool) error {
	r := a.record(tag)
	a.mu.Lock()
	r.acked = true
	a.mu.Unlock()

	return nil
}

func (a *fakeAcknowledger) Nack(tag uint64, _ bool, requeue bool) error {
	r := a.record(tag)
	a.mu.Lock()
	r.nacked, r.requeue = true, requeue
	a.mu.Unlock()

	return nil
}

func (a *fakeAcknowledger) Reject(tag uint64, requeue bool) error {
	return a.Nack(tag, false, requeue)
}

type fakeService struct {
	mu    sync.Mutex
	err   error
	calls []int64
}

func (s *fakeService) Advance(_ context.Context, placed event.OrderPlaced) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls = append(s.calls, placed.OrderID)

	return s.err
}

type fakeInbox struct {
	mu       sync.Mutex
	err      error
	messages []inbox.InboxMessage
}

func (f *fakeInbox) Insert(_ context.Context, msg inbox.InboxMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return f.err
	}
	f.messages = append(f.messages, msg)

	return nil
}

func (f *fakeInbox) GetPendingMessages(context.Context, time.Time, int) ([]inbox.InboxMessage, error) {
	return nil, nil
}

func (f *fakeInbox) Delete(context.Context, int64) error {
	return nil
}

func (f *fakeInbox) UpdateRetry(context.Context, int64, int, string, time.Time) error {
	return nil
}

func placedBody(t *testing.T, orderID int64) []byte {
	t.Helper()

	env, err := event.NewEnvelope(event.TypeOrderPlaced, "test", orderID, time.Now(), event.OrderPlaced{OrderID: orderID, UserID: 7})
	require.NoError(t, err)
	body, err := json.Marshal(env)
	require.NoError(t, err)

	return body
}

func delivery(ack amqp.Acknowledger, tag uint64, body []byte) amqp.Delivery {
	return amqp.Delivery{
		Acknowledger: ack,
		DeliveryTag:  tag,
		RoutingKey:   event.TypeOrderPlaced,
		ContentType:  "application/json",
		Body:         body,
	}
}

func TestProcessMessage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		body       func(t *testing.T) []byte
		serviceErr error
		inboxErr   error
		want       ackRecord
		parked     int
	}{
		{
			name: "handled",
			body: func(t *testing.T) []byte { return placedBody(t, 1) },
			want: ackRecord{acked: true},
		},
		{
			name: "malformed is dropped",
			body: func(*testing.T) []byte { return []byte(`{"eventType":"order.placed","payload":"nope"}`) },
			want: ackRecord{nacked: true},
		},
		{
			name:       "failure is parked in inbox",
			body:       func(t *testing.T) []byte { return placedBody(t, 1) },
			serviceErr: assert.AnError,
			want:       ackRecord{acked: true},
			parked:     1,
		},
		{
			name:       "failure without inbox is requeued",
			body:       func(t *testing.T) []byte { return placedBody(t, 1) },
			serviceErr: assert.AnError,
			inboxErr:   assert.AnError,
			want:       ackRecord{nacked: true, requeue: true},
		},
		{
			name:       "shutdown requeues",
			body:       func(t *testing.T) []byte { return placedBody(t, 1) },
			serviceErr: context.Canceled,
			want:       ackRecord{nacked: true, requeue: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ack := newFakeAcknowledger()
			box := &fakeInbox{err: tt.inboxErr}
			c := newConsumer(nil, &fakeService{err: tt.serviceErr}, box, "fulfillment.order_placed", 1, 5)

			c.processMessage(context.Background(), delivery(ack, 1, tt.body(t)))

			assert.Equal(t, tt.want, *ack.record(1))
			require.Len(t, box.messages, tt.parked)
			if tt.parked > 0 {
				assert.Equal(t, "fulfillment.order_placed", box.messages[0].QueueName)
				assert.Equal(t, 5, box.messages[0].MaxRetries)
				assert.NotEmpty(t, box.messages[0].MessageID)
				assert.Equal(t, assert.AnError.Error(), box.messages[0].LastError)
			}
		})
	}
}

func TestConsume_DrainsUntilChannelCloses(t *testing.T) {
	t.Parallel()

	ack := newFakeAcknowledger()
	svc := &fakeService{}
	c := newConsumer(nil, svc, &fakeInbox{}, "q", 4, 5)

	msgs := make(chan amqp.Delivery, 3)
	for i := uint64(1); i <= 3; i++ {
		msgs <- delivery(ack, i, placedBody(t, int64(i)))
	}
	close(msgs)

	require.NoError(t, c.consume(context.Background(), msgs))

	assert.ElementsMatch(t, []int64{1, 2, 3}, svc.calls)
	for i := uint64(1); i <= 3; i++ {
		assert.True(t, ack.record(i).acked)
	}
}
