package grpctransport

import (
	"context"
	"net"
	"testing"
	"time"

	grpcclient "github.com/corray333/food-ordering/internal/dal/grpc"
	"github.com/corray333/food-ordering/internal/service/errs"
	"github.com/corray333/food-ordering/internal/service/models/order"
	apiv1 "github.com/corray333/food-ordering/pkg/api/v1"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

const panicOrderID = 99

type fakeService struct {
	statuses map[int64]order.Status
}

func (f *fakeService) UpdateStatus(_ context.Context, id int64, raw string) (*order.StatusSnapshot, error) {
	st, err := order.ParseStatus(raw)
	if err != nil {
		return nil, err
	}
	if _, ok := f.statuses[id]; !ok {
		return nil, errs.NotFound("order", id)
	}
	f.statuses[id] = st

	return &order.StatusSnapshot{OrderID: id, UserID: 7, Status: st, UpdatedAt: time.Now().UTC()}, nil
}

func (f *fakeService) GetStatus(_ context.Context, id int64) (*order.StatusSnapshot, error) {
	if id == panicOrderID {
		panic("status store exploded")
	}
	st, ok := f.statuses[id]
	if !ok {
		return nil, errs.NotFound("order", id)
	}

	return &order.StatusSnapshot{OrderID: id, UserID: 7, Status: st}, nil
}

func startServer(t *testing.T, svc statusService) *grpc.ClientConn {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	transport := newGRPCTransport(lis, svc)

	go func() {
		_ = transport.Run()
	}()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = transport.Shutdown(ctx)
	})

	conn, err := grpc.NewClient(
		"passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return conn
}

func TestOrderAdmin_RoundTrip(t *testing.T) {
	t.Parallel()

	svc := &fakeService{statuses: map[int64]order.Status{1: order.StatusPending}}
	client := grpcclient.NewClient(startServer(t, svc), time.Second)

	require.NoError(t, client.UpdateStatus(context.Background(), 1, order.StatusConfirmed))

	snap, err := client.GetStatus(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, order.StatusConfirmed, snap.Status)
	assert.Equal(t, int64(7), snap.UserID)
}

func TestOrderAdmin_ErrorMapping(t *testing.T) {
	t.Parallel()

	svc := &fakeService{statuses: map[int64]order.Status{1: order.StatusPending}}
	conn := startServer(t, svc)

	raw := apiv1.NewOrderAdminClient(conn)
	_, err := raw.UpdateStatus(context.Background(), &apiv1.UpdateStatusRequest{OrderID: 1, Status: "bogus"})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = raw.GetStatus(context.Background(), &apiv1.GetStatusRequest{OrderID: 2})
	assert.Equal(t, codes.NotFound, status.Code(err))

	client := grpcclient.NewClient(conn, time.Second)
	_, err = client.GetStatus(context.Background(), 2)
	assert.True(t, errs.IsNotFound(err))

	err = client.UpdateStatus(context.Background(), 1, "bogus")
	assert.True(t, errs.IsValidation(err))
	assert.Equal(t, order.StatusPending, svc.statuses[1])
}

func TestOrderAdmin_PanicBecomesInternal(t *testing.T) {
	t.Parallel()

	svc := &fakeService{statuses: map[int64]order.Status{1: order.StatusPending}}
	raw := apiv1.NewOrderAdminClient(startServer(t, svc))

	_, err := raw.GetStatus(context.Background(), &apiv1.GetStatusRequest{OrderID: panicOrderID})
	assert.Equal(t, codes.Internal, status.Code(err))

	// the server keeps serving after a recovered panic
	resp, err := raw.GetStatus(context.Background(), &apiv1.GetStatusRequest{OrderID: 1})
	require.NoError(t, err)
	assert.Equal(t, order.StatusPending.String(), resp.Status)
}
