package grpc

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/corray333/food-ordering/internal/service/errs"
	"github.com/corray333/food-ordering/internal/service/models/order"
	apiv1 "github.com/corray333/food-ordering/pkg/api/v1"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
)

// Client talks to the order admin gRPC API of the api binary.
type Client struct {
	conn    *grpc.ClientConn
	client  apiv1.OrderAdminClient
	timeout time.Duration
}

// MustNewClient creates a new gRPC client.
func MustNewClient() *Client {
	addr := viper.GetString("grpc.order_service_addr")
	if addr == "" {
		panic("grpc.order_service_addr is not set in config")
	}

	conn, err := grpc.NewClient(
		addr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		panic(fmt.Sprintf("Failed to connect to order service: %v", err))
	}

	timeout := viper.GetInt("grpc.timeout_seconds")
	if timeout == 0 {
		timeout = 30
	}

	slog.Info("gRPC client connected to order service", "address", addr)

	return NewClient(conn, time.Duration(timeout)*time.Second)
}

// NewClient wraps an existing connection.
func NewClient(conn *grpc.ClientConn, timeout time.Duration) *Client {
	return &Client{
		conn:    conn,
		client:  apiv1.NewOrderAdminClient(conn),
		timeout: timeout,
	}
}

// Close closes the gRPC connection.
func (c *Client) Close() error {
	if c.conn != nil {
		return c.conn.Close()
	}

	return nil
}

// GetStatus reads the current status of an order.
func (c *Client) GetStatus(ctx context.Context, orderID int64) (*order.StatusSnapshot, error) {
	ctx, span := otel.Tracer("grpc-client").Start(ctx, "Client.GetStatus")
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.client.GetStatus(ctx, &apiv1.GetStatusRequest{OrderID: orderID})
	if err != nil {
		return nil, fromStatusError(err, orderID)
	}

	return &order.StatusSnapshot{
		OrderID:   resp.OrderID,
		UserID:    resp.UserID,
		Status:    order.Status(resp.Status),
		UpdatedAt: resp.UpdatedAt,
	}, nil
}

// UpdateStatus moves an order to st.
func (c *Client) UpdateStatus(ctx context.Context, orderID int64, st order.Status) error {
	ctx, span := otel.Tracer("grpc-client").Start(ctx, "Client.UpdateStatus")
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	_, err := c.client.UpdateStatus(ctx, &apiv1.UpdateStatusRequest{OrderID: orderID, Status: st.String()})
	if err != nil {
		return fromStatusError(err, orderID)
	}

	return nil
}

func fromStatusError(err error, orderID int64) error {
	st, ok := status.FromError(err)
	if !ok {
		return fmt.Errorf("order admin call failed: %w", err)
	}

	switch st.Code() {
	case codes.NotFound:
		return errs.NotFound("order", orderID)
	case codes.InvalidArgument:
		return errs.Validation("", st.Message())
	default:
		return fmt.Errorf("order admin call failed: %w", err)
	}
}
