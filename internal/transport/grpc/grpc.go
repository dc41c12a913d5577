package grpctransport

import (
	"context"
	"log/slog"
	"net"
	"time"

	"github.com/corray333/food-ordering/internal/service/models/order"
	apiv1 "github.com/corray333/food-ordering/pkg/api/v1"
	"github.com/spf13/viper"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/grpc/status"
)

// statusService is the part of the order service exposed to internal callers.
type statusService interface {
	UpdateStatus(ctx context.Context, id int64, status string) (*order.StatusSnapshot, error)
	GetStatus(ctx context.Context, id int64) (*order.StatusSnapshot, error)
}

// GRPCTransport serves food.v1.OrderAdmin on server.grpc.port. It has no authentication
// and must only be reachable from the internal network.
type GRPCTransport struct {
	server   *grpc.Server
	listener net.Listener
}

// NewGRPCTransport listens on the configured port and registers the admin service.
func NewGRPCTransport(service statusService) *GRPCTransport {
	listener, err := net.Listen("tcp", ":"+viper.GetString("server.grpc.port"))
	if err != nil {
		panic(err)
	}

	return newGRPCTransport(listener, service)
}

func newGRPCTransport(listener net.Listener, service statusService) *GRPCTransport {
	server := newGRPCServer()
	apiv1.RegisterOrderAdminServer(server, NewOrderAdminServer(service))

	return &GRPCTransport{
		server:   server,
		listener: listener,
	}
}

// Run blocks serving admin calls until Shutdown.
func (g *GRPCTransport) Run() error {
	slog.Info("Starting gRPC server", "address", g.listener.Addr().String())

	return g.server.Serve(g.listener)
}

// Shutdown drains in-flight calls, forcing the stop once ctx expires.
func (g *GRPCTransport) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		g.server.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		g.server.Stop()

		return ctx.Err()
	}
}

// logUnary logs every admin call and turns a panicking handler into codes.Internal.
func logUnary(
	ctx context.Context,
	req any,
	info *grpc.UnaryServerInfo,
	handler grpc.UnaryHandler,
) (resp any, err error) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			slog.Error("gRPC handler panicked", "method", info.FullMethod, "panic", r)
			resp, err = nil, status.Error(codes.Internal, "internal error")
		}

		code := status.Code(err)
		attrs := []any{"method", info.FullMethod, "code", code.String(), "duration", time.Since(start)}
		if code == codes.Internal || code == codes.Unknown {
			slog.Error("gRPC call failed", append(attrs, "error", err)...)
			return
		}
		slog.Info("gRPC call", attrs...)
	}()

	return handler(ctx, req)
}

func seconds(key string) time.Duration {
	return time.Duration(viper.GetInt(key)) * time.Second
}

// newGRPCServer creates the server with keepalive settings from config, all in seconds.
func newGRPCServer() *grpc.Server {
	keepaliveParams := keepalive.ServerParameters{
		MaxConnectionIdle:     seconds("server.grpc.keepalive.max_connection_idle"),
		MaxConnectionAge:      seconds("server.grpc.keepalive.max_connection_age"),
		MaxConnectionAgeGrace: seconds("server.grpc.keepalive.max_connection_age_grace"),
		Time:                  seconds("server.grpc.keepalive.time"),
		Timeout:               seconds("server.grpc.keepalive.timeout"),
	}

	keepalivePolicy := keepalive.EnforcementPolicy{
		MinTime:             seconds("server.grpc.keepalive.min_time"),
		PermitWithoutStream: viper.GetBool("server.grpc.keepalive.permit_without_stream"),
	}

	return grpc.NewServer(
		grpc.KeepaliveParams(keepaliveParams),
		grpc.KeepaliveEnforcementPolicy(keepalivePolicy),
		grpc.ChainUnaryInterceptor(logUnary),
	)
}
