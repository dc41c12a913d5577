package grpctransport

import (
	"context"
	"errors"
	"log/slog"

	"github.com/corray333/food-ordering/internal/service/errs"
	"github.com/corray333/food-ordering/internal/service/models/order"
	apiv1 "github.com/corray333/food-ordering/pkg/api/v1"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// OrderAdminServer implements the gRPC OrderAdmin service.
type OrderAdminServer struct {
	service statusService
}

// NewOrderAdminServer creates a new OrderAdminServer.
func NewOrderAdminServer(service statusService) *OrderAdminServer {
	return &OrderAdminServer{
		service: service,
	}
}

// UpdateStatus handles the update status gRPC request.
func (s *OrderAdminServer) UpdateStatus(
	ctx context.Context,
	req *apiv1.UpdateStatusRequest,
) (*apiv1.UpdateStatusResponse, error) {
	slog.Info("Received UpdateStatus gRPC request", "order_id", req.OrderID, "status", req.Status)

	snap, err := s.service.UpdateStatus(ctx, req.OrderID, req.Status)
	if err != nil {
		return nil, toStatusError(err)
	}

	return &apiv1.UpdateStatusResponse{
		OrderID:   snap.OrderID,
		Status:    snap.Status.String(),
		UpdatedAt: snap.UpdatedAt,
	}, nil
}

// GetStatus handles the get status gRPC request.
func (s *OrderAdminServer) GetStatus(
	ctx context.Context,
	req *apiv1.GetStatusRequest,
) (*apiv1.GetStatusResponse, error) {
	snap, err := s.service.GetStatus(ctx, req.OrderID)
	if err != nil {
		return nil, toStatusError(err)
	}

	return snapshotToResponse(snap), nil
}

func snapshotToResponse(snap *order.StatusSnapshot) *apiv1.GetStatusResponse {
	return &apiv1.GetStatusResponse{
		OrderID:   snap.OrderID,
		UserID:    snap.UserID,
		Status:    snap.Status.String(),
		UpdatedAt: snap.UpdatedAt,
	}
}

func toStatusError(err error) error {
	var (
		validationErr *errs.ValidationError
		notFoundErr   *errs.NotFoundError
	)

	switch {
	case errors.As(err, &validationErr):
		return status.Error(codes.InvalidArgument, validationErr.Error())
	case errors.As(err, &notFoundErr):
		return status.Error(codes.NotFound, notFoundErr.Error())
	default:
		slog.Error("Order admin call failed", "error", err)

		return status.Error(codes.Internal, "internal error")
	}
}
