package apiv1

import (
	"context"
	"time"

	"google.golang.org/grpc"
)

const (
	OrderAdminServiceName = "food.v1.OrderAdmin"

	OrderAdminUpdateStatusFullMethodName = "/food.v1.OrderAdmin/UpdateStatus"
	OrderAdminGetStatusFullMethodName    = "/food.v1.OrderAdmin/GetStatus"
)

type UpdateStatusRequest struct {
	OrderID int64  `json:"orderId"`
	Status  string `json:"status"`
}

type UpdateStatusResponse struct {
	OrderID   int64     `json:"orderId"`
	Status    string    `json:"status"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type GetStatusRequest struct {
	OrderID int64 `json:"orderId"`
}

type GetStatusResponse struct {
	OrderID   int64     `json:"orderId"`
	UserID    int64     `json:"userId"`
	Status    string    `json:"status"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// OrderAdminServer is the server API for the OrderAdmin service.
type OrderAdminServer interface {
	UpdateStatus(ctx context.Context, req *UpdateStatusRequest) (*UpdateStatusResponse, error)
	GetStatus(ctx context.Context, req *GetStatusRequest) (*GetStatusResponse, error)
}

// RegisterOrderAdminServer registers srv on s.
func RegisterOrderAdminServer(s grpc.ServiceRegistrar, srv OrderAdminServer) {
	s.RegisterService(&orderAdminServiceDesc, srv)
}

func orderAdminUpdateStatusHandler(
	srv any,
	ctx context.Context,
	dec func(any) error,
	interceptor grpc.UnaryServerInterceptor,
) (any, error) {
	in := new(UpdateStatusRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(OrderAdminServer).UpdateStatus(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: OrderAdminUpdateStatusFullMethodName,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(OrderAdminServer).UpdateStatus(ctx, req.(*UpdateStatusRequest))
	}

	return interceptor(ctx, in, info, handler)
}

func orderAdminGetStatusHandler(
	srv any,
	ctx context.Context,
	dec func(any) error,
	interceptor grpc.UnaryServerInterceptor,
) (any, error) {
	in := new(GetStatusRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(OrderAdminServer).GetStatus(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: OrderAdminGetStatusFullMethodName,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(OrderAdminServer).GetStatus(ctx, req.(*GetStatusRequest))
	}

	return interceptor(ctx, in, info, handler)
}

var orderAdminServiceDesc = grpc.ServiceDesc{
	ServiceName: OrderAdminServiceName,
	HandlerType: (*OrderAdminServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "UpdateStatus",
			Handler:    orderAdminUpdateStatusHandler,
		},
		{
			MethodName: "GetStatus",
			Handler:    orderAdminGetStatusHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "food/v1/order_admin",
}

// OrderAdminClient is the client API for the OrderAdmin service.
type OrderAdminClient interface {
	UpdateStatus(ctx context.Context, in *UpdateStatusRequest, opts ...grpc.CallOption) (*UpdateStatusResponse, error)
	GetStatus(ctx context.Context, in *GetStatusRequest, opts ...grpc.CallOption) (*GetStatusResponse, error)
}

type orderAdminClient struct {
	cc grpc.ClientConnInterface
}

// NewOrderAdminClient returns a client that always speaks the JSON codec.
func NewOrderAdminClient(cc grpc.ClientConnInterface) OrderAdminClient {
	return &orderAdminClient{cc: cc}
}

func (c *orderAdminClient) UpdateStatus(
	ctx context.Context,
	in *UpdateStatusRequest,
	opts ...grpc.CallOption,
) (*UpdateStatusResponse, error) {
	out := new(UpdateStatusResponse)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := c.cc.Invoke(ctx, OrderAdminUpdateStatusFullMethodName, in, out, opts...); err != nil {
		return nil, err
	}

	return out, nil
}

func (c *orderAdminClient) GetStatus(
	ctx context.Context,
	in *GetStatusRequest,
	opts ...grpc.CallOption,
) (*GetStatusResponse, error) {
	out := new(GetStatusResponse)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := c.cc.Invoke(ctx, OrderAdminGetStatusFullMethodName, in, out, opts...); err != nil {
		return nil, err
	}

	return out, nil
}
