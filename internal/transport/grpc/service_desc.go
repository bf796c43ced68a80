package grpc

import (
	"context"

	"google.golang.org/grpc"
)

const ServiceName = "slotbook.v1.BookingService"

type BookingServiceServer interface {
	GenerateSlots(context.Context, *GenerateSlotsRequest) (*GenerateSlotsResponse, error)
	ListOwners(context.Context, *ListOwnersRequest) (*ListOwnersResponse, error)
	ListSlots(context.Context, *ListSlotsRequest) (*ListSlotsResponse, error)
	ListOpenSlots(context.Context, *ListSlotsRequest) (*ListSlotsResponse, error)
	UpcomingDates(context.Context, *UpcomingDatesRequest) (*UpcomingDatesResponse, error)
	BookSlot(context.Context, *BookSlotRequest) (*BookSlotResponse, error)
	ListBookings(context.Context, *ListBookingsRequest) (*ListBookingsResponse, error)
	CancelBooking(context.Context, *CancelBookingRequest) (*CancelBookingResponse, error)
}

func fullMethod(name string) string {
	return "/" + ServiceName + "/" + name
}

func unary[Req, Resp any](name string, call func(BookingServiceServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(BookingServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod(name)}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(BookingServiceServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

var BookingServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*BookingServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("GenerateSlots", BookingServiceServer.GenerateSlots),
		unary("ListOwners", BookingServiceServer.ListOwners),
		unary("ListSlots", BookingServiceServer.ListSlots),
		unary("ListOpenSlots", BookingServiceServer.ListOpenSlots),
		unary("UpcomingDates", BookingServiceServer.UpcomingDates),
		unary("BookSlot", BookingServiceServer.BookSlot),
		unary("ListBookings", BookingServiceServer.ListBookings),
		unary("CancelBooking", BookingServiceServer.CancelBooking),
	},
	Metadata: "slotbook/v1/booking.proto",
}

func RegisterBookingServiceServer(s grpc.ServiceRegistrar, srv BookingServiceServer) {
	s.RegisterService(&BookingServiceDesc, srv)
}

// BookingServiceClient calls the service with the json content-subtype.
type BookingServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewBookingServiceClient(cc grpc.ClientConnInterface) *BookingServiceClient {
	return &BookingServiceClient{cc: cc}
}

func invoke[Resp any](ctx context.Context, c *BookingServiceClient, name string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := c.cc.Invoke(ctx, fullMethod(name), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *BookingServiceClient) GenerateSlots(ctx context.Context, in *GenerateSlotsRequest, opts ...grpc.CallOption) (*GenerateSlotsResponse, error) {
	return invoke[GenerateSlotsResponse](ctx, c, "GenerateSlots", in, opts)
}

func (c *BookingServiceClient) ListOwners(ctx context.Context, in *ListOwnersRequest, opts ...grpc.CallOption) (*ListOwnersResponse, error) {
	return invoke[ListOwnersResponse](ctx, c, "ListOwners", in, opts)
}

func (c *BookingServiceClient) ListSlots(ctx context.Context, in *ListSlotsRequest, opts ...grpc.CallOption) (*ListSlotsResponse, error) {
	return invoke[ListSlotsResponse](ctx, c, "ListSlots", in, opts)
}

func (c *BookingServiceClient) ListOpenSlots(ctx context.Context, in *ListSlotsRequest, opts ...grpc.CallOption) (*ListSlotsResponse, error) {
	return invoke[ListSlotsResponse](ctx, c, "ListOpenSlots", in, opts)
}

func (c *BookingServiceClient) UpcomingDates(ctx context.Context, in *UpcomingDatesRequest, opts ...grpc.CallOption) (*UpcomingDatesResponse, error) {
	return invoke[UpcomingDatesResponse](ctx, c, "UpcomingDates", in, opts)
}

func (c *BookingServiceClient) BookSlot(ctx context.Context, in *BookSlotRequest, opts ...grpc.CallOption) (*BookSlotResponse, error) {
	return invoke[BookSlotResponse](ctx, c, "BookSlot", in, opts)
}

func (c *BookingServiceClient) ListBookings(ctx context.Context, in *ListBookingsRequest, opts ...grpc.CallOption) (*ListBookingsResponse, error) {
	return invoke[ListBookingsResponse](ctx, c, "ListBookings", in, opts)
}

func (c *BookingServiceClient) CancelBooking(ctx context.Context, in *CancelBookingRequest, opts ...grpc.CallOption) (*CancelBookingResponse, error) {
	return invoke[CancelBookingResponse](ctx, c, "CancelBooking", in, opts)
}
