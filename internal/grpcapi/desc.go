package grpcapi

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const ServiceName = "advisory.v1.AdvisoryService"

const (
	MethodMissingFields     = "/" + ServiceName + "/MissingFields"
	MethodUpdateUser        = "/" + ServiceName + "/UpdateUser"
	MethodCreateBusiness    = "/" + ServiceName + "/CreateBusiness"
	MethodListAppointments  = "/" + ServiceName + "/ListAppointments"
	MethodCreateAppointment = "/" + ServiceName + "/CreateAppointment"
	MethodAdvisorLogin      = "/" + ServiceName + "/AdvisorLogin"
	MethodListClients       = "/" + ServiceName + "/ListClients"
)

// AdvisoryServer is the RPC surface. Requests and responses are JSON-shaped
// google.protobuf.Struct messages mirroring the HTTP bodies.
type AdvisoryServer interface {
	MissingFields(context.Context, *structpb.Struct) (*structpb.Struct, error)
	UpdateUser(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CreateBusiness(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListAppointments(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CreateAppointment(context.Context, *structpb.Struct) (*structpb.Struct, error)
	AdvisorLogin(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListClients(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type call func(AdvisoryServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unary(name string, fn call) grpc.MethodDesc {
	full := "/" + ServiceName + "/" + name
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return fn(srv.(AdvisoryServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: full}
			handler := func(ctx context.Context, req any) (any, error) {
				return fn(srv.(AdvisoryServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AdvisoryServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("MissingFields", AdvisoryServer.MissingFields),
		unary("UpdateUser", AdvisoryServer.UpdateUser),
		unary("CreateBusiness", AdvisoryServer.CreateBusiness),
		unary("ListAppointments", AdvisoryServer.ListAppointments),
		unary("CreateAppointment", AdvisoryServer.CreateAppointment),
		unary("AdvisorLogin", AdvisoryServer.AdvisorLogin),
		unary("ListClients", AdvisoryServer.ListClients),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "advisory/v1/advisory.proto",
}

func RegisterAdvisoryServer(s grpc.ServiceRegistrar, srv AdvisoryServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// Client calls the service over any connection.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client { return &Client{cc: cc} }

func (c *Client) Call(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
