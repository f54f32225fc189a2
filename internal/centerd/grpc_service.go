package centerd

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name
const ServiceName = "optimization.v1.OptimizationCenter"

const (
	methodCreateSession = "/" + ServiceName + "/CreateSession"
	methodDeleteSession = "/" + ServiceName + "/DeleteSession"
	methodUpdateParams  = "/" + ServiceName + "/UpdateParams"
	methodStartRun      = "/" + ServiceName + "/StartRun"
	methodResetRun      = "/" + ServiceName + "/ResetRun"
	methodGetSnapshot   = "/" + ServiceName + "/GetSnapshot"
	methodGetResult     = "/" + ServiceName + "/GetResult"
	methodWatchRun      = "/" + ServiceName + "/WatchRun"
)

// OptimizationCenterServer is the server API of the optimization center
// service. Requests and responses are google.protobuf.Struct messages.
type OptimizationCenterServer interface {
	CreateSession(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DeleteSession(context.Context, *structpb.Struct) (*structpb.Struct, error)
	UpdateParams(context.Context, *structpb.Struct) (*structpb.Struct, error)
	StartRun(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ResetRun(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetSnapshot(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetResult(context.Context, *structpb.Struct) (*structpb.Struct, error)
	WatchRun(*structpb.Struct, WatchRunServer) error
}

// WatchRunServer is the server side of the WatchRun stream
type WatchRunServer interface {
	Send(*structpb.Struct) error
	grpc.ServerStream
}

type watchRunServer struct {
	grpc.ServerStream
}

func (x *watchRunServer) Send(m *structpb.Struct) error {
	return x.ServerStream.SendMsg(m)
}

// RegisterOptimizationCenterServer registers srv on s
func RegisterOptimizationCenterServer(s grpc.ServiceRegistrar, srv OptimizationCenterServer) {
	s.RegisterService(&OptimizationCenterServiceDesc, srv)
}

type unaryMethod func(OptimizationCenterServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(fullMethod string, call unaryMethod) func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(OptimizationCenterServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(OptimizationCenterServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

func watchRunHandler(srv any, stream grpc.ServerStream) error {
	in := new(structpb.Struct)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(OptimizationCenterServer).WatchRun(in, &watchRunServer{stream})
}

// OptimizationCenterServiceDesc describes the optimization center service
var OptimizationCenterServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*OptimizationCenterServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "CreateSession", Handler: unaryHandler(methodCreateSession, OptimizationCenterServer.CreateSession)},
		{MethodName: "DeleteSession", Handler: unaryHandler(methodDeleteSession, OptimizationCenterServer.DeleteSession)},
		{MethodName: "UpdateParams", Handler: unaryHandler(methodUpdateParams, OptimizationCenterServer.UpdateParams)},
		{MethodName: "StartRun", Handler: unaryHandler(methodStartRun, OptimizationCenterServer.StartRun)},
		{MethodName: "ResetRun", Handler: unaryHandler(methodResetRun, OptimizationCenterServer.ResetRun)},
		{MethodName: "GetSnapshot", Handler: unaryHandler(methodGetSnapshot, OptimizationCenterServer.GetSnapshot)},
		{MethodName: "GetResult", Handler: unaryHandler(methodGetResult, OptimizationCenterServer.GetResult)},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "WatchRun",
			Handler:       watchRunHandler,
			ServerStreams: true,
		},
	},
	Metadata: "optimization/v1/center.proto",
}

// OptimizationCenterClient is the client API of the optimization center
// service
type OptimizationCenterClient struct {
	cc grpc.ClientConnInterface
}

// NewOptimizationCenterClient creates a client on cc
func NewOptimizationCenterClient(cc grpc.ClientConnInterface) *OptimizationCenterClient {
	return &OptimizationCenterClient{cc: cc}
}

func (c *OptimizationCenterClient) invoke(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *OptimizationCenterClient) CreateSession(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, methodCreateSession, in, opts...)
}

func (c *OptimizationCenterClient) DeleteSession(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, methodDeleteSession, in, opts...)
}

func (c *OptimizationCenterClient) UpdateParams(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, methodUpdateParams, in, opts...)
}

func (c *OptimizationCenterClient) StartRun(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, methodStartRun, in, opts...)
}

func (c *OptimizationCenterClient) ResetRun(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, methodResetRun, in, opts...)
}

func (c *OptimizationCenterClient) GetSnapshot(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, methodGetSnapshot, in, opts...)
}

func (c *OptimizationCenterClient) GetResult(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, methodGetResult, in, opts...)
}

// WatchRunClient is the client side of the WatchRun stream
type WatchRunClient interface {
	Recv() (*structpb.Struct, error)
	grpc.ClientStream
}

type watchRunClient struct {
	grpc.ClientStream
}

func (x *watchRunClient) Recv() (*structpb.Struct, error) {
	m := new(structpb.Struct)
	if err := x.ClientStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (c *OptimizationCenterClient) WatchRun(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (WatchRunClient, error) {
	stream, err := c.cc.NewStream(ctx, &OptimizationCenterServiceDesc.Streams[0], methodWatchRun, opts...)
	if err != nil {
		return nil, err
	}
	x := &watchRunClient{stream}
	if err := x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}
