package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "astro.bridge.v1.NativeBridge"

// NativeBridgeServer is the server API of the native bridge service.
// Every message is a BytesValue carrying a CBOR document.
type NativeBridgeServer interface {
	Initialize(context.Context, *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error)
	Call(context.Context, *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error)
	Operations(context.Context, *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error)
	Health(context.Context, *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error)
	Shutdown(context.Context, *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error)
}

type method func(NativeBridgeServer, context.Context, *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error)

func unary(name string, m method) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(wrapperspb.BytesValue)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return m(srv.(NativeBridgeServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/" + name}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return m(srv.(NativeBridgeServer), ctx, req.(*wrapperspb.BytesValue))
			})
		},
	}
}

// ServiceDesc describes the native bridge service.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*NativeBridgeServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("Initialize", NativeBridgeServer.Initialize),
		unary("Call", NativeBridgeServer.Call),
		unary("Operations", NativeBridgeServer.Operations),
		unary("Health", NativeBridgeServer.Health),
		unary("Shutdown", NativeBridgeServer.Shutdown),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "astro/bridge/v1/bridge.proto",
}

// RegisterNativeBridgeServer registers srv on s.
func RegisterNativeBridgeServer(s grpc.ServiceRegistrar, srv NativeBridgeServer) {
	s.RegisterService(&ServiceDesc, srv)
}

func fullMethod(name string) string {
	return "/" + ServiceName + "/" + name
}
