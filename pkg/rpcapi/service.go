package rpcapi

import (
	"context"

	"google.golang.org/grpc"
)

// ServiceName is UpdateService's fully-qualified gRPC service name, matching
// proto/update/v1/update.proto's package+service.
const ServiceName = "update.v1.UpdateService"

func unaryHandler[Req, Resp any](
	method string,
	call func(*Server, context.Context, *Req) (*Resp, error),
) func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		s := srv.(*Server)
		req := new(Req)
		if err := decodeInto(dec, req); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(s, ctx, req)
		}
		// FullMethod drives the auth interceptor's capability lookup, so it
		// must match methodCapabilities' key shape exactly.
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: "/" + ServiceName + "/" + method,
		}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(s, ctx, req.(*Req))
		}
		return interceptor(ctx, req, info, handler)
	}
}

// ServiceDesc is the manually built grpc.ServiceDesc backing UpdateService;
// there is no protoc-generated stub in this repo (see proto/update/v1).
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*any)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "CreateVersion", Handler: unaryHandler("CreateVersion", (*Server).CreateVersion)},
		{MethodName: "EditVersion", Handler: unaryHandler("EditVersion", (*Server).EditVersion)},
		{MethodName: "FetchVersion", Handler: unaryHandler("FetchVersion", (*Server).FetchVersion)},
		{MethodName: "ListVersions", Handler: unaryHandler("ListVersions", (*Server).ListVersions)},
		{MethodName: "FetchUploads", Handler: unaryHandler("FetchUploads", (*Server).FetchUploads)},
		{MethodName: "StartUploadVersion", Handler: unaryHandler("StartUploadVersion", (*Server).StartUploadVersion)},
		{MethodName: "UploadVersionChunk", Handler: unaryHandler("UploadVersionChunk", (*Server).UploadVersionChunk)},
		{MethodName: "ProcessVersion", Handler: unaryHandler("ProcessVersion", (*Server).ProcessVersion)},
	},
	Metadata: "proto/update/v1/update.proto",
}

// RegisterUpdateServiceServer registers s against grpcServer.
func RegisterUpdateServiceServer(grpcServer *grpc.Server, s *Server) {
	grpcServer.RegisterService(&ServiceDesc, s)
}
