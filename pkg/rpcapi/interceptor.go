package rpcapi

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/nextmu/updateservice/internal/logger"
	"github.com/nextmu/updateservice/pkg/api/auth"
	"github.com/nextmu/updateservice/pkg/errs"
)

// methodCapabilities maps each RPC's full method name to the capability it
// requires, mirroring the HTTP surface's route gating. StartUploadVersion,
// UploadVersionChunk and FetchUploads have no HTTP counterpart; they are
// manager-level operations and are gated the same as version mutation.
var methodCapabilities = map[string]string{
	"/update.v1.UpdateService/CreateVersion":       "update:edit",
	"/update.v1.UpdateService/EditVersion":         "update:edit",
	"/update.v1.UpdateService/ProcessVersion":      "update:edit",
	"/update.v1.UpdateService/StartUploadVersion":  "update:edit",
	"/update.v1.UpdateService/UploadVersionChunk":  "update:edit",
	"/update.v1.UpdateService/FetchUploads":        "update:edit",
	"/update.v1.UpdateService/FetchVersion":        "update:view",
	"/update.v1.UpdateService/ListVersions":        "update:view",
}

// UnaryAuthInterceptor builds a grpc.UnaryServerInterceptor that introspects
// the caller's bearer token against the capability methodCapabilities names
// for the invoked method.
func UnaryAuthInterceptor(authenticator *auth.Authenticator) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		capability, ok := methodCapabilities[info.FullMethod]
		if !ok {
			return handler(ctx, req)
		}
		if err := authenticator.Authenticate(ctx, bearerTokenFromMD(ctx), capability); err != nil {
			return nil, toGRPCError(err)
		}
		return handler(ctx, req)
	}
}

// UnaryErrorInterceptor maps handler errors through pkg/errs' gRPC code
// table, so rpcapi and the HTTP surface report the same failure taxonomy.
func UnaryErrorInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		resp, err := handler(ctx, req)
		if err != nil {
			return nil, toGRPCError(err)
		}
		return resp, nil
	}
}

func toGRPCError(err error) error {
	if _, ok := status.FromError(err); ok {
		return err
	}
	e := errs.AsError(err)
	if e.Kind == errs.Internal {
		logger.Error("rpcapi: internal error", "error", e.Cause)
	}
	return status.Error(errs.GRPCCode(e), e.Message)
}

func bearerTokenFromMD(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	values := md.Get("authorization")
	if len(values) == 0 {
		return ""
	}
	const prefix = "Bearer "
	v := values[0]
	if len(v) > len(prefix) && v[:len(prefix)] == prefix {
		return v[len(prefix):]
	}
	return v
}
