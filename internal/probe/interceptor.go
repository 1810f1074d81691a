package probe

import (
	"context"
	"log/slog"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// LoggingInterceptor returns a gRPC UnaryServerInterceptor that logs every
// call with its method, status code and duration.
//
// Successful calls are logged at debug level; any other code is logged at
// warn level together with the error.
func LoggingInterceptor() grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)

		code := status.Code(err)
		if code == codes.OK {
			slog.Debug("probe: grpc call", "method", info.FullMethod, "duration", time.Since(start))
		} else {
			slog.Warn("probe: grpc call failed",
				"method", info.FullMethod,
				"code", code.String(),
				"duration", time.Since(start),
				"err", err,
			)
		}
		return resp, err
	}
}
