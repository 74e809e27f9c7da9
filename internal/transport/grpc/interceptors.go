package grpcx

import (
	"context"
	"log/slog"
	"runtime/debug"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Вызов без собственного дедлайна получает этот: health-пробе хватает.
const defaultCallTimeout = 5 * time.Second

// UnaryServerInterceptor — дедлайн-guard, паника-рекавери и debug-тайминг.
func UnaryServerInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp any, err error) {
		started := time.Now()

		if _, ok := ctx.Deadline(); !ok {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, defaultCallTimeout)
			defer cancel()
		}

		defer func() {
			err = recoverToStatus(recover(), info.FullMethod, err)
			slog.Debug("grpc unary",
				slog.String("method", info.FullMethod),
				slog.Duration("dur", time.Since(started)),
				slog.Any("err", err))
		}()

		return handler(ctx, req)
	}
}

// StreamServerInterceptor — то же для стримов; дедлайн стримам не навязывается.
func StreamServerInterceptor() grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) (err error) {
		started := time.Now()

		defer func() {
			err = recoverToStatus(recover(), info.FullMethod, err)
			slog.Debug("grpc stream",
				slog.String("method", info.FullMethod),
				slog.Duration("dur", time.Since(started)),
				slog.Any("err", err))
		}()

		return handler(srv, ss)
	}
}

// recoverToStatus превращает панику хендлера в codes.Internal, не роняя процесс.
func recoverToStatus(p any, method string, err error) error {
	if p == nil {
		return err
	}
	slog.Error("grpc panic",
		slog.String("method", method),
		slog.Any("panic", p),
		slog.String("stack", string(debug.Stack())))
	return status.Error(codes.Internal, "internal error")
}
