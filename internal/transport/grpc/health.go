package grpcx

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// RegisterHealth поднимает стандартный grpc health-сервис и фоновую пробу
// базы. Это замена минутному liveness-крону исходной системы: проба ничего
// не удаляет, только отвечает на Check.
func RegisterHealth(ctx context.Context, srv *grpc.Server, pool *pgxpool.Pool, every time.Duration) *health.Server {
	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)

	if every <= 0 {
		every = time.Minute
	}

	go func() {
		ticker := time.NewTicker(every)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				hs.Shutdown()
				return
			case <-ticker.C:
				status := healthpb.HealthCheckResponse_SERVING
				if err := pool.Ping(ctx); err != nil {
					status = healthpb.HealthCheckResponse_NOT_SERVING
				}
				hs.SetServingStatus("", status)
			}
		}
	}()

	return hs
}
