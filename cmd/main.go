package main

import (
	"context"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/oshaberi/chat-service/config"
	"github.com/oshaberi/chat-service/internal/broadcast"
	"github.com/oshaberi/chat-service/internal/postgres"
	"github.com/oshaberi/chat-service/internal/reaper"
	"github.com/oshaberi/chat-service/internal/render"
	"github.com/oshaberi/chat-service/internal/security"
	"github.com/oshaberi/chat-service/internal/service"
	grpcx "github.com/oshaberi/chat-service/internal/transport/grpc"
	httpx "github.com/oshaberi/chat-service/internal/transport/http"
	"github.com/oshaberi/chat-service/internal/transport/ws"
	"github.com/oshaberi/chat-service/pkg/logger"

	"google.golang.org/grpc"
)

func main() {
	// --- config ---
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger.Init(logger.Config{
		Env:       logger.Env(cfg.Logging.Env),
		Service:   cfg.Logging.Service,
		Version:   cfg.Logging.Version,
		Backend:   logger.Backend(cfg.Logging.Backend),
		AddSource: cfg.Logging.AddSource,
		Debug:     cfg.Logging.Debug,
	})
	slog.Info("starting chat-service",
		"env", cfg.Logging.Env, "version", cfg.Logging.Version)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// --- postgres ---
	pool, err := postgres.NewPool(ctx, postgres.Config{
		DSN:             cfg.Postgres.DSN,
		ApplicationName: cfg.Logging.Service,
	})
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	// --- repos ---
	userRepo := postgres.NewUserRepository(pool)
	roomRepo := postgres.NewRoomRepository(pool)
	chatRoomRepo := postgres.NewChatRoomRepository(pool)
	messageRepo := postgres.NewMessageRepository(pool)
	articleRepo := postgres.NewArticleRepository(pool)

	// --- hub, renderer ---
	hub := broadcast.NewHub()
	rnd := render.New()

	// --- services ---
	userSvc := service.NewUserService(userRepo, cfg.Chat.GuestNamePrefix)
	roomSvc := service.NewRoomService(roomRepo)
	messageSvc := service.NewMessageService(messageRepo, hub, rnd, cfg.Chat.MaxMessageLen)
	chatRoomSvc := service.NewChatRoomService(chatRoomRepo, hub, rnd,
		cfg.Chat.AnnouncementsEnabled, cfg.Chat.MaxMessageLen)
	articleSvc := service.NewArticleService(articleRepo, roomRepo)

	// --- WS & HTTP ---
	wsServer := ws.NewServer(hub, userSvc, roomSvc, messageSvc, chatRoomSvc)
	signer := security.NewGuestSigner([]byte(cfg.Session.Secret), cfg.Session.Issuer, cfg.SessionTTL())
	handler := httpx.NewHandler(roomSvc, userSvc, messageSvc, chatRoomSvc, articleSvc)
	router := httpx.NewRouter(handler, signer, userSvc, wsServer)
	httpSrv := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- reaper ---
	if cfg.Reaper.Enabled {
		rp := reaper.New(reaper.Config{
			RoomCron: cfg.Reaper.RoomCron,
			UserCron: cfg.Reaper.UserCron,
			RoomTTL:  cfg.ReaperRoomTTL(),
			UserTTL:  cfg.ReaperUserTTL(),
		}, roomRepo, userRepo)
		if err := rp.Start(ctx); err != nil {
			log.Fatalf("reaper: %v", err)
		}
	}

	// --- gRPC (health) ---
	grpcServer := grpc.NewServer(
		grpc.ChainUnaryInterceptor(grpcx.UnaryServerInterceptor()),
		grpc.ChainStreamInterceptor(grpcx.StreamServerInterceptor()),
	)
	grpcx.RegisterHealth(ctx, grpcServer, pool, time.Minute)

	// --- run both servers ---
	errCh := make(chan error, 2)

	go func() {
		slog.Info("http listen", "addr", cfg.HTTP.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	go func() {
		lis, err := net.Listen("tcp", cfg.GRPC.Addr)
		if err != nil {
			errCh <- err
			return
		}
		slog.Info("grpc listen", "addr", cfg.GRPC.Addr)
		if err := grpcServer.Serve(lis); err != nil {
			errCh <- err
		}
	}()

	// --- graceful shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		slog.Info("shutdown signal", "sig", sig)
	case err := <-errCh:
		slog.Error("server error", "err", err)
	}

	cancel()

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	grpcServer.GracefulStop()
	_ = httpSrv.Shutdown(ctxShutdown)
	slog.Info("stopped")
}
