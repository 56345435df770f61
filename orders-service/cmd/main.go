package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.uber.org/zap"

	"github.com/fjod/go_bookstore/orders-service/internal/config"
	ordersgrpc "github.com/fjod/go_bookstore/orders-service/internal/grpc"
	h "github.com/fjod/go_bookstore/orders-service/internal/http"
	"github.com/fjod/go_bookstore/orders-service/internal/publisher"
	"github.com/fjod/go_bookstore/orders-service/internal/repository"
	"github.com/fjod/go_bookstore/orders-service/internal/service"
	"github.com/fjod/go_bookstore/pkg/auth"
	"github.com/fjod/go_bookstore/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	l, err := logger.New("orders-service", cfg.Environment, cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = l.Sync() }()
	zap.ReplaceGlobals(l)

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{},
	))

	var wg sync.WaitGroup
	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// Database setup
	repo, err := repository.NewRepository(cfg.Database.Credentials())
	if err != nil {
		l.Fatal("Failed to connect to database", zap.String("driver", cfg.Database.Driver), zap.Error(err))
	}
	defer repo.Close()

	if err := repo.RunMigrations(); err != nil {
		l.Fatal("Failed to run migrations", zap.Error(err))
	}
	l.Info("Database migrations completed", zap.String("driver", cfg.Database.Driver))

	// Outbox publisher
	outbox := publisher.NewOutboxPoller(repo, l, cfg.Kafka.OutboxInterval, cfg.Kafka.OutboxBatch, cfg.Kafka.Topic, cfg.Kafka.Brokers...)
	wg.Add(1)
	go func() {
		defer wg.Done()
		outbox.Run(ctx)
	}()

	// gRPC health
	healthMonitor := ordersgrpc.NewHealthMonitor(repo, 5*time.Second, l)
	wg.Add(1)
	go func() {
		defer wg.Done()
		healthMonitor.Run(ctx)
	}()

	lis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
	if err != nil {
		l.Fatal("Failed to listen", zap.String("port", cfg.GRPCPort), zap.Error(err))
	}
	grpcServer := ordersgrpc.NewServer(healthMonitor)
	go func() {
		l.Info("gRPC health listening", zap.String("port", cfg.GRPCPort))
		if err := grpcServer.Serve(lis); err != nil {
			l.Fatal("Failed to serve gRPC", zap.Error(err))
		}
	}()

	// HTTP API
	issuer := auth.NewIssuer(cfg.JWTSecret, cfg.JWTTTL)
	router := h.NewRouter(h.RouterConfig{
		Logger:         l,
		Verifier:       issuer,
		Accounts:       service.NewAccountService(repo, issuer, l),
		Orders:         service.NewOrderService(repo, l),
		DB:             repo,
		RequestTimeout: cfg.RequestTimeout,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           otelhttp.NewHandler(router, "orders-service"),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	go func() {
		l.Info("Orders service starting", zap.String("port", cfg.HTTPPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.Fatal("server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	l.Info("Shutting down orders service...")
	healthMonitor.Shutdown()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		l.Error("server forced to shutdown", zap.Error(err))
	}
	grpcServer.GracefulStop()
	stop()

	doneChan := make(chan struct{})
	go func() {
		wg.Wait()
		close(doneChan)
	}()

	select {
	case <-doneChan:
		l.Info("Background workers stopped cleanly")
	case <-shutdownCtx.Done():
		l.Warn("Background workers didn't stop in time")
	}

	if err := outbox.Close(); err != nil {
		l.Warn("failed to close kafka writer", zap.Error(err))
	}
	l.Info("Orders service stopped")
}
