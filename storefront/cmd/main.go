package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.uber.org/zap"

	"github.com/fjod/go_bookstore/pkg/auth"
	"github.com/fjod/go_bookstore/pkg/logger"
	"github.com/fjod/go_bookstore/storefront/internal/backend"
	c "github.com/fjod/go_bookstore/storefront/internal/cache"
	"github.com/fjod/go_bookstore/storefront/internal/catalog"
	"github.com/fjod/go_bookstore/storefront/internal/config"
	h "github.com/fjod/go_bookstore/storefront/internal/http"
	"github.com/fjod/go_bookstore/storefront/internal/poller"
	"github.com/fjod/go_bookstore/storefront/internal/pricing"
	"github.com/fjod/go_bookstore/storefront/internal/repository"
	"github.com/fjod/go_bookstore/storefront/internal/session"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	l, err := logger.New("storefront", cfg.Environment, cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = l.Sync() }()
	zap.ReplaceGlobals(l)

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{},
	))

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// MongoDB
	mongoDB, err := repository.ConnectMongoDB(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
	if err != nil {
		l.Fatal("Failed to connect to MongoDB", zap.Error(err))
	}
	defer func() { _ = mongoDB.Client().Disconnect(context.Background()) }()

	repo := repository.NewMongoRepository(mongoDB)
	if err := repository.EnsureIndexes(ctx, repo); err != nil {
		l.Fatal("Failed to create cart indexes", zap.Error(err))
	}
	l.Info("Connected to MongoDB", zap.String("database", cfg.Mongo.Database))

	// Redis
	redisClient := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		l.Fatal("Redis connection failed", zap.Error(err))
	}
	l.Info("Redis ping succeeded", zap.String("addr", cfg.Redis.Addr))

	cartCache := c.NewRedisCache(redisClient, cfg.Redis.CacheTTL)
	resolver := pricing.NewResolver(pricing.NewRedisMemo(redisClient), l.Named("pricing"))

	// Upstreams
	catalogClient := catalog.NewClient(cfg.Catalog.URL, cfg.Catalog.APIKey, cfg.RequestTimeout, l.Named("catalog"))
	ordersClient := backend.NewClient(cfg.Orders.URL, cfg.SubmitTimeout, l.Named("orders"))

	ordersHealth, err := backend.NewHealthChecker(cfg.Orders.GRPCAddr)
	if err != nil {
		l.Fatal("Failed to create orders health client", zap.Error(err))
	}
	defer ordersHealth.Close()

	sessions := session.NewService(repo, cartCache, resolver, catalogClient, ordersClient, l.Named("session"),
		session.WithIdleTTL(cfg.SessionIdleTTL),
		session.WithSubmitTimeout(cfg.SubmitTimeout),
	)
	go sessions.Run(ctx)

	orderEvents := poller.NewPoller(sessions, l.Named("poller"), cfg.Kafka.Topic, cfg.Kafka.GroupID, cfg.Kafka.Brokers...)
	defer orderEvents.Close()
	go orderEvents.Run(ctx)

	router := h.NewRouter(h.RouterConfig{
		Logger:   l,
		Verifier: auth.NewIssuer(cfg.JWTSecret, 0),
		Sessions: sessions,
		Catalog:  catalogClient,
		Accounts: ordersClient,
		Readiness: map[string]h.Check{
			"mongo":  repo.Ping,
			"redis":  cartCache.Ping,
			"orders": ordersHealth.Check,
		},
		RequestTimeout: cfg.RequestTimeout,
		SubmitTimeout:  cfg.SubmitTimeout,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           otelhttp.NewHandler(router, "storefront"),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		l.Info("Storefront starting", zap.String("port", cfg.HTTPPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.Fatal("server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	l.Info("shutting down storefront...")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		l.Error("server forced to shutdown", zap.Error(err))
	}
	l.Info("storefront stopped")
}
