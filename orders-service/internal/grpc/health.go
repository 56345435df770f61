// Package grpc serves the orders service's gRPC health endpoint.
package grpc

import (
	"context"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

const ServiceName = "orders"

type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthMonitor keeps the "orders" status in step with the database.
type HealthMonitor struct {
	server   *health.Server
	db       Pinger
	interval time.Duration
	timeout  time.Duration
	logger   *zap.Logger
}

func NewHealthMonitor(db Pinger, interval time.Duration, logger *zap.Logger) *HealthMonitor {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
	return &HealthMonitor{
		server:   hs,
		db:       db,
		interval: interval,
		timeout:  2 * time.Second,
		logger:   logger.Named("health"),
	}
}

// NewServer returns a gRPC server exposing the health service and reflection.
func NewServer(m *HealthMonitor) *grpc.Server {
	s := grpc.NewServer()
	healthpb.RegisterHealthServer(s, m.server)
	reflection.Register(s)
	return s
}

// Check pings the database once and publishes the result.
func (m *HealthMonitor) Check(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	status := healthpb.HealthCheckResponse_SERVING
	if err := m.db.Ping(ctx); err != nil {
		m.logger.Warn("database ping failed", zap.Error(err))
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	m.server.SetServingStatus(ServiceName, status)
	return status
}

func (m *HealthMonitor) Run(ctx context.Context) {
	m.logger.Info("health monitor started", zap.Duration("interval", m.interval))
	defer m.logger.Info("health monitor stopped")

	m.Check(ctx)
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			m.Check(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// Shutdown reports NOT_SERVING for every service so clients drain first.
func (m *HealthMonitor) Shutdown() {
	m.server.Shutdown()
}
