package grpc

import (
	"context"
	"errors"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/test/bufconn"
)

type fakeDB struct {
	down atomic.Bool
}

func (f *fakeDB) Ping(context.Context) error {
	if f.down.Load() {
		return errors.New("connection refused")
	}
	return nil
}

func startServer(t *testing.T, m *HealthMonitor) healthpb.HealthClient {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	srv := NewServer(m)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return healthpb.NewHealthClient(conn)
}

func check(c healthpb.HealthClient) (healthpb.HealthCheckResponse_ServingStatus, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	resp, err := c.Check(ctx, &healthpb.HealthCheckRequest{Service: ServiceName})
	if err != nil {
		return healthpb.HealthCheckResponse_UNKNOWN, err
	}
	return resp.GetStatus(), nil
}

func status(t *testing.T, c healthpb.HealthClient) healthpb.HealthCheckResponse_ServingStatus {
	t.Helper()
	s, err := check(c)
	require.NoError(t, err)
	return s
}

func reaches(c healthpb.HealthClient, want healthpb.HealthCheckResponse_ServingStatus) func() bool {
	return func() bool {
		s, err := check(c)
		return err == nil && s == want
	}
}

func TestHealthMonitor_NotServingUntilChecked(t *testing.T) {
	m := NewHealthMonitor(&fakeDB{}, time.Minute, zap.NewNop())
	client := startServer(t, m)

	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, status(t, client))

	m.Check(context.Background())
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, status(t, client))
}

func TestHealthMonitor_FollowsDatabase(t *testing.T) {
	db := &fakeDB{}
	m := NewHealthMonitor(db, 10*time.Millisecond, zap.NewNop())
	client := startServer(t, m)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go m.Run(ctx)

	require.Eventually(t, reaches(client, healthpb.HealthCheckResponse_SERVING), time.Second, 10*time.Millisecond)

	db.down.Store(true)
	require.Eventually(t, reaches(client, healthpb.HealthCheckResponse_NOT_SERVING), time.Second, 10*time.Millisecond)
}

func TestHealthMonitor_Shutdown(t *testing.T) {
	m := NewHealthMonitor(&fakeDB{}, time.Minute, zap.NewNop())
	client := startServer(t, m)
	m.Check(context.Background())

	m.Shutdown()
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, status(t, client))
}
