package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("INSTANCE_ID", "")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, "bookstore", cfg.Mongo.Database)
	assert.Equal(t, 15*time.Minute, cfg.Redis.CacheTTL)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "orders-placed", cfg.Kafka.Topic)
	host, err := os.Hostname()
	require.NoError(t, err)
	assert.Equal(t, "storefront-carts-"+host, cfg.Kafka.GroupID)
	assert.Equal(t, "https://www.googleapis.com/books/v1", cfg.Catalog.URL)
	assert.Equal(t, 10*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 15*time.Second, cfg.SubmitTimeout)
	assert.Equal(t, 30*time.Minute, cfg.SessionIdleTTL)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("ENV", "production")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("ORDERS_URL", "http://orders:8081/")
	t.Setenv("SUBMIT_TIMEOUT", "3s")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.False(t, cfg.IsDevelopment())
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "http://orders:8081", cfg.Orders.URL)
	assert.Equal(t, 3*time.Second, cfg.SubmitTimeout)
}

func TestLoad_ConsumerGroupPerInstance(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")

	t.Setenv("INSTANCE_ID", "replica-a")
	a, err := Load(t.TempDir())
	require.NoError(t, err)

	t.Setenv("INSTANCE_ID", "replica-b")
	b, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "storefront-carts-replica-a", a.Kafka.GroupID)
	assert.Equal(t, "storefront-carts-replica-b", b.Kafka.GroupID)
}

func TestLoad_EnvFile(t *testing.T) {
	dir := t.TempDir()
	content := "JWT_SECRET=from-file\nMONGO_DB=books_test\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(content), 0o600))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.JWTSecret)
	assert.Equal(t, "books_test", cfg.Mongo.Database)
}

func TestLoad_RequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	_, err := Load(t.TempDir())
	assert.ErrorContains(t, err, "JWT_SECRET")
}

func TestLoad_RejectsBadDuration(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("SESSION_IDLE_TTL", "0s")

	_, err := Load(t.TempDir())
	assert.Error(t, err)
}
