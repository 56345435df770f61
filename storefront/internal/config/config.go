package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	HTTPPort    string
	Environment string
	LogLevel    string

	Mongo   MongoConfig
	Redis   RedisConfig
	Kafka   KafkaConfig
	Orders  OrdersConfig
	Catalog CatalogConfig

	JWTSecret      string
	RequestTimeout time.Duration
	SubmitTimeout  time.Duration
	SessionIdleTTL time.Duration
}

type MongoConfig struct {
	URI      string
	Database string
}

type RedisConfig struct {
	Addr     string
	CacheTTL time.Duration
}

// KafkaConfig.GroupID is KAFKA_GROUP suffixed with the instance id, so every
// storefront instance receives every order event.
type KafkaConfig struct {
	Brokers []string
	Topic   string
	GroupID string
}

// OrdersConfig points at the orders service. GRPCAddr is only used for
// health checks.
type OrdersConfig struct {
	URL      string
	GRPCAddr string
}

type CatalogConfig struct {
	URL    string
	APIKey string
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// Load reads an optional .env file from the given directories (the working
// directory when none are given) and the environment, over defaults.
func Load(paths ...string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("env")
	v.SetConfigName(".env")
	if len(paths) == 0 {
		paths = []string{"."}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	v.SetDefault("HTTP_PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("MONGO_URI", "mongodb://localhost:27017")
	v.SetDefault("MONGO_DB", "bookstore")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("CART_CACHE_TTL", "15m")
	v.SetDefault("KAFKA_BROKERS", "localhost:9092")
	v.SetDefault("KAFKA_TOPIC", "orders-placed")
	v.SetDefault("KAFKA_GROUP", "storefront-carts")
	v.SetDefault("INSTANCE_ID", "")
	v.SetDefault("ORDERS_URL", "http://localhost:8081")
	v.SetDefault("ORDERS_GRPC_ADDR", "localhost:9091")
	v.SetDefault("CATALOG_URL", "https://www.googleapis.com/books/v1")
	v.SetDefault("CATALOG_API_KEY", "")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("REQUEST_TIMEOUT", "10s")
	v.SetDefault("SUBMIT_TIMEOUT", "15s")
	v.SetDefault("SESSION_IDLE_TTL", "30m")

	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	instance, err := instanceID(v.GetString("INSTANCE_ID"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPPort:    v.GetString("HTTP_PORT"),
		Environment: v.GetString("ENV"),
		LogLevel:    v.GetString("LOG_LEVEL"),
		Mongo: MongoConfig{
			URI:      v.GetString("MONGO_URI"),
			Database: v.GetString("MONGO_DB"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			CacheTTL: v.GetDuration("CART_CACHE_TTL"),
		},
		Kafka: KafkaConfig{
			Brokers: splitList(v.GetString("KAFKA_BROKERS")),
			Topic:   v.GetString("KAFKA_TOPIC"),
			GroupID: v.GetString("KAFKA_GROUP") + "-" + instance,
		},
		Orders: OrdersConfig{
			URL:      strings.TrimRight(v.GetString("ORDERS_URL"), "/"),
			GRPCAddr: v.GetString("ORDERS_GRPC_ADDR"),
		},
		Catalog: CatalogConfig{
			URL:    strings.TrimRight(v.GetString("CATALOG_URL"), "/"),
			APIKey: strings.TrimSpace(v.GetString("CATALOG_API_KEY")),
		},
		JWTSecret:      v.GetString("JWT_SECRET"),
		RequestTimeout: v.GetDuration("REQUEST_TIMEOUT"),
		SubmitTimeout:  v.GetDuration("SUBMIT_TIMEOUT"),
		SessionIdleTTL: v.GetDuration("SESSION_IDLE_TTL"),
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.RequestTimeout <= 0 || cfg.SubmitTimeout <= 0 || cfg.SessionIdleTTL <= 0 {
		return nil, fmt.Errorf("timeouts must be positive durations")
	}
	return cfg, nil
}

// instanceID falls back to the hostname, which stays stable across restarts
// of the same instance and keeps its committed offsets.
func instanceID(configured string) (string, error) {
	if id := strings.TrimSpace(configured); id != "" {
		return id, nil
	}
	host, err := os.Hostname()
	if err != nil {
		return "", fmt.Errorf("resolve instance id: %w", err)
	}
	if host == "" {
		return "", errors.New("resolve instance id: empty hostname, set INSTANCE_ID")
	}
	return host, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
