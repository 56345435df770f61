package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/fjod/go_bookstore/orders-service/internal/repository"
)

type Config struct {
	HTTPPort    string
	GRPCPort    string
	Environment string
	LogLevel    string

	Database DatabaseConfig
	Kafka    KafkaConfig

	JWTSecret      string
	JWTTTL         time.Duration
	RequestTimeout time.Duration
}

type DatabaseConfig struct {
	Driver         string
	Host           string
	Port           int
	User           string
	Password       string
	Name           string
	SSLMode        string
	Path           string
	MigrationsPath string
}

type KafkaConfig struct {
	Brokers        []string
	Topic          string
	OutboxInterval time.Duration
	OutboxBatch    int
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func (d DatabaseConfig) Credentials() *repository.Credentials {
	return &repository.Credentials{
		Driver:            d.Driver,
		Host:              d.Host,
		Port:              d.Port,
		User:              d.User,
		Password:          d.Password,
		DBName:            d.Name,
		SSLMode:           d.SSLMode,
		Path:              d.Path,
		MigrationsDirPath: d.MigrationsPath,
	}
}

// Load reads .env and the environment over defaults. An empty
// MIGRATIONS_PATH runs the migrations compiled into the binary.
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

	v.SetDefault("HTTP_PORT", "8081")
	v.SetDefault("GRPC_PORT", "9091")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DB_DRIVER", repository.DriverPostgres)
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "bookstore")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_PATH", "orders.db")
	v.SetDefault("MIGRATIONS_PATH", "")
	v.SetDefault("KAFKA_BROKERS", "localhost:9092")
	v.SetDefault("KAFKA_TOPIC", "orders-placed")
	v.SetDefault("OUTBOX_INTERVAL", "2s")
	v.SetDefault("OUTBOX_BATCH", 100)
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_TTL", "24h")
	v.SetDefault("REQUEST_TIMEOUT", "10s")

	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := &Config{
		HTTPPort:    v.GetString("HTTP_PORT"),
		GRPCPort:    v.GetString("GRPC_PORT"),
		Environment: v.GetString("ENV"),
		LogLevel:    v.GetString("LOG_LEVEL"),
		Database: DatabaseConfig{
			Driver:         strings.ToLower(v.GetString("DB_DRIVER")),
			Host:           v.GetString("DB_HOST"),
			Port:           v.GetInt("DB_PORT"),
			User:           v.GetString("DB_USER"),
			Password:       v.GetString("DB_PASSWORD"),
			Name:           v.GetString("DB_NAME"),
			SSLMode:        v.GetString("DB_SSLMODE"),
			Path:           v.GetString("DB_PATH"),
			MigrationsPath: v.GetString("MIGRATIONS_PATH"),
		},
		Kafka: KafkaConfig{
			Topic:          v.GetString("KAFKA_TOPIC"),
			OutboxInterval: v.GetDuration("OUTBOX_INTERVAL"),
			OutboxBatch:    v.GetInt("OUTBOX_BATCH"),
		},
		JWTSecret:      v.GetString("JWT_SECRET"),
		JWTTTL:         v.GetDuration("JWT_TTL"),
		RequestTimeout: v.GetDuration("REQUEST_TIMEOUT"),
	}
	for _, b := range strings.Split(v.GetString("KAFKA_BROKERS"), ",") {
		if b = strings.TrimSpace(b); b != "" {
			cfg.Kafka.Brokers = append(cfg.Kafka.Brokers, b)
		}
	}

	switch {
	case cfg.JWTSecret == "":
		return nil, fmt.Errorf("JWT_SECRET is required")
	case cfg.Database.Driver != repository.DriverPostgres && cfg.Database.Driver != repository.DriverSQLite:
		return nil, fmt.Errorf("DB_DRIVER must be %q or %q, got %q", repository.DriverPostgres, repository.DriverSQLite, cfg.Database.Driver)
	case cfg.JWTTTL <= 0 || cfg.RequestTimeout <= 0 || cfg.Kafka.OutboxInterval <= 0:
		return nil, fmt.Errorf("JWT_TTL, REQUEST_TIMEOUT and OUTBOX_INTERVAL must be positive")
	case cfg.Kafka.OutboxBatch <= 0:
		return nil, fmt.Errorf("OUTBOX_BATCH must be positive")
	}
	return cfg, nil
}
