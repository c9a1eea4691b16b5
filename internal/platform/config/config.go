package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is centralized process configuration.
// Keep infra values here and pass typed config into builders.
type Config struct {
	ServiceName string
	HTTPPort    string
	PostgresDSN string
	AutoMigrate bool

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	EventBus      string

	PolicyFile      string
	CatalogFile     string
	HaltOnViolation bool

	WorkerPollInterval time.Duration
	OutboxBatchSize    int
	LogLevel           string
}

const (
	EventBusMemory = "memory"
	EventBusRedis  = "redis"
)

// Load reads an optional powertrack.yaml (from CONFIG_FILE, the working
// directory or /etc/powertrack) and lets environment variables override it.
// Keys map to upper-cased env names, e.g. postgres_dsn -> POSTGRES_DSN.
func Load() (Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("powertrack")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/powertrack")
	}
	v.AutomaticEnv()

	v.SetDefault("service_name", "powertrack")
	v.SetDefault("http_port", "8080")
	v.SetDefault("postgres_dsn", "")
	v.SetDefault("auto_migrate", true)
	v.SetDefault("redis_addr", "")
	v.SetDefault("redis_password", "")
	v.SetDefault("redis_db", 0)
	v.SetDefault("event_bus", EventBusMemory)
	v.SetDefault("policy_file", "")
	v.SetDefault("catalog_file", "")
	v.SetDefault("halt_on_violation", true)
	v.SetDefault("worker_poll_interval", "2s")
	v.SetDefault("outbox_batch_size", 100)
	v.SetDefault("log_level", "info")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := Config{
		ServiceName:        strings.TrimSpace(v.GetString("service_name")),
		HTTPPort:           strings.TrimSpace(v.GetString("http_port")),
		PostgresDSN:        strings.TrimSpace(v.GetString("postgres_dsn")),
		AutoMigrate:        v.GetBool("auto_migrate"),
		RedisAddr:          strings.TrimSpace(v.GetString("redis_addr")),
		RedisPassword:      v.GetString("redis_password"),
		RedisDB:            v.GetInt("redis_db"),
		EventBus:           strings.ToLower(strings.TrimSpace(v.GetString("event_bus"))),
		PolicyFile:         strings.TrimSpace(v.GetString("policy_file")),
		CatalogFile:        strings.TrimSpace(v.GetString("catalog_file")),
		HaltOnViolation:    v.GetBool("halt_on_violation"),
		WorkerPollInterval: v.GetDuration("worker_poll_interval"),
		OutboxBatchSize:    v.GetInt("outbox_batch_size"),
		LogLevel:           strings.ToLower(strings.TrimSpace(v.GetString("log_level"))),
	}
	if cfg.WorkerPollInterval <= 0 {
		cfg.WorkerPollInterval = 2 * time.Second
	}
	switch cfg.EventBus {
	case EventBusMemory:
	case EventBusRedis:
		if cfg.RedisAddr == "" {
			return Config{}, errors.New("event_bus=redis requires redis_addr")
		}
	default:
		return Config{}, fmt.Errorf("unknown event_bus %q", cfg.EventBus)
	}
	return cfg, nil
}
