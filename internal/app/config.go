package app

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Режимы хранилища.
const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

// Config описывает настройки запуска сервиса.
type Config struct {
	// HTTPAddr — адрес REST API.
	HTTPAddr string
	// MetricsAddr — адрес служебного сервера (/metrics, /healthz, /livez, /readyz).
	MetricsAddr string

	// Storage — memory либо postgres.
	Storage     string
	PostgresDSN string

	// KafkaBrokers включает публикацию checkout-событий; пустой список —
	// outbox копится без воркера.
	KafkaBrokers []string
	EventsTopic  string

	// RedisAddr включает read-through кэш корзин; пусто — кэш выключен.
	RedisAddr string

	OutboxPollInterval time.Duration
}

// DefaultConfig возвращает конфигурацию для локального запуска.
func DefaultConfig() Config {
	return Config{
		HTTPAddr:           ":8080",
		MetricsAddr:        ":9090",
		Storage:            StorageMemory,
		EventsTopic:        "",
		OutboxPollInterval: time.Second,
	}
}

// ReadConfigFromEnv накладывает переменные окружения CARTSVC_* поверх дефолтов.
func ReadConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()

	if v := strings.TrimSpace(os.Getenv("CARTSVC_HTTP_ADDR")); v != "" {
		cfg.HTTPAddr = v
	}
	if v := strings.TrimSpace(os.Getenv("CARTSVC_METRICS_ADDR")); v != "" {
		cfg.MetricsAddr = v
	}
	if v := strings.TrimSpace(os.Getenv("CARTSVC_STORAGE")); v != "" {
		cfg.Storage = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv("CARTSVC_POSTGRES_DSN")); v != "" {
		cfg.PostgresDSN = v
	}
	if v := strings.TrimSpace(os.Getenv("CARTSVC_KAFKA_BROKERS")); v != "" {
		for _, broker := range strings.Split(v, ",") {
			if broker = strings.TrimSpace(broker); broker != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, broker)
			}
		}
	}
	if v := strings.TrimSpace(os.Getenv("CARTSVC_EVENTS_TOPIC")); v != "" {
		cfg.EventsTopic = v
	}
	if v := strings.TrimSpace(os.Getenv("CARTSVC_REDIS_ADDR")); v != "" {
		cfg.RedisAddr = v
	}
	if v := strings.TrimSpace(os.Getenv("CARTSVC_OUTBOX_POLL_INTERVAL")); v != "" {
		interval, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("parse CARTSVC_OUTBOX_POLL_INTERVAL: %w", err)
		}
		cfg.OutboxPollInterval = interval
	}

	return cfg, cfg.Validate()
}

// Validate проверяет согласованность конфигурации.
func (c Config) Validate() error {
	switch c.Storage {
	case StorageMemory:
	case StoragePostgres:
		if strings.TrimSpace(c.PostgresDSN) == "" {
			return fmt.Errorf("postgres storage requires CARTSVC_POSTGRES_DSN")
		}
	default:
		return fmt.Errorf("unsupported storage %q (use memory|postgres)", c.Storage)
	}
	return nil
}
