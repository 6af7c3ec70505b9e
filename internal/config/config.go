package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config agrupa toda la configuración del proceso, cargada desde el entorno.
type Config struct {
	Server    ServerConfig
	Kafka     KafkaConfig
	Redis     RedisConfig
	Security  SecurityConfig
	Websocket WebsocketConfig
	Logging   LoggingConfig
}

type ServerConfig struct {
	Port string
}

type KafkaConfig struct {
	// Brokers empty means the durable log channel is disabled.
	Brokers      []string
	WriteTimeout time.Duration
}

type RedisConfig struct {
	// Addr empty means the service runs cache-less.
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

type SecurityConfig struct {
	JWTSecret string
}

type WebsocketConfig struct {
	SendBuffer     int
	ReaperInterval time.Duration
}

type LoggingConfig struct {
	Directory string
	Level     string
	Format    string
}

// Load reads the environment once at startup. Optional infrastructure
// (Kafka, Redis) is simply absent from the result when not configured.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port: envOr("PORT", "8080"),
		},
		Kafka: KafkaConfig{
			Brokers:      brokerList(),
			WriteTimeout: 5 * time.Second,
		},
		Redis: RedisConfig{
			Addr:     strings.TrimSpace(os.Getenv("REDIS_ADDR")),
			Password: os.Getenv("REDIS_PASSWORD"),
		},
		Security: SecurityConfig{
			JWTSecret: os.Getenv("JWT_SECRET"),
		},
		Websocket: WebsocketConfig{
			SendBuffer:     16,
			ReaperInterval: 30 * time.Second,
		},
		Logging: LoggingConfig{
			Directory: envOr("LOG_DIR", "./logs"),
			Level:     envOr("LOG_LEVEL", "info"),
			Format:    envOr("LOG_FORMAT", "text"),
		},
	}

	if raw := os.Getenv("REDIS_DB"); raw != "" {
		db, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("REDIS_DB: %w", err)
		}
		cfg.Redis.DB = db
	}
	ttl, err := envDuration("CACHE_TTL", 15*time.Minute)
	if err != nil {
		return nil, err
	}
	cfg.Redis.TTL = ttl

	interval, err := envDuration("WS_REAPER_INTERVAL", cfg.Websocket.ReaperInterval)
	if err != nil {
		return nil, err
	}
	cfg.Websocket.ReaperInterval = interval

	if raw := os.Getenv("WS_SEND_BUFFER"); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil || size <= 0 {
			return nil, fmt.Errorf("WS_SEND_BUFFER: invalid value %q", raw)
		}
		cfg.Websocket.SendBuffer = size
	}

	return cfg, nil
}

// brokerList honours KAFKA_BROKERS (comma separated) with KAFKA_BROKER as
// the legacy single-host fallback.
func brokerList() []string {
	raw := os.Getenv("KAFKA_BROKERS")
	if strings.TrimSpace(raw) == "" {
		raw = os.Getenv("KAFKA_BROKER")
	}
	var brokers []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			brokers = append(brokers, part)
		}
	}
	return brokers
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s: must be positive", key)
	}
	return d, nil
}
