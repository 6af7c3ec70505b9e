package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"customerSyncWs/internal/config"
	custport "customerSyncWs/internal/modules/customers/application/port"
	custusecase "customerSyncWs/internal/modules/customers/application/usecase"
	custinfra "customerSyncWs/internal/modules/customers/infrastructure"
	rtport "customerSyncWs/internal/modules/realtime/application/port"
	rtusecase "customerSyncWs/internal/modules/realtime/application/usecase"
	"customerSyncWs/internal/modules/realtime/infrastructure"
	transport "customerSyncWs/internal/modules/realtime/interface"
	"customerSyncWs/internal/platform/broker"
	"customerSyncWs/internal/platform/bus"
	"customerSyncWs/internal/platform/cache"
	"customerSyncWs/internal/shared/auth"
	"customerSyncWs/internal/shared/logging"
)

func main() {
	// Attempt to load variables from .env so local runs honour configuration tweaks.
	if err := godotenv.Overload(); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, ".env load warning: %v\n", err)
		}
	}
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load error: %v\n", err)
		os.Exit(1)
	}

	logFile, logger, err := setupLogging(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logging setup error: %v\n", err)
		os.Exit(1)
	}
	defer logFile.Close()
	slog.SetDefault(logger)
	slog.Info("logging initialized", slog.String("directory", cfg.Logging.Directory), slog.String("level", cfg.Logging.Level), slog.String("format", cfg.Logging.Format))

	// Optional infrastructure: sin Redis el servicio corre cache-less, sin
	// brokers el canal durable queda apagado.
	var customerCache custport.Cache = cache.Noop{}
	var redisCache *cache.Redis
	if cfg.Redis.Addr != "" {
		redisCache, err = cache.NewRedis(cache.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			slog.Error("redis unavailable, continuing without cache", slog.String("addr", cfg.Redis.Addr), slog.Any("error", err))
		} else {
			customerCache = redisCache
		}
	} else {
		slog.Info("REDIS_ADDR not set, cache disabled")
	}

	var durable rtport.DurableLog
	var producer *broker.Producer
	if len(cfg.Kafka.Brokers) > 0 {
		producer = broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.WriteTimeout)
		durable = producer
		slog.Info("kafka producer ready", slog.Any("brokers", cfg.Kafka.Brokers))
	} else {
		slog.Info("KAFKA_BROKERS not set, durable log disabled")
	}

	hub := infrastructure.NewHub()
	eventBus := bus.New()
	router := rtusecase.NewFanoutRouter(durable, eventBus, hub)

	store := custinfra.NewMemoryStore()
	service := custusecase.NewService(store, customerCache, router, cfg.Redis.TTL)

	var validator auth.TokenValidator
	if cfg.Security.JWTSecret != "" {
		validator = auth.NewJWTValidator(cfg.Security.JWTSecret)
	} else {
		slog.Warn("JWT_SECRET not set, token validation disabled")
	}
	commands := infrastructure.NewCommandProcessor(hub, &infrastructure.CustomerWriterAdapter{Service: service}, validator)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reaper := infrastructure.NewReaper(hub, cfg.Websocket.ReaperInterval)
	go reaper.Run(ctx)

	e := echo.New()
	e.Logger.SetOutput(log.Writer())
	e.GET("/ws", transport.NewWebsocketHandler(hub, commands, validator))
	e.GET("/health", transport.NewHealthHandler(transport.HealthDeps{
		Hub:          hub,
		CacheEnabled: redisCache != nil,
		CachePing: func() error {
			if redisCache == nil {
				return nil
			}
			pingCtx, pingCancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer pingCancel()
			return redisCache.Health(pingCtx)
		},
		LogEnabled: producer != nil,
	}))

	go func() {
		if serveErr := e.Start(":" + cfg.Server.Port); serveErr != nil {
			slog.Error("http server stopped", slog.Any("error", serveErr))
		}
	}()

	// Esperar señales
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	slog.Info("shutting down")

	reaper.Stop()
	cancel()
	hub.Shutdown()
	if producer != nil {
		if cerr := producer.Close(); cerr != nil {
			slog.Warn("kafka producer close", slog.Any("error", cerr))
		}
	}
	if redisCache != nil {
		if cerr := redisCache.Close(); cerr != nil {
			slog.Warn("redis close", slog.Any("error", cerr))
		}
	}
	e.Close()
}

func setupLogging(cfg config.LoggingConfig) (*os.File, *slog.Logger, error) {
	dir := cfg.Directory
	if dir == "" {
		dir = "./logs"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("create log dir: %w", err)
	}
	fileName := filepath.Join(dir, time.Now().UTC().Format("2006-01-02")+".log")
	file, err := os.OpenFile(fileName, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}

	writer := io.MultiWriter(os.Stdout, file)
	logger := logging.New(writer, logging.Config{
		Level:     cfg.Level,
		Format:    cfg.Format,
		AddSource: true,
	})
	log.SetOutput(writer)
	log.SetFlags(0)
	log.SetPrefix("")

	return file, logger, nil
}
