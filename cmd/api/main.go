package main

// @title Location Lookup API
// @version 1.0.0
// @description Разрешение названий и координат в города, регионы и объекты.
// @description Поиск выполняет Elasticsearch или PostgreSQL, ответы кешируются по отпечатку запроса.

// @contact.name API Support

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /
// @schemes http https

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/location-lookup/docs"
	"github.com/location-lookup/internal/bootstrap"
	"github.com/location-lookup/internal/config"
	httpDelivery "github.com/location-lookup/internal/delivery/http"
	"github.com/location-lookup/internal/delivery/http/handler"
	"github.com/location-lookup/internal/domain/repository"
	"github.com/location-lookup/internal/infrastructure/search"
	"github.com/location-lookup/internal/pkg/logger"
	"github.com/location-lookup/internal/pkg/metrics"
	"github.com/location-lookup/internal/pkg/validator"
	"github.com/location-lookup/internal/repository/cache"
	"github.com/location-lookup/internal/repository/kafka"
	redisRepo "github.com/location-lookup/internal/repository/redis"
	"github.com/location-lookup/internal/usecase"
	"github.com/location-lookup/internal/worker"
	"github.com/location-lookup/internal/worker/events"
	"go.uber.org/zap"
)

const (
	// requestTimeoutFactor - бюджет HTTP-запроса в таймаутах бэкенда: две попытки и запас
	requestTimeoutFactor = 3
	shutdownTimeout      = 30 * time.Second
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// 2. Initialize logger
	log, err := logger.New(cfg.Log.Level, cfg.Server.Env)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer log.Sync()

	log.Info("Starting Location Lookup",
		zap.String("env", cfg.Server.Env),
		zap.String("backend", cfg.Search.Backend),
		zap.String("events_sink", cfg.Events.Sink),
	)

	if err := validator.RegisterSupportedLocales(cfg.Query.Locales); err != nil {
		log.Fatal("Failed to register locale validation", zap.Error(err))
	}
	mt := metrics.NewMetrics()

	// 3. Search backend
	backend, closeBackend, err := bootstrap.NewSearchBackend(cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize search backend", zap.Error(err))
	}
	defer func() {
		if err := closeBackend(); err != nil {
			log.Error("Failed to close search backend", zap.Error(err))
		}
	}()
	client := search.NewClient(backend, &cfg.Search, mt, log)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := client.Ping(ctx, 5*time.Second); err != nil {
		// бэкенд может подняться позже; /readyz покажет состояние
		log.Warn("Search backend is not reachable yet", zap.Error(err))
	}
	cancel()

	// 4. Redis: L2 кеш и/или стрим событий
	var redisClient *cache.Redis
	if cfg.Cache.RedisEnabled || cfg.Events.Sink == config.EventsSinkRedis {
		redisClient, err = cache.NewRedis(cfg, log)
		if err != nil {
			log.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				log.Error("Failed to close Redis connection", zap.Error(err))
			}
		}()
		log.Info("Redis connected")
	}

	// 5. Resolution cache
	memory := cache.NewMemoryCache(cfg.Cache.MaxEntries, cfg.Cache.Shards, cache.WithMetrics(mt))
	var resolutionCache repository.ResolutionCache = memory
	if cfg.Cache.RedisEnabled {
		resolutionCache = cache.NewTieredCache(memory, cache.NewRedisStore(redisClient), mt, log)
	}

	// 6. Resolution events
	manager := worker.NewWorkerManager(shutdownTimeout, log)
	var emitter usecase.EventEmitter
	if sink := eventSink(cfg, redisClient, log); sink != nil {
		defer func() {
			if err := sink.Close(); err != nil {
				log.Error("Failed to close event sink", zap.Error(err))
			}
		}()
		publisher := events.NewPublisher(sink, cfg.Events.Buffer, mt, log)
		manager.Register(publisher)
		emitter = publisher
	}

	// 7. Use cases and handlers
	resolverUC := bootstrap.NewResolver(cfg, client, resolutionCache, emitter, mt, log)
	cityUC := usecase.NewCityUseCase(resolverUC, &cfg.City, cfg.Query.MaxRadiusKm, log)

	requestTimeout := requestTimeoutFactor * cfg.Search.Timeout
	server := httpDelivery.NewServer(
		cfg,
		log,
		handler.NewLocationHandler(resolverUC, requestTimeout, log),
		handler.NewCityHandler(cityUC, requestTimeout, log),
		handler.NewHealthHandler(client, cfg.Search.Timeout, log),
	)

	workersCtx, stopWorkers := context.WithCancel(context.Background())
	defer stopWorkers()
	manager.Start(workersCtx)

	// 8. Start server in goroutine
	go func() {
		if err := server.Start(); err != nil {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// 9. Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server gracefully...")

	ctx, cancel = context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("Server shutdown error", zap.Error(err))
	}
	// после HTTP, чтобы последние события успели попасть в очередь
	if err := manager.Stop(); err != nil {
		log.Error("Workers shutdown error", zap.Error(err))
	}

	log.Info("Server stopped successfully")
}

// eventSink - приёмник событий по EVENTS_SINK; nil, если события выключены
func eventSink(cfg *config.Config, redisClient *cache.Redis, log *zap.Logger) repository.EventRepository {
	switch cfg.Events.Sink {
	case config.EventsSinkRedis:
		return redisRepo.NewStreamRepository(redisClient.Client(), cfg.Events.Stream, log)
	case config.EventsSinkKafka:
		return kafka.NewWriter(&cfg.Events, log)
	default:
		return nil
	}
}
