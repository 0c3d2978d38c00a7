package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	"ms-events/internal/config"
	"ms-events/internal/database/migrations"
	"ms-events/internal/events/cache"
	"ms-events/internal/events/db"
	"ms-events/internal/events/event_api"
	"ms-events/internal/events/service"
	"ms-events/internal/kafka"
	"ms-events/internal/logger"
)

func connectPostgres(cfg *config.Config, log *logger.Logger) *bun.DB {
	var sqldb *sql.DB
	var err error
	maxRetries := 5

	for i := 0; i < maxRetries; i++ {
		log.Info("DATABASE", fmt.Sprintf("Connecting to PostgreSQL (attempt %d/%d)", i+1, maxRetries))
		sqldb, err = sql.Open("postgres", cfg.Database.DSN)
		if err == nil {
			err = sqldb.Ping()
		}
		if err == nil {
			break
		}
		log.Error("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL: %v", err))
		if i < maxRetries-1 {
			time.Sleep(2 * time.Second)
		}
	}
	if err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Giving up on PostgreSQL after %d attempts: %v", maxRetries, err))
	}

	sqldb.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqldb.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqldb.SetConnMaxLifetime(cfg.Database.MaxLifetime)

	log.Info("DATABASE", "PostgreSQL connection successful")
	return bun.NewDB(sqldb, pgdialect.New())
}

func requestLogger(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			log.LogRequest(r.Method, r.URL.Path, rec.status, time.Since(start))
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func main() {
	_ = godotenv.Load()

	log := logger.NewLogger()
	defer log.Close()

	cfg := config.Load()

	bunDB := connectPostgres(cfg, log)
	defer bunDB.Close()

	if cfg.App.AutoMigrate {
		runner := migrations.NewRunner(bunDB, cfg.App.MigrationsDir, log)
		if err := runner.Up(); err != nil {
			log.Fatal("MIGRATE", fmt.Sprintf("Migrations failed: %v", err))
		}
	}

	var eventCache *cache.Cache
	if cfg.Redis.Enabled {
		redisClient, err := cache.InitializeRedis(cfg.Redis.Addr, log)
		if err != nil {
			log.Warn("CACHE", fmt.Sprintf("Running without Redis cache: %v", err))
		} else {
			defer redisClient.Close()
			eventCache = cache.NewCache(redisClient, cfg.Redis.CacheTTL, log)
		}
	}

	var producer *kafka.Producer
	if cfg.Kafka.Enabled {
		if err := kafka.CreateTopicIfNotExists(cfg.Kafka.Brokers, cfg.Kafka.LifecycleTopic); err != nil {
			log.Warn("KAFKA", fmt.Sprintf("Failed to ensure lifecycle topic: %v", err))
		}
		producer = kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.LifecycleTopic)
		defer producer.Close()
		log.Info("KAFKA", fmt.Sprintf("Publishing lifecycle events to %s", cfg.Kafka.LifecycleTopic))
	}

	eventService := &service.EventService{
		DB:     &db.DB{Bun: bunDB},
		Logger: log,
	}
	if eventCache != nil {
		eventService.Cache = eventCache
	}
	if producer != nil {
		eventService.Kafka = producer
	}

	handler := event_api.NewHandler(eventService, log, cfg.App.PublicBaseURL)

	r := chi.NewRouter()
	r.Use(requestLogger(log))
	r.Route("/api/events", handler.RegisterRoutes)

	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("SERVER", fmt.Sprintf("Event service on %s", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("SERVER", fmt.Sprintf("HTTP error: %v", err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = server.Shutdown(ctxShutdown)
	log.Info("SERVER", "Event service shutdown complete")
}
