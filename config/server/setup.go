package server

import (
	"context"
	"fmt"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"net/http"
	"time"
	"verifly/config"
	"verifly/internal"
	"verifly/internal/handler"
	"verifly/internal/migrations"
)

func SetupDatabase(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*internal.Database, error) {
	database, err := internal.NewDatabaseConnection(ctx, cfg.Database.Driver, cfg.Database.ConnectionString, internal.DatabaseOptions{
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: 30 * time.Minute,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("ошибка подключения: %w", err)
	}

	if cfg.Database.Migrate {
		if err := migrations.Up(database.DB.DB); err != nil {
			database.Close()
			return nil, fmt.Errorf("ошибка применения миграций: %w", err)
		}
		logger.Info("миграции применены")
	}

	return database, nil
}

func SetupRedis(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	options, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		return nil, fmt.Errorf("неверный адрес redis: %w", err)
	}

	client := redis.NewClient(options)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis недоступен: %w", err)
	}

	return client, nil
}

func SetupServer(cfg *config.Config, logger *zap.Logger) (*http.Server, *chi.Mux) {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(handler.RequestLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	system := handler.NewSystemHandler(cfg.Environment)
	router.Get("/", system.Root)
	router.Get("/health", system.Health)
	router.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return server, router
}
