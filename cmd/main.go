package main

import (
	"context"
	"fmt"
	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	"verifly/config"
	"verifly/config/server"
	"verifly/internal"
	"verifly/internal/handler"
	"verifly/internal/logger"
	"verifly/internal/metrics"
	"verifly/internal/notifier"
	"verifly/internal/ports"
	"verifly/internal/repository"
	"verifly/internal/security"
	"verifly/internal/service"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.LoadConfig(os.Getenv("CONFIG_PATH"), config.DefaultEnvFiles...)
	if err != nil {
		log.Fatalf("ошибка загрузки конфигурации: %v", err)
	}

	appLogger, err := logger.New(logger.Config{
		Level:   cfg.Log.Level,
		Pretty:  cfg.Log.Pretty,
		App:     "verifly",
		Env:     cfg.Environment,
		Version: cfg.Log.Version,
	})
	if err != nil {
		log.Fatalf("ошибка инициализации логгера: %v", err)
	}
	defer appLogger.Sync()

	if err := run(ctx, cfg, appLogger); err != nil {
		appLogger.Error("сервер остановлен с ошибкой", zap.Error(err))
		cancel()
		appLogger.Sync()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, appLogger *zap.Logger) error {
	directory, database, err := setupDirectory(ctx, cfg, appLogger)
	if err != nil {
		return err
	}
	if database != nil {
		defer database.Close()
	}

	var redisClient *redis.Client
	if cfg.Refresh.ReuseDetection == "redis" {
		redisClient, err = server.SetupRedis(ctx, cfg)
		if err != nil {
			return err
		}
		defer redisClient.Close()
	}

	hasher, err := security.NewPasswordHasher(security.PasswordConfig{
		Algorithm:     cfg.Password.Algorithm,
		BcryptCost:    cfg.Password.BcryptCost,
		MaxConcurrent: cfg.Password.MaxConcurrent,
	})
	if err != nil {
		return err
	}

	codec, err := security.NewTokenCodec([]byte(cfg.JWT.SecretKey), security.WithIssuer(cfg.JWT.Issuer))
	if err != nil {
		return err
	}

	sessionIssuer, err := security.NewSessionIssuer(codec, security.SessionConfig{
		AccessTTL:     cfg.JWT.AccessTokenTTL(),
		RefreshTTL:    cfg.JWT.RefreshTokenTTL(),
		SecureCookies: cfg.SecureCookies(),
	})
	if err != nil {
		return err
	}

	var securityNotifier ports.Notifier = notifier.Noop{}
	if cfg.Webhook.URL != "" {
		securityNotifier = notifier.NewWebhookNotifier(cfg.Webhook.URL, cfg.Webhook.Timeout)
	}

	authenticationService, err := service.NewAuthenticationService(service.AuthenticationService{
		Directory:         directory,
		Hasher:            hasher,
		Tokens:            codec,
		Issuer:            sessionIssuer,
		RefreshTokens:     setupRefreshTokens(cfg, redisClient),
		Notifier:          securityNotifier,
		Metrics:           metrics.NewAuthMetrics(prometheus.DefaultRegisterer),
		Logger:            appLogger.Named("auth"),
		MinPasswordLength: cfg.Password.MinLength,
	})
	if err != nil {
		return err
	}
	authenticationHandler := handler.NewAuthenticationHandler(authenticationService, sessionIssuer, appLogger.Named("http"), cfg.Server.RequestTimeout)

	httpServer, router := server.SetupServer(cfg, appLogger)
	router.Route(cfg.Server.BasePath+"/auth", func(r chi.Router) {
		handler.RegisterRoutes(r, authenticationHandler)
	})

	return runServer(ctx, httpServer, cfg.Server.ShutdownTimeout, appLogger)
}

func setupDirectory(ctx context.Context, cfg *config.Config, appLogger *zap.Logger) (ports.AccountDirectory, *internal.Database, error) {
	if cfg.Database.Driver == "memory" {
		appLogger.Warn("аккаунты хранятся в памяти и пропадут после перезапуска")
		return repository.NewMemoryUserRepository(nil), nil, nil
	}

	database, err := server.SetupDatabase(ctx, cfg, appLogger)
	if err != nil {
		return nil, nil, fmt.Errorf("не удалось подключиться к БД: %w", err)
	}
	return repository.NewUserRepository(database), database, nil
}

func setupRefreshTokens(cfg *config.Config, redisClient *redis.Client) ports.RefreshTokenRepository {
	switch cfg.Refresh.ReuseDetection {
	case "redis":
		return repository.NewRedisRefreshTokenRepository(redisClient, nil)
	case "memory":
		return repository.NewMemoryRefreshTokenRepository(nil)
	default:
		return nil
	}
}

func runServer(ctx context.Context, server *http.Server, shutdownTimeout time.Duration, appLogger *zap.Logger) error {
	serverErrors := make(chan error, 1)
	go func() {
		appLogger.Info("сервер запущен", zap.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	signalChannel := make(chan os.Signal, 1)
	signal.Notify(signalChannel, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("ошибка работы сервера: %w", err)
		}
		return nil
	case sig := <-signalChannel:
		appLogger.Info("получен сигнал остановки работы сервера", zap.String("signal", sig.String()))
	}

	if shutdownTimeout <= 0 {
		shutdownTimeout = 5 * time.Second
	}
	shutDownCtx, shutDownCancel := context.WithTimeout(ctx, shutdownTimeout)
	defer shutDownCancel()

	if err := server.Shutdown(shutDownCtx); err != nil {
		appLogger.Error("ошибка при остановке сервера", zap.Error(err))
		return err
	}
	appLogger.Info("сервер успешно остановлен")
	return nil
}
