package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jaekwang-park/todo-web/internal/cache"
	cognitopkg "github.com/jaekwang-park/todo-web/internal/cognito"
	"github.com/jaekwang-park/todo-web/internal/config"
	todohttp "github.com/jaekwang-park/todo-web/internal/http"
	"github.com/jaekwang-park/todo-web/internal/http/handler"
	"github.com/jaekwang-park/todo-web/internal/metrics"
	"github.com/jaekwang-park/todo-web/internal/middleware"
	"github.com/jaekwang-park/todo-web/internal/repository"
	"github.com/jaekwang-park/todo-web/internal/service"
)

func main() {
	// Initial logger at info level; reconfigured after config load
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := run(context.Background()); err != nil {
		logger.Error("application failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	if env := os.Getenv("APP_ENV"); env == "" || env == "local" {
		if err := config.LoadDotEnv(); err != nil {
			return err
		}
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.ParseLogLevel(),
	}))
	slog.SetDefault(logger)

	logger.Info("config loaded",
		"env", cfg.AppEnv,
		"port", cfg.ServerPort,
		"storage", cfg.StorageDriver,
		"cache", cfg.Redis.Enabled(),
		"auth_dev_mode", cfg.AuthDevMode,
		"rate_limit_per_minute", cfg.ParseRateLimit(),
		"log_level", cfg.LogLevel,
	)

	checks := map[string]handler.Pinger{}

	// Storage
	var repo repository.TodoItemRepository
	switch cfg.StorageDriver {
	case config.StorageMemory:
		repo = repository.NewMemoryTodoItem()
		logger.Warn("using in-memory storage; items are lost on restart")
	default:
		db, err := repository.NewDB(cfg.DB.DSN())
		if err != nil {
			return err
		}
		defer db.Close()
		if err := repository.Migrate(ctx, db); err != nil {
			return err
		}
		logger.Info("database connected")
		repo = repository.NewPostgresTodoItem(db)
		checks["postgres"] = handler.PingerFunc(db.PingContext)
	}

	if cfg.Redis.Enabled() {
		ttl, err := cfg.Redis.ParseTTL()
		if err != nil {
			return fmt.Errorf("invalid CACHE_TTL: %w", err)
		}
		rc, err := cache.NewRedisCache(ctx, cfg.Redis.URL)
		if err != nil {
			return err
		}
		defer rc.Close()
		repo = repository.NewCachedTodoItem(repo, rc, ttl, logger)
		checks["redis"] = rc
		logger.Info("redis cache enabled", "ttl", ttl.String())
	}

	// Services and handlers
	todoSvc := service.NewTodoItemService(repo)
	sink := metrics.NewPrometheusSink()

	todoHandler, err := handler.NewTodoHandler(todoSvc, logger)
	if err != nil {
		return err
	}

	deps := todohttp.RouterDeps{
		Todo:    todoHandler,
		Health:  handler.NewHealthHandler(checks),
		Metrics: sink.Handler(),
		Sink:    sink,
	}

	if cfg.Cognito.AppClientID != "" {
		cognitoClient, err := cognitopkg.NewAWSClient(
			ctx,
			cfg.Cognito.Region,
			cfg.Cognito.AppClientID,
			cfg.Cognito.AppClientSecret,
		)
		if err != nil {
			return err
		}
		deps.Auth = handler.NewAuthHandler(service.NewAuthService(cognitoClient), cfg.AppEnv != "local")
		logger.Info("cognito client initialized", "region", cfg.Cognito.Region)
	} else {
		logger.Warn("operator sign-in disabled: COGNITO_APP_CLIENT_ID not set")
	}

	// Middleware for write requests
	authCfg := middleware.AuthConfig{
		DevMode: cfg.AuthDevMode,
	}
	if !cfg.AuthDevMode {
		jwksURL := middleware.CognitoJWKSURL(cfg.Cognito.Region, cfg.Cognito.UserPoolID)
		authCfg.JWKSClient = middleware.NewJWKSClient(jwksURL)
		authCfg.Issuer = middleware.CognitoIssuer(cfg.Cognito.Region, cfg.Cognito.UserPoolID)
		authCfg.AppClientID = cfg.Cognito.AppClientID
	}
	auth, err := middleware.NewAuth(authCfg)
	if err != nil {
		return fmt.Errorf("failed to create auth middleware: %w", err)
	}

	if perMinute := cfg.ParseRateLimit(); perMinute > 0 {
		deps.Guards = append(deps.Guards, middleware.NewRateLimiter(perMinute, logger).Middleware)
	}
	deps.Guards = append(deps.Guards, auth.Middleware)

	srv := todohttp.NewServer(cfg.ServerPort, logger, todohttp.NewRouter(deps))

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	logger.Info("server stopped gracefully")
	return nil
}
