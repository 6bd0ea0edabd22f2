package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/resource-gateway/internal/api/http"
	"github.com/spec-kit/resource-gateway/internal/api/http/handlers"
	"github.com/spec-kit/resource-gateway/internal/auth"
	"github.com/spec-kit/resource-gateway/internal/config"
	"github.com/spec-kit/resource-gateway/internal/events"
	"github.com/spec-kit/resource-gateway/internal/observability"
	"github.com/spec-kit/resource-gateway/internal/persistence"
	"github.com/spec-kit/resource-gateway/internal/registry"
	"github.com/spec-kit/resource-gateway/internal/repository"
	"github.com/spec-kit/resource-gateway/internal/service"
	"github.com/spec-kit/resource-gateway/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	codec, err := auth.NewTokenCodec(cfg.OAuth.TokenSecretKey, cfg.OAuth.TokenAlgorithm)
	if err != nil {
		logger.Fatal("failed to configure token codec", zap.Error(err))
	}

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	dispatcher := events.NewInMemoryDispatcher()
	worker.StartAuditWorker(service.NewAuditService(dispatcher, redis, logger))

	verifier := service.NewUserVerifier(repository.NewUserRepository(pg.PoolHandle()))
	tokenService := service.NewTokenService(cfg.OAuth, codec, verifier, dispatcher)
	clients := auth.NewClientAuthenticator(cfg.OAuth.ClientID, cfg.OAuth.ClientSecret)
	accessGate := auth.NewMiddleware(codec, logger)

	reg := registry.New(logger)
	for _, table := range cfg.Registry.Tables {
		reg.Register(registry.NewTableResource(pg.PoolHandle(), table,
			fmt.Sprintf("rows of the %s table, capped at 100", table)))
	}
	reg.Register(registry.NewQueryLogResource(redis.Client, service.AuditLogKey, 100))

	metrics := observability.NewMetrics()

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:     handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Token:      handlers.NewTokenHandler(tokenService, clients),
		Resources:  handlers.NewResourcesHandler(reg, dispatcher),
		AccessGate: accessGate,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
