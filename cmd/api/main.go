package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/oishine/backoffice/internal/api/http"
	"github.com/oishine/backoffice/internal/api/http/handlers"
	"github.com/oishine/backoffice/internal/auth"
	"github.com/oishine/backoffice/internal/config"
	"github.com/oishine/backoffice/internal/observability"
	"github.com/oishine/backoffice/internal/persistence"
	"github.com/oishine/backoffice/internal/realtime"
	"github.com/oishine/backoffice/internal/repository"
	"github.com/oishine/backoffice/internal/service"
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

	if cfg.Auth.JWTSecret == config.DevJWTSecret {
		logger.Warn("using development JWT secret; set AUTH_JWT_SECRET outside development")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	metrics := observability.NewMetrics()

	pool := pg.PoolHandle()
	adminRepo := repository.NewAdminRepository(pool)
	orderRepo := repository.NewOrderRepository(pool)
	driverRepo := repository.NewDriverRepository(pool)

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL())
	verifier := auth.NewVerifier(tokens, adminRepo)
	limiter := auth.NewLoginLimiter(redis.ClientHandle(), cfg.Auth.MaxFailedLogins, cfg.Auth.LoginWindow(), logger)

	broadcaster := realtime.NewBroadcaster(realtime.Options{
		QueueSize: cfg.Realtime.SendQueueSize,
		Logger:    logger,
		Metrics:   metrics,
	})
	defer broadcaster.Close()
	sessions := realtime.NewSessions()

	authService := service.NewAuthService(service.AuthDependencies{
		AdminRepo:  adminRepo,
		Tokens:     tokens,
		Guard:      limiter,
		Revoker:    sessions,
		BcryptCost: cfg.Auth.BcryptCost,
		Logger:     logger,
	})
	orderService := service.NewOrderService(service.OrderDependencies{
		OrderRepo:  orderRepo,
		DriverRepo: driverRepo,
		Publisher:  broadcaster,
		Logger:     logger,
	})
	driverService := service.NewDriverService(driverRepo, broadcaster, logger)

	if err := authService.EnsureSeedAdmin(ctx, cfg.Seed); err != nil {
		logger.Fatal("failed to seed admin", zap.Error(err))
	}

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	authMiddleware := auth.NewAuthMiddleware(verifier, cfg.Auth.CookieName, logger, metrics)
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, map[string]handlers.Pinger{
			"postgres": pg,
			"redis":    redis,
		}),
		Auth: handlers.NewAuthHandler(authService, handlers.CookieSettings{
			Name:   cfg.Auth.CookieName,
			MaxAge: cfg.Auth.TokenTTL(),
			Secure: cfg.App.SecureCookies(),
		}, logger),
		Admins:  handlers.NewAdminsHandler(authService),
		Orders:  handlers.NewOrdersHandler(orderService),
		Drivers: handlers.NewDriversHandler(driverService),
		Realtime: handlers.NewRealtimeHandler(handlers.RealtimeDependencies{
			Broadcaster:  broadcaster,
			Verifier:     verifier,
			Sessions:     sessions,
			CookieName:   cfg.Auth.CookieName,
			WriteTimeout: cfg.Realtime.WriteTimeout(),
			AdminRecheck: cfg.Realtime.AdminRecheck(),
			Logger:       logger,
		}),
		AuthMiddleware: authMiddleware,
		Metrics:        metrics,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
