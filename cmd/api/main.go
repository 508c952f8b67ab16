package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/medimitra/medimitra-backend/api/routes"
	"github.com/medimitra/medimitra-backend/internal/auth"
	"github.com/medimitra/medimitra-backend/internal/inventory"
	"github.com/medimitra/medimitra-backend/internal/notifications"
	"github.com/medimitra/medimitra-backend/internal/orders"
	"github.com/medimitra/medimitra-backend/internal/reminders"
	"github.com/medimitra/medimitra-backend/internal/suppliers"
	"github.com/medimitra/medimitra-backend/internal/users"
	"github.com/medimitra/medimitra-backend/pkg/config"
	"github.com/medimitra/medimitra-backend/pkg/db"
	"github.com/medimitra/medimitra-backend/pkg/env"
	"github.com/medimitra/medimitra-backend/pkg/logger"
	"github.com/medimitra/medimitra-backend/pkg/metrics"
	"github.com/medimitra/medimitra-backend/pkg/migrate"
	"github.com/medimitra/medimitra-backend/pkg/outbox"
	"github.com/medimitra/medimitra-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}
	cfg.Service.Kind = "api"

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, cfg.FeatureFlags.UseSQLite, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.Bootstrap(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	services, err := buildServices(cfg, logg, dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to wire services", err)
		os.Exit(1)
	}

	// PORT is injected by the hosting platform and wins over config
	addr := ":" + env.Get("PORT", cfg.App.Port)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"addr":        addr,
		"serviceKind": cfg.Service.Kind,
	})

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(cfg, logg, dbClient, redisClient, services),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logg.Info(ctx, "starting api server")
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "api server shutdown failed", err)
		}
		logg.Info(ctx, "api server shutting down gracefully")
	}
}

func buildServices(cfg *config.Config, logg *logger.Logger, dbClient *db.Client) (routes.Services, error) {
	conn := dbClient.DB()
	outboxService := outbox.NewService(outbox.NewRepository(conn), logg)

	usersRepo := users.NewRepository(conn)
	authService, err := auth.NewService(auth.ServiceParams{
		DB:             dbClient,
		UserRepo:       usersRepo,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
		Logger:         logg,
	})
	if err != nil {
		return routes.Services{}, err
	}

	notificationsRepo := notifications.NewRepository(conn)
	dispatcher, err := notifications.NewDispatcher(dbClient, notificationsRepo, usersRepo, outboxService, logg)
	if err != nil {
		return routes.Services{}, err
	}

	suppliersRepo := suppliers.NewRepository(conn)
	suppliersService, err := suppliers.NewService(suppliersRepo)
	if err != nil {
		return routes.Services{}, err
	}

	inventoryRepo := inventory.NewRepository(conn)
	inventoryService, err := inventory.NewService(inventory.ServiceParams{
		Repo:              inventoryRepo,
		Suppliers:         suppliersRepo,
		DB:                dbClient,
		Notifier:          dispatcher,
		Logger:            logg,
		DefaultExpiryDays: cfg.Cron.ExpiryWindowDays,
	})
	if err != nil {
		return routes.Services{}, err
	}

	ordersService, err := orders.NewService(orders.ServiceParams{
		Repo:     orders.NewRepository(conn),
		DB:       dbClient,
		Stock:    inventory.NewStockKeeper(inventoryRepo),
		Outbox:   outboxService,
		Notifier: dispatcher,
		Metrics:  metrics.NewOrderMetrics(prometheus.DefaultRegisterer),
		Logger:   logg,
		Pricing:  orders.PricingFromConfig(cfg.Orders),
	})
	if err != nil {
		return routes.Services{}, err
	}

	notificationsService, err := notifications.NewService(notificationsRepo)
	if err != nil {
		return routes.Services{}, err
	}

	remindersService, err := reminders.NewService(reminders.NewRepository(conn))
	if err != nil {
		return routes.Services{}, err
	}

	return routes.Services{
		Auth:          authService,
		Orders:        ordersService,
		Inventory:     inventoryService,
		Suppliers:     suppliersService,
		Notifications: notificationsService,
		Reminders:     remindersService,
	}, nil
}
