package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/medimitra/medimitra-backend/internal/cron"
	"github.com/medimitra/medimitra-backend/internal/inventory"
	"github.com/medimitra/medimitra-backend/internal/notifications"
	"github.com/medimitra/medimitra-backend/internal/reminders"
	"github.com/medimitra/medimitra-backend/internal/users"
	"github.com/medimitra/medimitra-backend/pkg/config"
	"github.com/medimitra/medimitra-backend/pkg/db"
	"github.com/medimitra/medimitra-backend/pkg/logger"
	"github.com/medimitra/medimitra-backend/pkg/metrics"
	"github.com/medimitra/medimitra-backend/pkg/migrate"
	"github.com/medimitra/medimitra-backend/pkg/outbox"
	"github.com/medimitra/medimitra-backend/pkg/redis"
)

const lockName = "cron-worker"

func main() {
	once := flag.Bool("once", false, "run a single cycle and exit")
	flag.Parse()

	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "cron-worker"

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
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

	metricsCollector := metrics.NewCronJobMetrics(prometheus.DefaultRegisterer)
	lock, err := cron.NewRedisLock(redisClient, redisClient.LockKey(lockName), cfg.Cron.LockTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create cron lock", err)
		os.Exit(1)
	}

	registry, err := buildRegistry(cfg, logg, dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to register cron jobs", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:     logg,
		Registry:   registry,
		Lock:       lock,
		Metrics:    metricsCollector,
		Interval:   cfg.Cron.Interval,
		JobTimeout: cfg.Cron.JobTimeout,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})

	if cfg.Cron.MetricsAddr != "" {
		metricsServer := serveMetrics(ctx, logg, cfg.Cron.MetricsAddr)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = metricsServer.Shutdown(shutdownCtx)
		}()
	}

	if *once {
		if err := service.RunOnce(ctx); err != nil && !errors.Is(err, cron.ErrLockHeld) {
			logg.Error(ctx, "cron cycle failed", err)
			os.Exit(1)
		}
		return
	}

	logg.Info(ctx, "starting cron worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}

// buildRegistry orders jobs so due reminders go out before alert scans and cleanup.
func buildRegistry(cfg *config.Config, logg *logger.Logger, dbClient *db.Client) (*cron.Registry, error) {
	conn := dbClient.DB()
	outboxRepo := outbox.NewRepository(conn)
	notificationsRepo := notifications.NewRepository(conn)
	dispatcher, err := notifications.NewDispatcher(dbClient, notificationsRepo, users.NewRepository(conn), outbox.NewService(outboxRepo, logg), logg)
	if err != nil {
		return nil, err
	}

	poller, err := reminders.NewPoller(reminders.PollerParams{
		DB:        dbClient,
		Repo:      reminders.NewRepository(conn),
		Notifier:  dispatcher,
		Logger:    logg,
		BatchSize: cfg.Cron.ReminderBatchSize,
	})
	if err != nil {
		return nil, err
	}

	reminderJob, err := cron.NewReminderDispatchJob(cron.ReminderDispatchJobParams{Logger: logg, Poller: poller})
	if err != nil {
		return nil, err
	}
	alertsJob, err := cron.NewInventoryAlertsJob(cron.InventoryAlertsJobParams{
		Logger:           logg,
		Inventory:        inventory.NewRepository(conn),
		History:          notificationsRepo,
		Notifier:         dispatcher,
		ExpiryWindowDays: cfg.Cron.ExpiryWindowDays,
		DedupeWindow:     cfg.Cron.AlertDedupeWindow,
	})
	if err != nil {
		return nil, err
	}
	cleanupJob, err := cron.NewNotificationCleanupJob(cron.NotificationCleanupJobParams{
		Logger:     logg,
		Repository: notificationsRepo,
		Retention:  cfg.Cron.NotificationRetention,
	})
	if err != nil {
		return nil, err
	}
	retentionJob, err := cron.NewOutboxRetentionJob(cron.OutboxRetentionJobParams{
		Logger:     logg,
		DB:         dbClient,
		Repository: outboxRepo,
		Retention:  cfg.Cron.OutboxRetention,
	})
	if err != nil {
		return nil, err
	}

	return cron.NewRegistry(reminderJob, alertsJob, cleanupJob, retentionJob), nil
}

func serveMetrics(ctx context.Context, logg *logger.Logger, addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "metrics listener stopped", err)
		}
	}()
	return server
}
