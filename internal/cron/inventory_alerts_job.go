package cron

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/medimitra/medimitra-backend/internal/inventory"
	"github.com/medimitra/medimitra-backend/internal/notifications"
	"github.com/medimitra/medimitra-backend/pkg/db/models"
	"github.com/medimitra/medimitra-backend/pkg/enums"
	"github.com/medimitra/medimitra-backend/pkg/logger"
)

const (
	defaultExpiryWindowDays = 30
	defaultAlertDedupe      = 24 * time.Hour
)

type inventoryAlertSource interface {
	ListLowStock(ctx context.Context) ([]models.InventoryItem, error)
	ListExpiringBetween(ctx context.Context, from, to time.Time) ([]models.InventoryItem, error)
	ListExpired(ctx context.Context, now time.Time) ([]models.InventoryItem, error)
}

type alertHistory interface {
	ExistsSince(ctx context.Context, notificationType enums.NotificationType, link string, since time.Time) (bool, error)
}

type InventoryAlertsJobParams struct {
	Logger           *logger.Logger
	Inventory        inventoryAlertSource
	History          alertHistory
	Notifier         notifications.Notifier
	ExpiryWindowDays int
	DedupeWindow     time.Duration
}

// NewInventoryAlertsJob sweeps stock levels and expiry dates and alerts admins.
// An item already alerted on within the dedupe window is skipped.
func NewInventoryAlertsJob(params InventoryAlertsJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Inventory == nil {
		return nil, fmt.Errorf("inventory repository required")
	}
	if params.History == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	if params.Notifier == nil {
		return nil, fmt.Errorf("notifier required")
	}
	days := params.ExpiryWindowDays
	if days <= 0 {
		days = defaultExpiryWindowDays
	}
	dedupe := params.DedupeWindow
	if dedupe <= 0 {
		dedupe = defaultAlertDedupe
	}
	return &inventoryAlertsJob{
		logg:      params.Logger,
		inventory: params.Inventory,
		history:   params.History,
		notifier:  params.Notifier,
		window:    time.Duration(days) * 24 * time.Hour,
		dedupe:    dedupe,
		now:       time.Now,
	}, nil
}

type inventoryAlertsJob struct {
	logg      *logger.Logger
	inventory inventoryAlertSource
	history   alertHistory
	notifier  notifications.Notifier
	window    time.Duration
	dedupe    time.Duration
	now       func() time.Time
}

func (j *inventoryAlertsJob) Name() string { return "inventory-alerts" }

func (j *inventoryAlertsJob) Run(ctx context.Context) error {
	now := j.now().UTC()
	since := now.Add(-j.dedupe)
	var (
		errs    error
		notices []notifications.Notice
	)

	lowStock, err := j.inventory.ListLowStock(ctx)
	if err != nil {
		errs = multierr.Append(errs, fmt.Errorf("list low stock: %w", err))
	}
	for _, item := range lowStock {
		notice := inventory.LowStockNotice(item)
		fresh, err := j.fresh(ctx, notice, since)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		if fresh {
			notices = append(notices, notice)
		}
	}

	expired, err := j.inventory.ListExpired(ctx, now)
	if err != nil {
		errs = multierr.Append(errs, fmt.Errorf("list expired: %w", err))
	}
	expiring, err := j.inventory.ListExpiringBetween(ctx, now, now.Add(j.window))
	if err != nil {
		errs = multierr.Append(errs, fmt.Errorf("list expiring: %w", err))
	}
	for _, batch := range []struct {
		items   []models.InventoryItem
		expired bool
	}{{expired, true}, {expiring, false}} {
		for _, item := range batch.items {
			notice := inventory.ExpiryNotice(item, batch.expired)
			fresh, err := j.fresh(ctx, notice, since)
			if err != nil {
				errs = multierr.Append(errs, err)
				continue
			}
			if fresh {
				notices = append(notices, notice)
			}
		}
	}

	if len(notices) > 0 {
		j.notifier.Dispatch(ctx, notices...)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"low_stock":     len(lowStock),
		"expired":       len(expired),
		"expiring":      len(expiring),
		"alerts_sent":   len(notices),
		"window_hours":  j.window.Hours(),
		"dedupe_window": j.dedupe.String(),
	})
	j.logg.Info(logCtx, "inventory alert sweep complete")
	return errs
}

func (j *inventoryAlertsJob) fresh(ctx context.Context, notice notifications.Notice, since time.Time) (bool, error) {
	seen, err := j.history.ExistsSince(ctx, notice.Type, notice.Link, since)
	if err != nil {
		return false, fmt.Errorf("check alert history for %s: %w", notice.Link, err)
	}
	return !seen, nil
}
