package migrate

import (
	"context"
	"fmt"

	"github.com/medimitra/medimitra-backend/pkg/config"
	"github.com/medimitra/medimitra-backend/pkg/db"
	"github.com/medimitra/medimitra-backend/pkg/db/models"
	"github.com/medimitra/medimitra-backend/pkg/logger"
)

type bootstrapMode int

const (
	bootstrapSkip bootstrapMode = iota
	bootstrapModels
	bootstrapGoose
)

// SQLite cannot run the Postgres migrations, so it is built from the models.
func modeFor(cfg *config.Config) bootstrapMode {
	switch {
	case !cfg.App.IsDev() || !cfg.FeatureFlags.AutoMigrate:
		return bootstrapSkip
	case cfg.FeatureFlags.UseSQLite:
		return bootstrapModels
	default:
		return bootstrapGoose
	}
}

// Bootstrap brings the schema up to date on startup in dev when auto-migrate
// is enabled. It is a no-op everywhere else.
func Bootstrap(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	mode := modeFor(cfg)
	if mode == bootstrapSkip {
		return nil
	}
	conn := client.DB().WithContext(ctx)

	if mode == bootstrapModels {
		logg.Info(logg.WithField(ctx, "sqlite_path", cfg.DB.SQLitePath), "creating sqlite schema from models")
		if err := conn.AutoMigrate(models.All()...); err != nil {
			return fmt.Errorf("sqlite schema: %w", err)
		}
		return nil
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return fmt.Errorf("sql handle: %w", err)
	}
	ctx = logg.WithField(ctx, "env", cfg.App.Env)
	logg.Info(ctx, "applying embedded migrations")
	if err := Run(ctx, sqlDB, DefaultDir, "up"); err != nil {
		return err
	}
	logg.Info(ctx, "migrations applied")
	return nil
}
