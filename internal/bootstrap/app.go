package bootstrap

import (
	"context"
	"errors"
	"log/slog"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/artefactual/fixity/internal/bootstrap/config"
	"github.com/artefactual/fixity/internal/bootstrap/database"
	"github.com/artefactual/fixity/internal/bootstrap/logging"
	"github.com/artefactual/fixity/internal/errs"
	"github.com/artefactual/fixity/internal/infrastructure/persistence/schema"
	"github.com/artefactual/fixity/internal/infrastructure/persistence/sqlite/model"
)

type App struct {
	Config config.Config
	DB     *gorm.DB
}

func New(ctx context.Context, configFile string) (*App, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, errs.Wrap(err, "check context")
	}

	logCtx := logging.WithAttrs(ctx, slog.String("component", "bootstrap.app"))
	logging.Info(logCtx, "loading application config", slog.String("config_file", configFile))

	cfg, err := config.Load(logCtx, configFile)
	if err != nil {
		return nil, errs.Wrap(err, "load config")
	}

	db, err := database.Open(logCtx, cfg.Database)
	if err != nil {
		return nil, errs.Wrap(err, "open database")
	}

	logging.Info(logCtx, "application bootstrap completed", slog.String("database_driver", cfg.Database.Driver))

	return &App{
		Config: cfg,
		DB:     db,
	}, nil
}

// InitSchema creates the tables and records the schema version. It is safe
// to run against an existing database.
func (a *App) InitSchema(ctx context.Context) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return errs.Wrap(err, "check context")
	}

	logCtx := logging.WithAttrs(ctx, slog.String("component", "bootstrap.app"))
	logging.Info(logCtx, "start schema migration")

	tables := []any{
		&schema.Meta{},
		&model.Package{},
		&model.Report{},
	}
	if a.Config.Cache.Driver == "sqlite" {
		tables = append(tables, &model.CacheEntry{})
	}

	if err := a.DB.WithContext(ctx).AutoMigrate(tables...); err != nil {
		return errs.Wrap(err, "auto migrate schema")
	}

	version := schema.Meta{Key: schema.VersionKey, Value: schema.CurrentVersion}
	if err := a.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&version).Error; err != nil {
		return errs.Wrap(err, "record schema version")
	}

	logging.Info(logCtx, "schema migration completed", slog.String("schema_version", schema.CurrentVersion))
	return nil
}

// SchemaVersion returns the version written by InitSchema, or "" when the
// database was never initialized.
func (a *App) SchemaVersion(ctx context.Context) (string, error) {
	if ctx == nil {
		return "", errors.New("context is required")
	}

	if !a.DB.WithContext(ctx).Migrator().HasTable(&schema.Meta{}) {
		return "", nil
	}

	var row schema.Meta
	err := a.DB.WithContext(ctx).Where("key = ?", schema.VersionKey).Limit(1).Find(&row).Error
	if err != nil {
		return "", errs.Wrap(err, "read schema version")
	}
	return row.Value, nil
}

func (a *App) Close(ctx context.Context) error {
	if ctx == nil {
		return errors.New("context is required")
	}

	sqlDB, err := a.DB.DB()
	if err != nil {
		return errs.Wrap(err, "get sql db")
	}

	if err := sqlDB.Close(); err != nil {
		return errs.Wrap(err, "close sql db")
	}

	logging.Info(logging.WithAttrs(ctx, slog.String("component", "bootstrap.app")), "database connection closed")
	return nil
}
