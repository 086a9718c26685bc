package bootstrap

import (
	"context"
	"log/slog"

	"go.uber.org/fx"
	"golang.org/x/time/rate"
	"gorm.io/gorm"

	"github.com/artefactual/fixity/internal/bootstrap/config"
	"github.com/artefactual/fixity/internal/bootstrap/database"
	"github.com/artefactual/fixity/internal/bootstrap/logging"
	"github.com/artefactual/fixity/internal/bootstrap/telemetry"
	"github.com/artefactual/fixity/internal/errs"
	cacheinfra "github.com/artefactual/fixity/internal/infrastructure/cache"
	"github.com/artefactual/fixity/internal/infrastructure/events"
	"github.com/artefactual/fixity/internal/infrastructure/metrics"
	sqliterepo "github.com/artefactual/fixity/internal/infrastructure/persistence/sqlite/repository"
	sqliteuow "github.com/artefactual/fixity/internal/infrastructure/persistence/sqlite/uow"
	"github.com/artefactual/fixity/internal/infrastructure/reportservice"
	"github.com/artefactual/fixity/internal/infrastructure/storageservice"
	"github.com/artefactual/fixity/internal/ports"
	"github.com/artefactual/fixity/internal/usecase/fixity"
)

var Module = fx.Options(
	fx.Provide(provideConfig),
	fx.Provide(provideDatabase),
	fx.Provide(provideApp),
	fx.Provide(provideTelemetry),
	fx.Provide(provideMetrics),
	fx.Provide(
		fx.Annotate(
			sqliterepo.NewReportRepository,
			fx.As(new(ports.ReportRepository)),
		),
	),
	fx.Provide(
		fx.Annotate(
			sqliteuow.NewUnitOfWork,
			fx.As(new(ports.UnitOfWork)),
		),
	),
	fx.Provide(provideCache),
	fx.Provide(provideStorageService),
	fx.Provide(providePaginator),
	fx.Provide(provideReportService),
	fx.Provide(provideEvents),
	fx.Provide(provideService),
)

type configParams struct {
	fx.In

	Ctx        context.Context
	ConfigFile string `name:"configFile"`
}

func provideConfig(p configParams) (config.Config, error) {
	ctx := logging.WithAttrs(p.Ctx, slog.String("component", "bootstrap.fx"))
	return config.Load(ctx, p.ConfigFile)
}

func provideDatabase(lc fx.Lifecycle, ctx context.Context, cfg config.Config) (*gorm.DB, error) {
	logCtx := logging.WithAttrs(ctx, slog.String("component", "bootstrap.fx"))

	db, err := database.Open(logCtx, cfg.Database)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		},
	})

	return db, nil
}

func provideApp(cfg config.Config, db *gorm.DB) *App {
	return &App{
		Config: cfg,
		DB:     db,
	}
}

func provideTelemetry(lc fx.Lifecycle, ctx context.Context, cfg config.Config) (*telemetry.Provider, error) {
	provider, err := telemetry.Setup(ctx, cfg.Telemetry)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: provider.Shutdown,
	})
	return provider, nil
}

// provideMetrics pushes the run's counters on shutdown when a Pushgateway
// is configured. A failed push is logged and otherwise ignored.
func provideMetrics(lc fx.Lifecycle, ctx context.Context, cfg config.Config) *metrics.Metrics {
	m := metrics.New()
	if cfg.Metrics.PushgatewayURL == "" {
		return m
	}

	logCtx := logging.WithAttrs(ctx, slog.String("component", "bootstrap.metrics"))
	lc.Append(fx.Hook{
		OnStop: func(stopCtx context.Context) error {
			if err := m.Push(stopCtx, cfg.Metrics.PushgatewayURL, cfg.Metrics.Job); err != nil {
				logging.Warn(logCtx, "push metrics failed", slog.Any("err", errs.Loggable(err)))
			}
			return nil
		},
	})
	return m
}

func provideCache(lc fx.Lifecycle, ctx context.Context, cfg config.Config, db *gorm.DB) (ports.Cache, error) {
	switch cfg.Cache.Driver {
	case "redis":
		redisCache, err := cacheinfra.NewRedisCache(ctx, cfg.Cache.RedisURL)
		if err != nil {
			return nil, err
		}
		lc.Append(fx.Hook{
			OnStop: func(context.Context) error { return redisCache.Close() },
		})
		return redisCache, nil
	case "memory":
		return cacheinfra.NewMemoryCache(cfg.Cache.Size)
	case "none":
		return cacheinfra.NoopCache{}, nil
	default:
		return cacheinfra.NewSQLiteCache(db), nil
	}
}

func provideStorageService(cfg config.Config) (ports.StorageService, error) {
	opts := []storageservice.Option{}
	if cfg.StorageService.RequestsPerSecond > 0 {
		burst := cfg.StorageService.Burst
		if burst <= 0 {
			burst = 1
		}
		opts = append(opts, storageservice.WithLimiter(rate.NewLimiter(rate.Limit(cfg.StorageService.RequestsPerSecond), burst)))
	}

	client, err := storageservice.NewClient(storageservice.Config{
		BaseURL: cfg.StorageService.URL,
		User:    cfg.StorageService.User,
		Key:     cfg.StorageService.Key,
		Timeout: cfg.StorageService.Timeout,
	}, opts...)
	if err != nil {
		return nil, errs.Wrap(err, "create storage service client")
	}
	return client, nil
}

func providePaginator(cfg config.Config) ports.Paginator {
	if cfg.StorageService.Paging == "offset" {
		return fixity.OffsetPaging{Limit: cfg.StorageService.PageSize}
	}
	return fixity.CursorPaging{}
}

// provideReportService returns a nil service when no report URL is set.
func provideReportService(cfg config.Config) (ports.ReportService, error) {
	if !cfg.Report.Enabled() {
		return nil, nil
	}

	client, err := reportservice.NewClient(reportservice.Config{
		URL:      cfg.Report.URL,
		Username: cfg.Report.Username,
		Password: cfg.Report.Password,
		Timeout:  cfg.Report.Timeout,
	})
	if err != nil {
		return nil, errs.Wrap(err, "create report service client")
	}
	return client, nil
}

func provideEvents(lc fx.Lifecycle, cfg config.Config) (ports.EventPublisher, error) {
	if cfg.Events.NATSURL == "" {
		return events.NoopPublisher{}, nil
	}

	publisher, err := events.NewNATSPublisher(cfg.Events.NATSURL, cfg.Events.Subject)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error { return publisher.Close() },
	})
	return publisher, nil
}

type serviceParams struct {
	fx.In

	Config    config.Config
	Storage   ports.StorageService
	Reports   ports.ReportService
	Repo      ports.ReportRepository
	UoW       ports.UnitOfWork
	Paginator ports.Paginator
	Cache     ports.Cache
	Metrics   *metrics.Metrics
	Events    ports.EventPublisher
	Telemetry *telemetry.Provider
}

func provideService(p serviceParams) *fixity.Service {
	opts := []fixity.Option{
		fixity.WithPaginator(p.Paginator),
		fixity.WithCache(p.Cache, p.Config.Cache.TTL),
		fixity.WithMetrics(p.Metrics),
		fixity.WithEvents(p.Events),
		fixity.WithTracer(p.Telemetry.Tracer()),
	}
	if p.Reports != nil {
		opts = append(opts, fixity.WithReportService(p.Reports))
	}
	return fixity.NewService(p.Storage, p.Repo, p.UoW, opts...)
}
