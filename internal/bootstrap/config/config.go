package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/artefactual/fixity/internal/bootstrap/logging"
	"github.com/artefactual/fixity/internal/errs"
)

// ErrInvalidConfig marks configuration that is missing or malformed.
var ErrInvalidConfig = errors.New("invalid configuration")

type Config struct {
	App            AppConfig            `mapstructure:"app"`
	Database       DatabaseConfig       `mapstructure:"database"`
	StorageService StorageServiceConfig `mapstructure:"storage_service"`
	Report         ReportConfig         `mapstructure:"report"`
	Cache          CacheConfig          `mapstructure:"cache"`
	Metrics        MetricsConfig        `mapstructure:"metrics"`
	Events         EventsConfig         `mapstructure:"events"`
	Telemetry      TelemetryConfig      `mapstructure:"telemetry"`
}

type AppConfig struct {
	Name string `mapstructure:"name" validate:"required"`
	Env  string `mapstructure:"env"`
}

type DatabaseConfig struct {
	Driver string `mapstructure:"driver" validate:"oneof=sqlite sqlite3 postgres"`
	DSN    string `mapstructure:"dsn" validate:"required"`
}

type StorageServiceConfig struct {
	URL               string        `mapstructure:"url" validate:"required,url"`
	User              string        `mapstructure:"user" validate:"required"`
	Key               string        `mapstructure:"key" validate:"required"`
	Timeout           time.Duration `mapstructure:"timeout" validate:"gte=0"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second" validate:"gte=0"`
	Burst             int           `mapstructure:"burst" validate:"gte=0"`
	Paging            string        `mapstructure:"paging" validate:"oneof=cursor offset"`
	PageSize          int           `mapstructure:"page_size" validate:"gte=0"`
}

// ReportConfig is optional: an empty URL disables reporting.
type ReportConfig struct {
	URL      string        `mapstructure:"url" validate:"omitempty,url"`
	Username string        `mapstructure:"username"`
	Password string        `mapstructure:"password"`
	Timeout  time.Duration `mapstructure:"timeout" validate:"gte=0"`
}

func (c ReportConfig) Enabled() bool {
	return c.URL != ""
}

type CacheConfig struct {
	Driver   string        `mapstructure:"driver" validate:"oneof=sqlite redis memory none"`
	RedisURL string        `mapstructure:"redis_url" validate:"required_if=Driver redis"`
	Size     int           `mapstructure:"size" validate:"gte=0"`
	TTL      time.Duration `mapstructure:"ttl" validate:"gte=0"`
}

type MetricsConfig struct {
	PushgatewayURL string `mapstructure:"pushgateway_url" validate:"omitempty,url"`
	Job            string `mapstructure:"job"`
}

type EventsConfig struct {
	NATSURL string `mapstructure:"nats_url"`
	Subject string `mapstructure:"subject" validate:"required_with=NATSURL"`
}

type TelemetryConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	ServiceName string  `mapstructure:"service_name"`
	Endpoint    string  `mapstructure:"endpoint" validate:"omitempty,url"`
	SampleRatio float64 `mapstructure:"sample_ratio" validate:"gte=0,lte=1"`
}

// envBindings keeps the historical variable names working next to the
// FIXITY_ prefixed ones.
var envBindings = map[string][]string{
	"storage_service.url":  {"FIXITY_STORAGE_SERVICE_URL", "STORAGE_SERVICE_URL"},
	"storage_service.user": {"FIXITY_STORAGE_SERVICE_USER", "STORAGE_SERVICE_USER"},
	"storage_service.key":  {"FIXITY_STORAGE_SERVICE_KEY", "STORAGE_SERVICE_KEY"},
	"report.url":           {"FIXITY_REPORT_URL", "REPORT_URL"},
	"report.username":      {"FIXITY_REPORT_USERNAME", "REPORT_USERNAME"},
	"report.password":      {"FIXITY_REPORT_PASSWORD", "REPORT_PASSWORD"},
}

func Load(ctx context.Context, configFile string) (Config, error) {
	if ctx == nil {
		return Config{}, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return Config{}, errs.Wrap(err, "check context")
	}

	logCtx := logging.WithAttrs(ctx, slog.String("component", "bootstrap.config"))

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("FIXITY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, names := range envBindings {
		input := append([]string{key}, names...)
		if err := v.BindEnv(input...); err != nil {
			return Config{}, errs.Wrapf(err, "bind env for %s", key)
		}
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("fixity")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile == "" && errors.As(err, &notFound) {
			logging.Debug(logCtx, "config file not found, fallback to defaults and env")
		} else {
			return Config{}, fmt.Errorf("%w: read config: %w", ErrInvalidConfig, err)
		}
	} else {
		logging.Info(logCtx, "using config file", slog.String("path", v.ConfigFileUsed()))
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("%w: unmarshal config: %w", ErrInvalidConfig, err)
	}

	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	logging.Debug(
		logCtx,
		"config loaded",
		slog.String("app", cfg.App.Name),
		slog.String("env", cfg.App.Env),
		slog.String("database_driver", cfg.Database.Driver),
		slog.String("storage_service_url", cfg.StorageService.URL),
		slog.Bool("reporting", cfg.Report.Enabled()),
		slog.String("cache_driver", cfg.Cache.Driver),
	)

	return cfg, nil
}

// Validate reports every failing field at once.
func (c Config) Validate() error {
	err := validator.New(validator.WithRequiredStructEnabled()).Struct(c)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	problems := make([]string, 0, len(fieldErrs))
	for _, fieldErr := range fieldErrs {
		problems = append(problems, fmt.Sprintf("%s failed %q", fieldErr.Namespace(), fieldErr.Tag()))
	}
	return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
}

func (c *Config) normalize() {
	c.StorageService.URL = withTrailingSlash(strings.TrimSpace(c.StorageService.URL))
	c.Report.URL = withTrailingSlash(strings.TrimSpace(c.Report.URL))
	c.Database.Driver = strings.ToLower(strings.TrimSpace(c.Database.Driver))
	c.Cache.Driver = strings.ToLower(strings.TrimSpace(c.Cache.Driver))
	c.StorageService.Paging = strings.ToLower(strings.TrimSpace(c.StorageService.Paging))
}

func withTrailingSlash(url string) string {
	if url == "" || strings.HasSuffix(url, "/") {
		return url
	}
	return url + "/"
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "fixity")
	v.SetDefault("app.env", "local")
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "var/fixity.sqlite")
	v.SetDefault("storage_service.timeout", 10*time.Minute)
	v.SetDefault("storage_service.requests_per_second", 0)
	v.SetDefault("storage_service.burst", 1)
	v.SetDefault("storage_service.paging", "cursor")
	v.SetDefault("storage_service.page_size", 0)
	v.SetDefault("report.timeout", 30*time.Second)
	v.SetDefault("cache.driver", "sqlite")
	v.SetDefault("cache.size", 1024)
	v.SetDefault("cache.ttl", 0)
	v.SetDefault("metrics.job", "fixity")
	v.SetDefault("events.subject", "fixity.scans")
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service_name", "fixity")
	v.SetDefault("telemetry.sample_ratio", 1.0)
}
