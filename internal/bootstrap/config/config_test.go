package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func setStorageEnv(t *testing.T) {
	t.Helper()
	t.Setenv("STORAGE_SERVICE_URL", "http://storage.example:8000")
	t.Setenv("STORAGE_SERVICE_USER", "test")
	t.Setenv("STORAGE_SERVICE_KEY", "secret")
}

func TestLoadFromHistoricalEnv(t *testing.T) {
	setStorageEnv(t)
	t.Setenv("REPORT_URL", "http://reports.example")
	t.Setenv("REPORT_USERNAME", "alice")
	t.Setenv("REPORT_PASSWORD", "pw")

	cfg, err := Load(context.Background(), "")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.StorageService.URL != "http://storage.example:8000/" {
		t.Fatalf("StorageService.URL = %q", cfg.StorageService.URL)
	}
	if cfg.StorageService.User != "test" || cfg.StorageService.Key != "secret" {
		t.Fatalf("StorageService credentials = %q/%q", cfg.StorageService.User, cfg.StorageService.Key)
	}
	if !cfg.Report.Enabled() || cfg.Report.URL != "http://reports.example/" {
		t.Fatalf("Report.URL = %q", cfg.Report.URL)
	}
	if cfg.Report.Username != "alice" || cfg.Report.Password != "pw" {
		t.Fatalf("Report credentials = %q/%q", cfg.Report.Username, cfg.Report.Password)
	}
	if cfg.Database.Driver != "sqlite" || cfg.Cache.Driver != "sqlite" {
		t.Fatalf("defaults = %+v / %+v", cfg.Database, cfg.Cache)
	}
	if cfg.StorageService.Paging != "cursor" {
		t.Fatalf("StorageService.Paging = %q", cfg.StorageService.Paging)
	}
}

func TestLoadPrefixedEnvWins(t *testing.T) {
	setStorageEnv(t)
	t.Setenv("FIXITY_STORAGE_SERVICE_URL", "http://prefixed.example/")
	t.Setenv("FIXITY_CACHE_DRIVER", "memory")

	cfg, err := Load(context.Background(), "")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.StorageService.URL != "http://prefixed.example/" {
		t.Fatalf("StorageService.URL = %q", cfg.StorageService.URL)
	}
	if cfg.Cache.Driver != "memory" {
		t.Fatalf("Cache.Driver = %q", cfg.Cache.Driver)
	}
}

func TestLoadReportingDisabledByDefault(t *testing.T) {
	setStorageEnv(t)

	cfg, err := Load(context.Background(), "")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Report.Enabled() {
		t.Fatalf("Report.Enabled() = true without REPORT_URL")
	}
}

func TestLoadMissingStorageServiceIsInvalid(t *testing.T) {
	t.Setenv("STORAGE_SERVICE_URL", "")
	t.Setenv("STORAGE_SERVICE_USER", "")
	t.Setenv("STORAGE_SERVICE_KEY", "")

	_, err := Load(context.Background(), "")
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("Load() error = %v, want ErrInvalidConfig", err)
	}
}

func TestLoadConfigFile(t *testing.T) {
	setStorageEnv(t)

	path := filepath.Join(t.TempDir(), "fixity.yaml")
	content := []byte(`
database:
  dsn: /tmp/fixity-test.sqlite
storage_service:
  paging: offset
  page_size: 50
  requests_per_second: 2.5
cache:
  driver: redis
  redis_url: redis://localhost:6379/0
  ttl: 1h
`)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Database.DSN != "/tmp/fixity-test.sqlite" {
		t.Fatalf("Database.DSN = %q", cfg.Database.DSN)
	}
	if cfg.StorageService.Paging != "offset" || cfg.StorageService.PageSize != 50 {
		t.Fatalf("paging = %q/%d", cfg.StorageService.Paging, cfg.StorageService.PageSize)
	}
	if cfg.StorageService.RequestsPerSecond != 2.5 {
		t.Fatalf("RequestsPerSecond = %v", cfg.StorageService.RequestsPerSecond)
	}
	if cfg.Cache.TTL != time.Hour {
		t.Fatalf("Cache.TTL = %v", cfg.Cache.TTL)
	}
}

func TestLoadMissingExplicitFileFails(t *testing.T) {
	setStorageEnv(t)

	_, err := Load(context.Background(), filepath.Join(t.TempDir(), "missing.yaml"))
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("Load() error = %v, want ErrInvalidConfig", err)
	}
}

func TestValidateRejectsRedisWithoutURL(t *testing.T) {
	setStorageEnv(t)
	t.Setenv("FIXITY_CACHE_DRIVER", "redis")

	_, err := Load(context.Background(), "")
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("Load() error = %v, want ErrInvalidConfig", err)
	}
}
