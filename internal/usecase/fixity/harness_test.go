package fixity

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/artefactual/fixity/internal/infrastructure/persistence/sqlite/model"
	sqliterepo "github.com/artefactual/fixity/internal/infrastructure/persistence/sqlite/repository"
	sqliteuow "github.com/artefactual/fixity/internal/infrastructure/persistence/sqlite/uow"
	"github.com/artefactual/fixity/internal/infrastructure/reportservice"
	"github.com/artefactual/fixity/internal/infrastructure/storageservice"
	"github.com/artefactual/fixity/internal/ports"
	"github.com/artefactual/fixity/internal/testutil"
)

const (
	aipOne   = "3f1e6c1a-5a7b-4c4e-9c2f-0c1d2e3f4a5b"
	aipTwo   = "8a6f0a2b-1c3d-4e5f-8a9b-0c1d2e3f4a5c"
	aipThree = "c5d0e1f2-0a1b-4c2d-9e3f-4a5b6c7d8e9f"
	session  = "0d0c7e34-7d5c-4a3e-9a43-2c1f0d9b8a70"
)

type harnessConfig struct {
	Packages  []testutil.FakePackage
	Reporting bool
	// Storage wraps the storage client, if set.
	Storage func(ports.StorageService) ports.StorageService
	// Repo wraps the report repository, if set.
	Repo    func(ports.ReportRepository) ports.ReportRepository
	Options []Option
}

type harness struct {
	svc     *Service
	storage *testutil.FakeStorage
	reports *testutil.FakeReports
	repo    *sqliterepo.ReportRepository
	clock   *fakeClock
	sleeps  []time.Duration
}

func newHarness(t *testing.T, cfg harnessConfig) *harness {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "fixity.sqlite")
	db, err := gorm.Open(gormsqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db: %v", err)
	}
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})
	if err := db.AutoMigrate(&model.Package{}, &model.Report{}); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}

	h := &harness{
		storage: testutil.NewFakeStorage(t, cfg.Packages...),
		repo:    sqliterepo.NewReportRepository(db),
		clock:   &fakeClock{now: time.Date(2018, 1, 1, 3, 0, 0, 0, time.UTC)},
	}

	storageClient, err := storageservice.NewClient(storageservice.Config{
		BaseURL: h.storage.URL(),
		User:    testutil.FakeUser,
		Key:     testutil.FakeKey,
		Timeout: 5 * time.Second,
	})
	if err != nil {
		t.Fatalf("storageservice.NewClient() error = %v", err)
	}
	var storage ports.StorageService = storageClient
	if cfg.Storage != nil {
		storage = cfg.Storage(storage)
	}
	var repo ports.ReportRepository = h.repo
	if cfg.Repo != nil {
		repo = cfg.Repo(repo)
	}

	opts := []Option{
		WithClock(h.clock.Now, func(_ context.Context, d time.Duration) error {
			h.sleeps = append(h.sleeps, d)
			return nil
		}),
		WithSessionIDs(func() string { return session }),
	}
	if cfg.Reporting {
		h.reports = testutil.NewFakeReports(t)
		reportClient, err := reportservice.NewClient(reportservice.Config{URL: h.reports.URL(), Timeout: 5 * time.Second})
		if err != nil {
			t.Fatalf("reportservice.NewClient() error = %v", err)
		}
		opts = append(opts, WithReportService(reportClient))
	}
	opts = append(opts, cfg.Options...)

	h.svc = NewService(storage, repo, sqliteuow.NewUnitOfWork(db), opts...)
	return h
}

func (h *harness) reportsFor(t *testing.T, aip string) []ports.ReportRecord {
	t.Helper()
	records, err := h.repo.ListReports(context.Background(), ports.ReportFilter{PackageUUID: aip})
	if err != nil {
		t.Fatalf("ListReports() error = %v", err)
	}
	return records
}

func uploaded(uuids ...string) []testutil.FakePackage {
	packages := make([]testutil.FakePackage, 0, len(uuids))
	for _, uuid := range uuids {
		packages = append(packages, testutil.FakePackage{UUID: uuid, PackageType: "AIP", Status: "UPLOADED"})
	}
	return packages
}

// fakeClock advances one second per reading.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}
