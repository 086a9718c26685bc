package fixity

import (
	"context"
	"errors"
	"testing"

	domainfixity "github.com/artefactual/fixity/internal/domain/fixity"
	"github.com/artefactual/fixity/internal/infrastructure/cache"
	"github.com/artefactual/fixity/internal/ports"
	"github.com/artefactual/fixity/internal/testutil"
)

func TestListReportsAndStats(t *testing.T) {
	h := newHarness(t, harnessConfig{Packages: uploaded(aipOne, aipTwo)})
	h.storage.SetFixity(aipTwo, testutil.FixityReply{Body: `{"success": false}`})

	if _, err := h.svc.ScanAll(context.Background(), ScanAllOptions{}); err != nil {
		t.Fatalf("ScanAll() error = %v", err)
	}
	if _, err := h.svc.Scan(context.Background(), aipOne, ScanOptions{}); err != nil {
		t.Fatalf("Scan() error = %v", err)
	}

	all, err := h.svc.ListReports(context.Background(), ReportQuery{})
	if err != nil {
		t.Fatalf("ListReports() error = %v", err)
	}
	if len(all) != 3 || all[0].PackageUUID != aipOne {
		t.Fatalf("ListReports() = %+v, want newest first", all)
	}

	failures, err := h.svc.ListReports(context.Background(), ReportQuery{Outcome: "FAILURE"})
	if err != nil {
		t.Fatalf("ListReports(failure) error = %v", err)
	}
	if len(failures) != 1 || failures[0].PackageUUID != aipTwo {
		t.Fatalf("ListReports(failure) = %+v", failures)
	}

	if _, err := h.svc.ListReports(context.Background(), ReportQuery{Outcome: "maybe"}); err == nil {
		t.Fatalf("ListReports() accepted unknown outcome")
	}
	if _, err := h.svc.ListReports(context.Background(), ReportQuery{AIP: "nope"}); !errors.Is(err, domainfixity.ErrInvalidIdentifier) {
		t.Fatalf("ListReports() error = %v, want ErrInvalidIdentifier", err)
	}

	report, err := h.svc.GetReport(context.Background(), failures[0].ID)
	if err != nil {
		t.Fatalf("GetReport() error = %v", err)
	}
	if report.Outcome != "failure" {
		t.Fatalf("GetReport() = %+v", report)
	}

	stats, err := h.svc.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	want := []ports.OutcomeCount{
		{Outcome: "success", Count: 2},
		{Outcome: "failure", Count: 1},
		{Outcome: "indeterminate", Count: 0},
	}
	for i := range want {
		if stats[i] != want[i] {
			t.Fatalf("Stats() = %+v, want %+v", stats, want)
		}
	}
}

func TestPackageStatusFallsBackToRecords(t *testing.T) {
	statusCache, err := cache.NewMemoryCache(8)
	if err != nil {
		t.Fatalf("NewMemoryCache() error = %v", err)
	}
	h := newHarness(t, harnessConfig{Packages: uploaded(aipOne)})

	result, err := h.svc.Scan(context.Background(), aipOne, ScanOptions{})
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}

	WithCache(statusCache, 0)(h.svc)

	status, cached, err := h.svc.PackageStatus(context.Background(), aipOne)
	if err != nil {
		t.Fatalf("PackageStatus() error = %v", err)
	}
	if cached {
		t.Fatalf("first PackageStatus() claims a cache hit")
	}
	if status.ReportID != result.ReportID || status.Started != result.StartedAt.Unix() || status.Finished != result.FinishedAt.Unix() {
		t.Fatalf("status = %+v, result = %+v", status, result)
	}

	if _, cached, err := h.svc.PackageStatus(context.Background(), aipOne); err != nil || !cached {
		t.Fatalf("second PackageStatus() = (cached %v, %v), want cache hit", cached, err)
	}
}

func TestPackageStatusNeverScanned(t *testing.T) {
	h := newHarness(t, harnessConfig{})

	if _, _, err := h.svc.PackageStatus(context.Background(), aipOne); !errors.Is(err, ports.ErrReportNotFound) {
		t.Fatalf("PackageStatus() error = %v, want ErrReportNotFound", err)
	}
}
