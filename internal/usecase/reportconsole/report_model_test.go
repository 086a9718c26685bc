package reportconsole

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/artefactual/fixity/internal/ports"
	"github.com/artefactual/fixity/internal/usecase/fixity"
)

type stubSource struct {
	items   []ports.ReportRecord
	queries []fixity.ReportQuery
}

func (s *stubSource) ListReports(_ context.Context, query fixity.ReportQuery) ([]ports.ReportRecord, error) {
	s.queries = append(s.queries, query)
	return s.items, nil
}

func (s *stubSource) GetReport(_ context.Context, reportID uint64) (ports.ReportRecord, error) {
	for _, item := range s.items {
		if item.ID == reportID {
			return item, nil
		}
	}
	return ports.ReportRecord{}, ports.ErrReportNotFound
}

func (s *stubSource) Stats(context.Context) ([]ports.OutcomeCount, error) {
	return []ports.OutcomeCount{{Outcome: "success", Count: 1}, {Outcome: "failure", Count: 1}}, nil
}

func newTestModel(source ReportSource) *reportModel {
	return NewReportModel(context.Background(), source, Options{}).(*reportModel)
}

func TestReportsLoadedClampsSelection(t *testing.T) {
	model := newTestModel(&stubSource{})
	model.selectedIndex = 5

	next, cmd := model.Update(reportsLoadedMsg{items: []ports.ReportRecord{{ID: 2}, {ID: 1}}})
	updated := next.(*reportModel)
	if updated.selectedIndex != 1 {
		t.Fatalf("selectedIndex = %d, want 1", updated.selectedIndex)
	}
	if cmd == nil {
		t.Fatalf("expected detail load command")
	}
}

func TestReportsLoadedErrorKeepsState(t *testing.T) {
	model := newTestModel(&stubSource{})
	model.reports = []ports.ReportRecord{{ID: 1}}

	next, _ := model.Update(reportsLoadedMsg{err: errors.New("database is locked")})
	updated := next.(*reportModel)
	if len(updated.reports) != 1 {
		t.Fatalf("reports dropped on error")
	}
	if !strings.Contains(updated.status, "database is locked") {
		t.Fatalf("status = %q", updated.status)
	}
}

func TestDetailLoadedIgnoresStaleSelection(t *testing.T) {
	model := newTestModel(&stubSource{})
	model.reports = []ports.ReportRecord{{ID: 2}, {ID: 1}}
	model.selectedIndex = 1

	next, _ := model.Update(reportDetailLoadedMsg{reportID: 2, detail: ports.ReportRecord{ID: 2}})
	if next.(*reportModel).hasDetail {
		t.Fatalf("stale detail should be ignored")
	}

	next, _ = model.Update(reportDetailLoadedMsg{reportID: 1, detail: ports.ReportRecord{ID: 1}})
	if !next.(*reportModel).hasDetail {
		t.Fatalf("current detail should be applied")
	}
}

func TestFilterKeyCyclesOutcome(t *testing.T) {
	source := &stubSource{}
	model := newTestModel(source)

	want := []string{"success", "failure", "indeterminate", ""}
	for _, outcome := range want {
		next, cmd := model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("f")})
		model = next.(*reportModel)
		if model.outcomeFilter != outcome {
			t.Fatalf("outcomeFilter = %q, want %q", model.outcomeFilter, outcome)
		}
		if cmd == nil {
			t.Fatalf("expected reload command")
		}
		msg := cmd()
		if _, ok := msg.(reportsLoadedMsg); !ok {
			t.Fatalf("reload produced %T", msg)
		}
	}
	if got := source.queries[0].Outcome; got != "success" {
		t.Fatalf("first query outcome = %q, want success", got)
	}
}

func TestViewRendersDetail(t *testing.T) {
	model := newTestModel(&stubSource{})
	model.reports = []ports.ReportRecord{{ID: 7, PackageUUID: "3f1e6c1a-5a7b-4c4e-9c2f-0c1d2e3f4a5b", Outcome: "failure"}}
	model.stats = []ports.OutcomeCount{{Outcome: "failure", Count: 1}}
	model.hasDetail = true
	model.detail = ports.ReportRecord{
		ID:             7,
		PackageUUID:    "3f1e6c1a-5a7b-4c4e-9c2f-0c1d2e3f4a5b",
		Outcome:        "failure",
		DeliveryStatus: "delivered",
		Message:        "Bag validation failed",
		Report:         `{"success": false, "failures": {"files": {"missing": ["a", "b"], "changed": ["c"], "untracked": []}}}`,
	}

	view := model.View()
	for _, want := range []string{
		"Fixity Reports",
		"failure=1",
		"#7 3f1e6c1a-5a7b-4c4e-9c2f-0c1d2e3f4a5b [failure]",
		"Message: Bag validation failed",
		"Files: missing=2 changed=1 untracked=0",
		`"success": false`,
	} {
		if !strings.Contains(view, want) {
			t.Fatalf("view missing %q:\n%s", want, view)
		}
	}
}

func TestPayloadLinesTruncates(t *testing.T) {
	lines := payloadLines(`{"a":1,"b":2,"c":3,"d":4}`, 3)
	if len(lines) != 4 || !strings.HasPrefix(lines[3], "... ") {
		t.Fatalf("payloadLines() = %q", lines)
	}
	if got := payloadLines("not json", 3); len(got) != 1 || got[0] != "not json" {
		t.Fatalf("payloadLines(invalid) = %q", got)
	}
}
