package reportconsole

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/tidwall/gjson"

	"github.com/artefactual/fixity/internal/ports"
	"github.com/artefactual/fixity/internal/usecase/fixity"
)

const maxReportLines = 14

var outcomeFilters = []string{"", "success", "failure", "indeterminate"}

// ReportSource is the read side of the fixity service used by the console.
type ReportSource interface {
	ListReports(ctx context.Context, query fixity.ReportQuery) ([]ports.ReportRecord, error)
	GetReport(ctx context.Context, reportID uint64) (ports.ReportRecord, error)
	Stats(ctx context.Context) ([]ports.OutcomeCount, error)
}

type Options struct {
	AIP             string
	Outcome         string
	Limit           int
	RefreshInterval time.Duration
}

type reportModel struct {
	ctx             context.Context
	source          ReportSource
	aipFilter       string
	outcomeFilter   string
	limit           int
	refreshInterval time.Duration

	reports       []ports.ReportRecord
	selectedIndex int
	detail        ports.ReportRecord
	hasDetail     bool
	stats         []ports.OutcomeCount
	status        string
}

type reportsLoadedMsg struct {
	items []ports.ReportRecord
	stats []ports.OutcomeCount
	err   error
}

type reportDetailLoadedMsg struct {
	reportID uint64
	detail   ports.ReportRecord
	err      error
}

type tickMsg struct{}

func NewReportModel(ctx context.Context, source ReportSource, options Options) tea.Model {
	interval := options.RefreshInterval
	if interval <= 0 {
		interval = 5 * time.Second
	}
	limit := options.Limit
	if limit <= 0 {
		limit = 50
	}

	return &reportModel{
		ctx:             ctx,
		source:          source,
		aipFilter:       strings.TrimSpace(options.AIP),
		outcomeFilter:   strings.ToLower(strings.TrimSpace(options.Outcome)),
		limit:           limit,
		refreshInterval: interval,
		status:          "loading",
	}
}

func (m *reportModel) Init() tea.Cmd {
	return tea.Batch(m.loadReportsCmd(), m.tickCmd())
}

func (m *reportModel) Update(message tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := message.(type) {
	case tickMsg:
		return m, tea.Batch(m.loadReportsCmd(), m.tickCmd())
	case reportsLoadedMsg:
		if msg.err != nil {
			m.status = "refresh failed: " + msg.err.Error()
			return m, nil
		}
		m.reports = msg.items
		m.stats = msg.stats
		if len(m.reports) == 0 {
			m.selectedIndex = 0
			m.hasDetail = false
			m.status = "no reports"
			return m, nil
		}
		if m.selectedIndex < 0 {
			m.selectedIndex = 0
		}
		if m.selectedIndex >= len(m.reports) {
			m.selectedIndex = len(m.reports) - 1
		}
		m.status = fmt.Sprintf("refreshed, %d reports", len(m.reports))
		return m, m.loadSelectedDetailCmd()
	case reportDetailLoadedMsg:
		if !m.isCurrentSelection(msg.reportID) {
			return m, nil
		}
		if msg.err != nil {
			m.hasDetail = false
			m.status = "detail failed: " + msg.err.Error()
			return m, nil
		}
		m.detail = msg.detail
		m.hasDetail = true
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "g":
			m.status = "refreshing"
			return m, m.loadReportsCmd()
		case "f":
			m.outcomeFilter = nextOutcomeFilter(m.outcomeFilter)
			m.selectedIndex = 0
			m.status = "filter " + firstNonEmpty(m.outcomeFilter, "all")
			return m, m.loadReportsCmd()
		case "up", "k":
			if m.selectedIndex > 0 {
				m.selectedIndex--
				return m, m.loadSelectedDetailCmd()
			}
			return m, nil
		case "down", "j":
			if m.selectedIndex < len(m.reports)-1 {
				m.selectedIndex++
				return m, m.loadSelectedDetailCmd()
			}
			return m, nil
		}
	}
	return m, nil
}

func (m *reportModel) View() string {
	titleStyle := lipgloss.NewStyle().Bold(true)
	sectionStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	selectedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("229")).Background(lipgloss.Color("62"))

	var builder strings.Builder
	builder.WriteString(titleStyle.Render("Fixity Reports"))
	builder.WriteString("\n")
	builder.WriteString(dimStyle.Render(fmt.Sprintf(
		"aip=%s outcome=%s limit=%d refresh=%s",
		firstNonEmpty(m.aipFilter, "all"),
		firstNonEmpty(m.outcomeFilter, "all"),
		m.limit,
		m.refreshInterval,
	)))
	builder.WriteString("\n\n")

	builder.WriteString(sectionStyle.Render("Totals"))
	builder.WriteString("\n")
	if len(m.stats) == 0 {
		builder.WriteString(dimStyle.Render("- none"))
		builder.WriteString("\n\n")
	} else {
		parts := make([]string, 0, len(m.stats))
		for _, stat := range m.stats {
			parts = append(parts, fmt.Sprintf("%s=%d", stat.Outcome, stat.Count))
		}
		builder.WriteString(strings.Join(parts, " "))
		builder.WriteString("\n\n")
	}

	builder.WriteString(sectionStyle.Render("Reports"))
	builder.WriteString("\n")
	if len(m.reports) == 0 {
		builder.WriteString(dimStyle.Render("- no reports"))
		builder.WriteString("\n\n")
	} else {
		for index, item := range m.reports {
			line := fmt.Sprintf(
				"#%d %s [%s] delivery=%s ended=%s",
				item.ID,
				item.PackageUUID,
				item.Outcome,
				item.DeliveryStatus,
				item.Ended,
			)
			if index == m.selectedIndex {
				builder.WriteString(selectedStyle.Render("> " + line))
			} else {
				builder.WriteString("  " + line)
			}
			builder.WriteString("\n")
		}
		builder.WriteString("\n")
	}

	builder.WriteString(sectionStyle.Render("Detail"))
	builder.WriteString("\n")
	if !m.hasDetail {
		builder.WriteString(dimStyle.Render("- no detail"))
		builder.WriteString("\n\n")
	} else {
		builder.WriteString(fmt.Sprintf("Report: %d\n", m.detail.ID))
		builder.WriteString(fmt.Sprintf("AIP: %s\n", m.detail.PackageUUID))
		builder.WriteString(fmt.Sprintf("Session: %s\n", firstNonEmpty(m.detail.SessionID, "-")))
		builder.WriteString(fmt.Sprintf("Begun: %s  Ended: %s\n", m.detail.Begun, m.detail.Ended))
		builder.WriteString(fmt.Sprintf("Outcome: %s  Delivery: %s\n", m.detail.Outcome, m.detail.DeliveryStatus))
		builder.WriteString(fmt.Sprintf("Message: %s\n", firstNonEmpty(m.detail.Message, "-")))
		builder.WriteString(fmt.Sprintf("Files: %s\n", failureCounts(m.detail.Report)))
		builder.WriteString("\nPayload:\n")
		for _, line := range payloadLines(m.detail.Report, maxReportLines) {
			builder.WriteString("  " + line + "\n")
		}
		builder.WriteString("\n")
	}

	builder.WriteString(sectionStyle.Render("Status"))
	builder.WriteString("\n")
	builder.WriteString("- " + firstNonEmpty(m.status, "ready"))
	builder.WriteString("\n\n")

	builder.WriteString(dimStyle.Render("Keys: ↑/k ↓/j move  f outcome filter  g refresh  q quit"))
	return builder.String()
}

func (m *reportModel) tickCmd() tea.Cmd {
	return tea.Tick(m.refreshInterval, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}

func (m *reportModel) loadReportsCmd() tea.Cmd {
	query := fixity.ReportQuery{AIP: m.aipFilter, Outcome: m.outcomeFilter, Limit: m.limit}
	return func() tea.Msg {
		items, err := m.source.ListReports(m.ctx, query)
		if err != nil {
			return reportsLoadedMsg{err: err}
		}
		stats, err := m.source.Stats(m.ctx)
		if err != nil {
			return reportsLoadedMsg{err: err}
		}
		return reportsLoadedMsg{items: items, stats: stats}
	}
}

func (m *reportModel) loadSelectedDetailCmd() tea.Cmd {
	selected, ok := m.selectedReport()
	if !ok {
		return nil
	}

	return func() tea.Msg {
		detail, err := m.source.GetReport(m.ctx, selected.ID)
		if err != nil {
			return reportDetailLoadedMsg{reportID: selected.ID, err: err}
		}
		return reportDetailLoadedMsg{reportID: selected.ID, detail: detail}
	}
}

func (m *reportModel) selectedReport() (ports.ReportRecord, bool) {
	if m.selectedIndex < 0 || m.selectedIndex >= len(m.reports) {
		return ports.ReportRecord{}, false
	}
	return m.reports[m.selectedIndex], true
}

func (m *reportModel) isCurrentSelection(reportID uint64) bool {
	selected, ok := m.selectedReport()
	return ok && selected.ID == reportID
}

func nextOutcomeFilter(current string) string {
	for i, filter := range outcomeFilters {
		if filter == current {
			return outcomeFilters[(i+1)%len(outcomeFilters)]
		}
	}
	return ""
}

// failureCounts summarises the file lists a storage service attaches to a
// failed scan.
func failureCounts(report string) string {
	files := gjson.Get(report, "failures.files")
	if !files.Exists() {
		return "-"
	}
	return fmt.Sprintf(
		"missing=%d changed=%d untracked=%d",
		len(files.Get("missing").Array()),
		len(files.Get("changed").Array()),
		len(files.Get("untracked").Array()),
	)
}

func payloadLines(report string, limit int) []string {
	var out bytes.Buffer
	if err := json.Indent(&out, []byte(report), "", "  "); err != nil {
		return []string{firstNonEmpty(report, "-")}
	}
	lines := strings.Split(out.String(), "\n")
	if len(lines) > limit {
		lines = append(lines[:limit], fmt.Sprintf("... %d more lines", len(lines)-limit))
	}
	return lines
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}
