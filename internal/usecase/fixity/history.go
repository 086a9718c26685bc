package fixity

import (
	"context"
	"errors"
	"strings"

	domainfixity "github.com/artefactual/fixity/internal/domain/fixity"
	"github.com/artefactual/fixity/internal/ports"
)

type ReportQuery struct {
	AIP       string
	SessionID string
	Outcome   string
	Limit     int
}

// ListReports returns recorded reports, newest first.
func (s *Service) ListReports(ctx context.Context, query ReportQuery) ([]ports.ReportRecord, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}
	if s.repo == nil {
		return nil, errors.New("report repository is required")
	}

	filter := ports.ReportFilter{
		SessionID: strings.TrimSpace(query.SessionID),
		Outcome:   strings.ToLower(strings.TrimSpace(query.Outcome)),
		Limit:     query.Limit,
	}
	if query.AIP != "" {
		aip, err := domainfixity.ValidateIdentifier(query.AIP)
		if err != nil {
			return nil, err
		}
		filter.PackageUUID = aip
	}
	if filter.Outcome != "" && !domainfixity.Outcome(filter.Outcome).Valid() {
		return nil, errors.New("outcome must be one of success, failure, indeterminate")
	}

	return s.repo.ListReports(ctx, filter)
}

func (s *Service) GetReport(ctx context.Context, reportID uint64) (ports.ReportRecord, error) {
	if ctx == nil {
		return ports.ReportRecord{}, errors.New("context is required")
	}
	if s.repo == nil {
		return ports.ReportRecord{}, errors.New("report repository is required")
	}
	return s.repo.GetReport(ctx, reportID)
}

// Stats counts recorded reports per outcome. Outcomes without reports are
// listed with a zero count.
func (s *Service) Stats(ctx context.Context) ([]ports.OutcomeCount, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}
	if s.repo == nil {
		return nil, errors.New("report repository is required")
	}

	counts, err := s.repo.CountByOutcome(ctx)
	if err != nil {
		return nil, err
	}

	byOutcome := make(map[string]int64, len(counts))
	for _, c := range counts {
		byOutcome[c.Outcome] = c.Count
	}

	out := make([]ports.OutcomeCount, 0, 3)
	for _, outcome := range []domainfixity.Outcome{
		domainfixity.OutcomeSuccess,
		domainfixity.OutcomeFailure,
		domainfixity.OutcomeIndeterminate,
	} {
		out = append(out, ports.OutcomeCount{Outcome: string(outcome), Count: byOutcome[string(outcome)]})
	}
	return out, nil
}
