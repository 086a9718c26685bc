package fixity

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/artefactual/fixity/internal/bootstrap/logging"
	domainfixity "github.com/artefactual/fixity/internal/domain/fixity"
	"github.com/artefactual/fixity/internal/errs"
	"github.com/artefactual/fixity/internal/ports"
)

// PackageStatus is the latest known scan state of a package, as kept in the
// status cache.
type PackageStatus struct {
	AIP            string `json:"aip_uuid"`
	ReportID       uint64 `json:"report_id"`
	SessionID      string `json:"session_uuid"`
	Outcome        string `json:"outcome"`
	DeliveryStatus string `json:"delivery_status"`
	Message        string `json:"message"`
	Started        int64  `json:"started"`
	Finished       int64  `json:"finished"`
}

func StatusKey(aip string) string {
	return "status:" + aip
}

func statusFromResult(result domainfixity.ScanResult) PackageStatus {
	return PackageStatus{
		AIP:            result.AIP,
		ReportID:       result.ReportID,
		SessionID:      result.SessionID,
		Outcome:        string(result.Outcome),
		DeliveryStatus: string(result.DeliveryStatus),
		Message:        result.Message,
		Started:        result.StartedAt.Unix(),
		Finished:       result.FinishedAt.Unix(),
	}
}

func statusFromRecord(record ports.ReportRecord) PackageStatus {
	status := PackageStatus{
		AIP:            record.PackageUUID,
		ReportID:       record.ID,
		SessionID:      record.SessionID,
		Outcome:        record.Outcome,
		DeliveryStatus: record.DeliveryStatus,
		Message:        record.Message,
	}
	if begun, err := time.Parse(time.RFC3339, record.Begun); err == nil {
		status.Started = begun.Unix()
	}
	if ended, err := time.Parse(time.RFC3339, record.Ended); err == nil {
		status.Finished = ended.Unix()
	}
	return status
}

// PackageStatus returns the latest status of aip, from the cache when
// possible and from the record store otherwise. cached reports which one
// answered. A package that was never scanned yields ports.ErrReportNotFound.
func (s *Service) PackageStatus(ctx context.Context, identifier string) (status PackageStatus, cached bool, err error) {
	if ctx == nil {
		return PackageStatus{}, false, errors.New("context is required")
	}
	aip, err := domainfixity.ValidateIdentifier(identifier)
	if err != nil {
		return PackageStatus{}, false, err
	}

	logCtx := logging.WithAttrs(ctx, slog.String("component", "usecase.fixity.status"), slog.String("aip_uuid", aip))

	if s.cache != nil {
		value, found, err := s.cache.Get(ctx, StatusKey(aip))
		switch {
		case err != nil:
			logging.Warn(logCtx, "read status cache failed", slog.Any("err", errs.Loggable(err)))
		case found:
			if err := json.Unmarshal([]byte(value), &status); err == nil {
				return status, true, nil
			}
			logging.Warn(logCtx, "discard undecodable status cache entry")
		}
	}

	if s.repo == nil {
		return PackageStatus{}, false, errors.New("report repository is required")
	}
	record, err := s.repo.LatestReport(ctx, aip)
	if err != nil {
		return PackageStatus{}, false, err
	}
	status = statusFromRecord(record)

	if s.cache != nil {
		if value, err := json.Marshal(status); err == nil {
			if err := s.cache.Set(ctx, StatusKey(aip), string(value), s.cacheTTL); err != nil {
				logging.Warn(logCtx, "refill status cache failed", slog.Any("err", errs.Loggable(err)))
			}
		}
	}
	return status, false, nil
}
