package fixity

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/artefactual/fixity/internal/bootstrap/logging"
	domainfixity "github.com/artefactual/fixity/internal/domain/fixity"
	"github.com/artefactual/fixity/internal/errs"
	"github.com/artefactual/fixity/internal/ports"
)

type ScanOptions struct {
	// SessionID groups the reports of one run. A new one is generated when
	// empty.
	SessionID  string
	ForceLocal bool
}

// Scan verifies one package.
//
// Only two failures leave Scan without a verdict: an invalid identifier
// (no result, nothing recorded) and a failed write to the record store, in
// which case the returned *ScanError carries the unrecorded result. Every
// storage or reporting failure is folded into the returned ScanResult.
//
// Once the identifier is valid the scan runs to completion even if ctx is
// cancelled, so a result is never half recorded.
func (s *Service) Scan(ctx context.Context, identifier string, opts ScanOptions) (domainfixity.ScanResult, error) {
	if ctx == nil {
		return domainfixity.ScanResult{}, errors.New("context is required")
	}
	if s.storage == nil || s.repo == nil || s.uow == nil {
		return domainfixity.ScanResult{}, errors.New("storage service, report repository and unit of work are required")
	}

	aip, err := domainfixity.ValidateIdentifier(identifier)
	if err != nil {
		return domainfixity.ScanResult{}, &domainfixity.ScanError{AIP: identifier, Err: err}
	}

	sessionID := opts.SessionID
	if sessionID == "" {
		sessionID = s.newSessionID()
	}

	ctx, span := s.tracer.Start(context.WithoutCancel(ctx), "fixity.scan", trace.WithAttributes(
		attribute.String("aip.uuid", aip),
		attribute.String("session.uuid", sessionID),
		attribute.Bool("force_local", opts.ForceLocal),
	))
	defer span.End()

	logCtx := logging.WithAttrs(logging.WithSpan(ctx),
		slog.String("component", "usecase.fixity.scan"),
		slog.String("aip_uuid", aip),
		slog.String("session_uuid", sessionID),
	)

	result := s.drive(ctx, logCtx, aip, sessionID, opts.ForceLocal)
	span.SetAttributes(attribute.String("fixity.outcome", string(result.Outcome)))

	if err := s.record(ctx, &result); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "record scan result")
		logging.Error(logCtx, "record scan result failed", slog.Any("err", errs.Loggable(err)))
		return result, &domainfixity.ScanError{AIP: aip, Err: err, Result: &result}
	}

	s.deliver(ctx, logCtx, &result)
	span.SetAttributes(attribute.String("fixity.delivery_status", string(result.DeliveryStatus)))

	s.announce(ctx, logCtx, result)

	logging.Info(logCtx, "scan finished",
		slog.String("outcome", string(result.Outcome)),
		slog.String("delivery_status", string(result.DeliveryStatus)),
		slog.Uint64("report_id", result.ReportID),
	)
	return result, nil
}

// drive runs the lookup, pre-scan notice and verification steps. It always
// returns a result.
func (s *Service) drive(ctx context.Context, logCtx context.Context, aip string, sessionID string, forceLocal bool) domainfixity.ScanResult {
	lookupStarted := s.now()
	if err := s.storage.GetPackage(ctx, aip); err != nil {
		logging.Warn(logCtx, "package lookup failed", slog.Any("err", errs.Loggable(err)))
		return domainfixity.NewIndeterminateResult(aip, sessionID, lookupStarted, s.now(), err)
	}

	started := s.now()

	if s.reports != nil {
		body := domainfixity.BuildPreScanBody(domainfixity.Truncate(started), sessionID)
		if err := s.reports.PostPreScan(ctx, aip, body); err != nil {
			logging.Warn(logCtx, domainfixity.PreScanFailureLine(s.reports.Endpoint()), slog.Any("err", errs.Loggable(err)))
		}
	}

	body, err := s.storage.CheckFixity(ctx, aip, forceLocal)
	if err != nil {
		logging.Warn(logCtx, "fixity check failed", slog.Any("err", errs.Loggable(err)))
		return domainfixity.NewVerificationFailureResult(aip, sessionID, started, s.now(), err)
	}

	return domainfixity.NewVerifiedResult(aip, sessionID, started, s.now(), body)
}

func (s *Service) record(ctx context.Context, result *domainfixity.ScanResult) error {
	var (
		packageID uint64
		reportID  uint64
	)

	if err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		pkg, err := s.repo.EnsurePackage(txCtx, result.AIP, formatTime(s.now()))
		if err != nil {
			return err
		}

		report, err := s.repo.AppendReport(txCtx, ports.ReportCreate{
			PackageID:      pkg.ID,
			SessionID:      result.SessionID,
			Begun:          formatTime(result.StartedAt),
			Ended:          formatTime(result.FinishedAt),
			Outcome:        string(result.Outcome),
			DeliveryStatus: string(result.DeliveryStatus),
			Message:        result.Message,
			Report:         string(result.Report),
		})
		if err != nil {
			return err
		}

		packageID = pkg.ID
		reportID = report.ID
		return nil
	}); err != nil {
		return errs.Wrap(err, "record scan result")
	}

	result.PackageID = packageID
	result.ReportID = reportID
	return nil
}

// deliver sends the report when a reporting service is configured. A result
// the storage service never answered is marked failed without being sent.
func (s *Service) deliver(ctx context.Context, logCtx context.Context, result *domainfixity.ScanResult) {
	if s.reports == nil {
		return
	}

	if !result.Publishable() {
		logging.Debug(logCtx, "storage service did not answer, report not sent")
		if err := s.recordDelivery(ctx, result, domainfixity.DeliveryFailed); err != nil {
			logging.Warn(logCtx, "record delivery status failed", slog.Any("err", errs.Loggable(err)))
		}
		return
	}

	if err := s.Publish(ctx, result); err != nil {
		logging.Warn(logCtx, domainfixity.DeliveryFailureLine(result.AIP), slog.Any("err", errs.Loggable(err)))
	}
}

// announce updates the status cache, metrics and event stream. None of them
// can fail the scan.
func (s *Service) announce(ctx context.Context, logCtx context.Context, result domainfixity.ScanResult) {
	if s.metrics != nil {
		s.metrics.ObserveScan(string(result.Outcome), string(result.DeliveryStatus), result.Duration())
	}

	status := statusFromResult(result)

	if s.cache != nil {
		value, err := json.Marshal(status)
		if err == nil {
			err = s.cache.Set(ctx, StatusKey(result.AIP), string(value), s.cacheTTL)
		}
		if err != nil {
			logging.Warn(logCtx, "cache scan status failed", slog.Any("err", errs.Loggable(err)))
		}
	}

	if s.events != nil {
		if err := s.events.PublishScan(ctx, ports.ScanEvent{
			AIP:            status.AIP,
			SessionID:      status.SessionID,
			ReportID:       status.ReportID,
			Outcome:        status.Outcome,
			DeliveryStatus: status.DeliveryStatus,
			Message:        status.Message,
			Started:        status.Started,
			Finished:       status.Finished,
		}); err != nil {
			logging.Warn(logCtx, "publish scan event failed", slog.Any("err", errs.Loggable(err)))
		}
	}
}
