package fixity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/artefactual/fixity/internal/bootstrap/logging"
	domainfixity "github.com/artefactual/fixity/internal/domain/fixity"
	"github.com/artefactual/fixity/internal/errs"
)

type ScanAllOptions struct {
	Throttle   time.Duration
	ForceLocal bool
	// OnResult is called once per attempted package, in listing order.
	// Exactly one of result and err is set.
	OnResult func(pkg domainfixity.PackageSummary, result *domainfixity.ScanResult, err error)
}

// BatchEntry is the fate of one package in a batch.
type BatchEntry struct {
	Package domainfixity.PackageSummary
	Result  *domainfixity.ScanResult
	Err     error
}

type BatchSummary struct {
	SessionID string
	Attempted int
	Succeeded int
	Failed    int
	Internal  int
	Entries   []BatchEntry
	// Errors accumulates the internal errors of the run.
	Errors error
}

// Success is false when any package failed, was indeterminate or raised.
func (b BatchSummary) Success() bool {
	return b.Succeeded == b.Attempted
}

// ScanAll scans every eligible package in listing order, one at a time,
// sleeping opts.Throttle after each. It returns an error wrapping
// ErrCatalogUnavailable only when the catalog cannot be listed. Cancelling
// ctx stops the batch between packages; the summary then covers what was
// attempted and the error is ctx.Err().
func (s *Service) ScanAll(ctx context.Context, opts ScanAllOptions) (BatchSummary, error) {
	if ctx == nil {
		return BatchSummary{}, errors.New("context is required")
	}

	sessionID := s.newSessionID()
	summary := BatchSummary{SessionID: sessionID}

	ctx, span := s.tracer.Start(ctx, "fixity.scanall", trace.WithAttributes(attribute.String("session.uuid", sessionID)))
	defer span.End()

	logCtx := logging.WithAttrs(logging.WithSpan(ctx),
		slog.String("component", "usecase.fixity.scanall"),
		slog.String("session_uuid", sessionID),
	)

	packages, err := s.ListEligible(ctx)
	if err != nil {
		span.RecordError(err)
		logging.Error(logCtx, "list packages failed", slog.Any("err", errs.Loggable(err)))
		return summary, fmt.Errorf("%w: %w", domainfixity.ErrCatalogUnavailable, err)
	}
	logging.Info(logCtx, "batch started", slog.Int("packages", len(packages)))

	for i, pkg := range packages {
		if err := ctx.Err(); err != nil {
			logging.Warn(logCtx, "batch interrupted", slog.Int("attempted", summary.Attempted), slog.Int("remaining", len(packages)-i))
			return s.finishBatch(logCtx, summary), err
		}

		result, err := s.scanOne(ctx, pkg.UUID, ScanOptions{SessionID: sessionID, ForceLocal: opts.ForceLocal})
		summary.Attempted++

		entry := BatchEntry{Package: pkg}
		switch {
		case err != nil:
			summary.Internal++
			summary.Errors = errs.Append(summary.Errors, err)
			entry.Err = err
			if s.metrics != nil {
				s.metrics.ObserveInternalError(domainfixity.InternalErrorKind(err))
			}
			logging.Error(logCtx, domainfixity.InternalErrorLine(pkg.UUID, err), slog.Any("err", errs.Loggable(err)))
		case result.Succeeded():
			summary.Succeeded++
			entry.Result = &result
		default:
			summary.Failed++
			entry.Result = &result
		}
		summary.Entries = append(summary.Entries, entry)

		if opts.OnResult != nil {
			opts.OnResult(pkg, entry.Result, entry.Err)
		}

		if opts.Throttle > 0 {
			if err := s.sleep(ctx, opts.Throttle); err != nil {
				logging.Warn(logCtx, "batch interrupted during throttle", slog.Int("attempted", summary.Attempted))
				return s.finishBatch(logCtx, summary), err
			}
		}
	}

	return s.finishBatch(logCtx, summary), nil
}

// scanOne turns a panicking scan into a *PanicError so the batch goes on.
func (s *Service) scanOne(ctx context.Context, aip string, opts ScanOptions) (result domainfixity.ScanResult, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			result = domainfixity.ScanResult{}
			err = &domainfixity.PanicError{AIP: aip, Value: recovered, Stack: debug.Stack()}
		}
	}()
	return s.Scan(ctx, aip, opts)
}

func (s *Service) finishBatch(logCtx context.Context, summary BatchSummary) BatchSummary {
	if s.metrics != nil {
		s.metrics.ObserveBatch(summary.Attempted, summary.Success())
	}
	logging.Info(logCtx, "batch finished",
		slog.Int("attempted", summary.Attempted),
		slog.Int("succeeded", summary.Succeeded),
		slog.Int("failed", summary.Failed),
		slog.Int("internal_errors", errs.Len(summary.Errors)),
		slog.Bool("success", summary.Success()),
	)
	return summary
}
