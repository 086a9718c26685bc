package fixity

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/artefactual/fixity/internal/ports"
)

// Service runs fixity scans against one storage service and records every
// attempt through the report repository.
type Service struct {
	storage   ports.StorageService
	reports   ports.ReportService
	repo      ports.ReportRepository
	uow       ports.UnitOfWork
	paginator ports.Paginator
	cache     ports.Cache
	cacheTTL  time.Duration
	metrics   ports.ScanMetrics
	events    ports.EventPublisher
	tracer    trace.Tracer

	now          func() time.Time
	sleep        func(context.Context, time.Duration) error
	newSessionID func() string
}

type Option func(*Service)

// WithReportService enables pre-scan notices and report delivery.
func WithReportService(reports ports.ReportService) Option {
	return func(s *Service) {
		s.reports = reports
	}
}

func WithPaginator(paginator ports.Paginator) Option {
	return func(s *Service) {
		if paginator != nil {
			s.paginator = paginator
		}
	}
}

// WithCache stores the latest status per package in cache. A zero ttl keeps
// entries until they are overwritten.
func WithCache(cache ports.Cache, ttl time.Duration) Option {
	return func(s *Service) {
		s.cache = cache
		s.cacheTTL = ttl
	}
}

func WithMetrics(metrics ports.ScanMetrics) Option {
	return func(s *Service) {
		s.metrics = metrics
	}
}

func WithEvents(events ports.EventPublisher) Option {
	return func(s *Service) {
		s.events = events
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(s *Service) {
		if tracer != nil {
			s.tracer = tracer
		}
	}
}

// WithClock replaces time.Now and the throttle sleep. Used by tests.
func WithClock(now func() time.Time, sleep func(context.Context, time.Duration) error) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
		if sleep != nil {
			s.sleep = sleep
		}
	}
}

func WithSessionIDs(newSessionID func() string) Option {
	return func(s *Service) {
		if newSessionID != nil {
			s.newSessionID = newSessionID
		}
	}
}

func NewService(storage ports.StorageService, repo ports.ReportRepository, uow ports.UnitOfWork, opts ...Option) *Service {
	s := &Service{
		storage:      storage,
		repo:         repo,
		uow:          uow,
		paginator:    CursorPaging{},
		tracer:       noop.NewTracerProvider().Tracer(""),
		now:          time.Now,
		sleep:        sleepContext,
		newSessionID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ReportingEnabled reports whether a reporting service is configured.
func (s *Service) ReportingEnabled() bool {
	return s.reports != nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
