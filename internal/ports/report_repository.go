package ports

import (
	"context"
	"errors"
)

var (
	ErrPackageNotFound         = errors.New("package not found")
	ErrReportNotFound          = errors.New("report not found")
	ErrDeliveryAlreadyRecorded = errors.New("delivery status already recorded")
)

type PackageRecord struct {
	ID        uint64
	UUID      string
	CreatedAt string
}

type ReportRecord struct {
	ID             uint64
	PackageID      uint64
	PackageUUID    string
	SessionID      string
	Begun          string
	Ended          string
	Outcome        string
	DeliveryStatus string
	Message        string
	Report         string
}

type ReportCreate struct {
	PackageID      uint64
	SessionID      string
	Begun          string
	Ended          string
	Outcome        string
	DeliveryStatus string
	Message        string
	Report         string
}

type ReportFilter struct {
	PackageUUID string
	SessionID   string
	Outcome     string
	Limit       int
}

type OutcomeCount struct {
	Outcome string
	Count   int64
}

type ReportReadRepository interface {
	FindPackage(ctx context.Context, uuid string) (PackageRecord, error)
	GetReport(ctx context.Context, reportID uint64) (ReportRecord, error)
	LatestReport(ctx context.Context, packageUUID string) (ReportRecord, error)
	ListReports(ctx context.Context, filter ReportFilter) ([]ReportRecord, error)
	CountByOutcome(ctx context.Context) ([]OutcomeCount, error)
}

// ReportRepository is append-only apart from the single delivery status
// update allowed per report.
type ReportRepository interface {
	ReportReadRepository
	EnsurePackage(ctx context.Context, uuid string, createdAt string) (PackageRecord, error)
	AppendReport(ctx context.Context, input ReportCreate) (ReportRecord, error)
	UpdateDeliveryStatus(ctx context.Context, reportID uint64, status string) error
}
