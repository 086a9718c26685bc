package ports

import "context"

// ReportService receives scan notices and reports. Both calls expect a 201;
// anything else is a *fixity.ServiceError of kind ReportServiceError.
type ReportService interface {
	Endpoint() string
	PostPreScan(ctx context.Context, aip string, body []byte) error
	PostReport(ctx context.Context, aip string, body []byte) error
}
