package fixity

import "errors"

var (
	ErrInvalidIdentifier = errors.New("invalid UUID")
	ErrTypeMismatch      = errors.New("UUID must be a string")

	ErrCatalogUnavailable     = errors.New("package catalog unavailable")
	ErrNothingToPublish       = errors.New("scan has no report to publish")
	ErrReportingNotConfigured = errors.New("reporting endpoint is not configured")
	ErrAlreadyPublished       = errors.New("report delivery status already recorded")
)
