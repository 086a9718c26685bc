package fixity

import (
	"context"
	"errors"

	domainfixity "github.com/artefactual/fixity/internal/domain/fixity"
	"github.com/artefactual/fixity/internal/errs"
)

// Publish sends result to the reporting service and records the delivery
// status, which can be set only once per result. A refused or failed post
// returns the *ServiceError; the result keeps its outcome and stays
// recorded.
func (s *Service) Publish(ctx context.Context, result *domainfixity.ScanResult) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if result == nil {
		return errors.New("result is required")
	}
	if s.reports == nil {
		return domainfixity.ErrReportingNotConfigured
	}
	if !result.Publishable() {
		return domainfixity.ErrNothingToPublish
	}
	if result.DeliveryStatus != "" && result.DeliveryStatus != domainfixity.DeliveryNotAttempted {
		return domainfixity.ErrAlreadyPublished
	}

	body, err := domainfixity.BuildPostScanBody(result.Report, result.SessionID)
	if err != nil {
		return errs.Wrap(err, "build report body")
	}

	postErr := s.reports.PostReport(ctx, result.AIP, body)

	status := domainfixity.DeliveryDelivered
	if postErr != nil {
		status = domainfixity.DeliveryFailed
	}
	if err := s.recordDelivery(ctx, result, status); err != nil {
		return errs.Append(postErr, err)
	}
	return postErr
}

func (s *Service) recordDelivery(ctx context.Context, result *domainfixity.ScanResult, status domainfixity.DeliveryStatus) error {
	if result.Persisted() {
		if err := s.repo.UpdateDeliveryStatus(ctx, result.ReportID, string(status)); err != nil {
			return errs.Wrap(err, "update delivery status")
		}
	}
	result.DeliveryStatus = status
	return nil
}
