package ports

//go:generate mockgen -source=events.go -destination=mocks/events_mock.go -package=mocks

import "context"

type ScanEvent struct {
	AIP            string `json:"aip_uuid"`
	SessionID      string `json:"session_uuid"`
	ReportID       uint64 `json:"report_id"`
	Outcome        string `json:"outcome"`
	DeliveryStatus string `json:"delivery_status"`
	Message        string `json:"message"`
	Started        int64  `json:"started"`
	Finished       int64  `json:"finished"`
}

// EventPublisher announces finished scans to other systems. Delivery is
// best effort and never affects a scan outcome.
type EventPublisher interface {
	PublishScan(ctx context.Context, event ScanEvent) error
}
