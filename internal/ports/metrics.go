package ports

//go:generate mockgen -source=metrics.go -destination=mocks/metrics_mock.go -package=mocks

import "time"

type ScanMetrics interface {
	ObserveScan(outcome string, deliveryStatus string, duration time.Duration)
	ObserveInternalError(kind string)
	ObserveBatch(attempted int, success bool)
}
