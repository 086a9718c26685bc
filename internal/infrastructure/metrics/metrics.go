package metrics

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"

	"github.com/artefactual/fixity/internal/errs"
	"github.com/artefactual/fixity/internal/ports"
)

// Metrics holds the scan counters. A CLI run is short lived, so they live
// in a private registry that is pushed to a Pushgateway at shutdown.
type Metrics struct {
	Registry *prometheus.Registry

	ScansTotal          *prometheus.CounterVec
	ScanDuration        prometheus.Histogram
	InternalErrorsTotal *prometheus.CounterVec
	BatchesTotal        *prometheus.CounterVec
	BatchPackages       prometheus.Gauge
}

var _ ports.ScanMetrics = (*Metrics)(nil)

func New() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		Registry: registry,
		ScansTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "fixity_scans_total",
			Help: "Fixity scans by outcome and report delivery status",
		}, []string{"outcome", "delivery_status"}),
		ScanDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "fixity_scan_duration_seconds",
			Help:    "Time from scan start to verdict",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		}),
		InternalErrorsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "fixity_internal_errors_total",
			Help: "Errors that escaped a single package scan",
		}, []string{"kind"}),
		BatchesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "fixity_batches_total",
			Help: "Completed scanall runs by overall result",
		}, []string{"success"}),
		BatchPackages: factory.NewGauge(prometheus.GaugeOpts{
			Name: "fixity_batch_packages_attempted",
			Help: "Packages attempted by the last scanall run",
		}),
	}
}

func (m *Metrics) ObserveScan(outcome string, deliveryStatus string, duration time.Duration) {
	m.ScansTotal.WithLabelValues(outcome, deliveryStatus).Inc()
	m.ScanDuration.Observe(duration.Seconds())
}

func (m *Metrics) ObserveInternalError(kind string) {
	m.InternalErrorsTotal.WithLabelValues(kind).Inc()
}

func (m *Metrics) ObserveBatch(attempted int, success bool) {
	m.BatchesTotal.WithLabelValues(strconv.FormatBool(success)).Inc()
	m.BatchPackages.Set(float64(attempted))
}

// Push sends the registry to a Pushgateway under job.
func (m *Metrics) Push(ctx context.Context, url string, job string) error {
	if err := push.New(url, job).Gatherer(m.Registry).PushContext(ctx); err != nil {
		return errs.Wrap(err, "push metrics")
	}
	return nil
}
