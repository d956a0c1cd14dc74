package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder aggregates the Prometheus instruments used across the pipeline.
// A nil Recorder is valid and records nothing, so wiring stays optional.
type Recorder struct {
	providerRequests *prometheus.CounterVec
	providerRetries  *prometheus.CounterVec
	scanDuration     prometheus.Histogram
	scanTickers      *prometheus.CounterVec
}

// New registers and returns a Recorder on the default registry.
func New() *Recorder {
	return &Recorder{
		providerRequests: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "volscan_provider_requests_total",
				Help: "Provider HTTP requests by endpoint and outcome",
			},
			[]string{"endpoint", "outcome"},
		),
		providerRetries: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "volscan_provider_retries_total",
				Help: "Provider request retries by endpoint",
			},
			[]string{"endpoint"},
		),
		scanDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "volscan_scan_duration_seconds",
				Help:    "Duration of full universe scans in seconds",
				Buckets: prometheus.ExponentialBuckets(0.5, 2, 12),
			},
		),
		scanTickers: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "volscan_scan_tickers_total",
				Help: "Scanned tickers by result (scored, unscored)",
			},
			[]string{"result"},
		),
	}
}

// ProviderRequest records one provider call outcome ("ok" or "error").
func (r *Recorder) ProviderRequest(endpoint, outcome string) {
	if r == nil {
		return
	}
	r.providerRequests.WithLabelValues(endpoint, outcome).Inc()
}

// ProviderRetry records one retry of a provider call.
func (r *Recorder) ProviderRetry(endpoint string) {
	if r == nil {
		return
	}
	r.providerRetries.WithLabelValues(endpoint).Inc()
}

// ScanDuration records the wall time of a universe scan.
func (r *Recorder) ScanDuration(seconds float64) {
	if r == nil {
		return
	}
	r.scanDuration.Observe(seconds)
}

// ScanTicker records one per-ticker scan result.
func (r *Recorder) ScanTicker(result string) {
	if r == nil {
		return
	}
	r.scanTickers.WithLabelValues(result).Inc()
}
