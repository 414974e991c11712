package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	tickersScanned *prometheus.CounterVec
	degradedTotal  *prometheus.CounterVec
	errorsTotal    *prometheus.CounterVec
	gexNet         *prometheus.GaugeVec
	eventsDetected *prometheus.CounterVec
	latency        *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		tickersScanned: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gammapull_tickers_scanned_total",
				Help: "Tickers processed per analysis stage",
			},
			[]string{"stage", "ticker"},
		),
		degradedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gammapull_ticker_degraded_total",
				Help: "Per-ticker failures that degraded instead of aborting the run",
			},
			[]string{"ticker", "reason"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gammapull_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		gexNet: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "gammapull_gex_net",
				Help: "Last computed net gamma exposure per ticker",
			},
			[]string{"ticker"},
		),
		eventsDetected: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gammapull_events_detected_total",
				Help: "Structural events detected per ticker",
			},
			[]string{"ticker"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gammapull_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordTickerScanned records one ticker passing through a stage.
func (r *Recorder) RecordTickerScanned(stage, ticker string) {
	r.tickersScanned.WithLabelValues(stage, ticker).Inc()
}

// RecordDegraded records a per-ticker degradation.
func (r *Recorder) RecordDegraded(ticker, reason string) {
	r.degradedTotal.WithLabelValues(ticker, reason).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordGexNet records the latest net gamma exposure for a ticker.
func (r *Recorder) RecordGexNet(ticker string, v float64) {
	r.gexNet.WithLabelValues(ticker).Set(v)
}

// RecordEventsDetected adds detected event counts for a ticker.
func (r *Recorder) RecordEventsDetected(ticker string, n int) {
	r.eventsDetected.WithLabelValues(ticker).Add(float64(n))
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
