package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	refreshes           *prometheus.CounterVec
	errorsTotal         *prometheus.CounterVec
	lastPrice           *prometheus.GaugeVec
	latency             *prometheus.HistogramVec
	phases              *prometheus.GaugeVec
	forecastUnavailable prometheus.Counter
}

var (
	once     sync.Once
	recorder *Recorder
)

// New returns the process-wide Prometheus metrics recorder.
func New() *Recorder {
	once.Do(func() {
		recorder = &Recorder{
			refreshes: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "brentpulse_refreshes_total",
					Help: "Total number of successful price table refreshes",
				},
				[]string{"source"},
			),
			errorsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "brentpulse_errors_total",
					Help: "Total number of errors encountered",
				},
				[]string{"type"},
			),
			lastPrice: promauto.NewGaugeVec(
				prometheus.GaugeOpts{
					Name: "brentpulse_last_price",
					Help: "Last recorded close for a symbol",
				},
				[]string{"symbol"},
			),
			latency: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "brentpulse_operation_duration_seconds",
					Help:    "Duration of operations in seconds",
					Buckets: prometheus.DefBuckets,
				},
				[]string{"operation"},
			),
			phases: promauto.NewGaugeVec(
				prometheus.GaugeOpts{
					Name: "brentpulse_phases",
					Help: "Number of phases in the latest segmentation",
				},
				[]string{"kind"},
			),
			forecastUnavailable: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "brentpulse_forecast_unavailable_total",
					Help: "Forecast requests that could not be served",
				},
			),
		}
	})
	return recorder
}

// RecordRefresh records a completed refresh from a source.
func (r *Recorder) RecordRefresh(source string) {
	r.refreshes.WithLabelValues(source).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLastPrice records the last price for a symbol.
func (r *Recorder) RecordLastPrice(symbol string, price float64) {
	r.lastPrice.WithLabelValues(symbol).Set(price)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

func (r *Recorder) RecordPhases(kind string, n int) {
	r.phases.WithLabelValues(kind).Set(float64(n))
}

func (r *Recorder) RecordForecastUnavailable() {
	r.forecastUnavailable.Inc()
}
