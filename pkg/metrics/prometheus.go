package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	signalsTotal    *prometheus.CounterVec
	executionsTotal *prometheus.CounterVec
	errorsTotal     *prometheus.CounterVec
	lastPrice       *prometheus.GaugeVec
	latency         *prometheus.HistogramVec
	cacheHits       *prometheus.CounterVec
	limiterWait     prometheus.Histogram
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		signalsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradepulse_signals_total",
				Help: "Total number of market signals generated",
			},
			[]string{"asset", "signal_type"},
		),
		executionsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradepulse_executions_total",
				Help: "Total number of executed trades",
			},
			[]string{"asset", "side"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradepulse_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		lastPrice: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "tradepulse_last_price",
				Help: "Last observed price for an asset",
			},
			[]string{"asset"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tradepulse_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		cacheHits: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradepulse_cache_requests_total",
				Help: "TTL cache requests partitioned by outcome",
			},
			[]string{"outcome"},
		),
		limiterWait: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "tradepulse_limiter_wait_seconds",
				Help:    "Advisory waits returned by the upstream rate limiter",
				Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5},
			},
		),
	}
}

// RecordSignal records a generated market signal.
func (r *Recorder) RecordSignal(asset, kind string) {
	r.signalsTotal.WithLabelValues(asset, kind).Inc()
}

// RecordExecution records an executed trade.
func (r *Recorder) RecordExecution(asset, side string) {
	r.executionsTotal.WithLabelValues(asset, side).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLastPrice records the last observed price for an asset.
func (r *Recorder) RecordLastPrice(asset string, price float64) {
	r.lastPrice.WithLabelValues(asset).Set(price)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// RecordCacheHit records one TTL cache lookup outcome.
func (r *Recorder) RecordCacheHit(hit bool) {
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	r.cacheHits.WithLabelValues(outcome).Inc()
}

// RecordLimiterWait records a non-zero advisory wait.
func (r *Recorder) RecordLimiterWait(d time.Duration) {
	r.limiterWait.Observe(d.Seconds())
}
