// Package metrics exposes the Prometheus collectors of the API and its
// background workers. Init must run once at startup; every Observe/Inc helper
// is a no-op before that, so packages under test never touch the registry.
package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "playzone_"

	resultSuccess = "success"
	resultError   = "error"
)

// Exported constants for callers.
const (
	ResultSuccess = resultSuccess
	ResultError   = resultError
	ResultBusy    = "busy"
)

var (
	registerOnce sync.Once

	httpRequests *prometheus.CounterVec
	httpLatency  *prometheus.HistogramVec

	sessionTransitions *prometheus.CounterVec
	activeSessions     prometheus.Gauge
	tickLatency        prometheus.Histogram
	lockContention     prometheus.Counter

	summaryRecomputeTotal   *prometheus.CounterVec
	summaryRecomputeLatency *prometheus.HistogramVec

	jobsTotal *prometheus.CounterVec

	exportTotal *prometheus.CounterVec
)

// Init registers all collectors with the default registry.
func Init() {
	registerOnce.Do(func() {
		httpRequests = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "http_requests_total",
				Help: "Total HTTP requests by method, route and status",
			},
			[]string{"method", "route", "status"},
		)
		httpLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		)

		sessionTransitions = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "session_transitions_total",
				Help: "Session start/end attempts by operation and result",
			},
			[]string{"op", "result"},
		)
		activeSessions = prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: metricPrefix + "active_sessions",
				Help: "Sessions currently being billed",
			},
		)
		tickLatency = prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "session_tick_duration_seconds",
				Help:    "Time spent repricing all active sessions in one tick",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
		)
		lockContention = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "device_lock_contention_total",
				Help: "Device transitions rejected because another one held the lock",
			},
		)

		summaryRecomputeTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "summary_recompute_total",
				Help: "Daily summary recomputations by trigger and result",
			},
			[]string{"trigger", "result"},
		)
		summaryRecomputeLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "summary_recompute_duration_seconds",
				Help:    "Daily summary recompute latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"trigger"},
		)

		jobsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "worker_jobs_total",
				Help: "Background jobs processed by queue and result",
			},
			[]string{"queue", "result"},
		)

		exportTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "report_export_total",
				Help: "Summary exports by format and result",
			},
			[]string{"format", "result"},
		)

		prometheus.MustRegister(
			httpRequests,
			httpLatency,
			sessionTransitions,
			activeSessions,
			tickLatency,
			lockContention,
			summaryRecomputeTotal,
			summaryRecomputeLatency,
			jobsTotal,
			exportTotal,
		)
	})
}

func resultOf(err error) string {
	if err != nil {
		return resultError
	}
	return resultSuccess
}

// ObserveHTTPRequest records one served request.
func ObserveHTTPRequest(method, route string, status int, d time.Duration) {
	if httpRequests != nil {
		httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	}
	if httpLatency != nil {
		httpLatency.WithLabelValues(method, route).Observe(d.Seconds())
	}
}

// IncSessionTransition counts a start or end attempt.
func IncSessionTransition(op, result string) {
	if result == "" {
		result = resultSuccess
	}
	if sessionTransitions != nil {
		sessionTransitions.WithLabelValues(op, result).Inc()
	}
}

// SetActiveSessions reports how many sessions the last tick repriced.
func SetActiveSessions(n int) {
	if activeSessions != nil {
		activeSessions.Set(float64(n))
	}
}

// ObserveTick records the duration of one ticker pass.
func ObserveTick(d time.Duration) {
	if tickLatency != nil {
		tickLatency.Observe(d.Seconds())
	}
}

// IncLockContention counts a transition turned away by the device lock.
func IncLockContention() {
	if lockContention != nil {
		lockContention.Inc()
	}
}

// ObserveSummaryRecompute records one summary recomputation.
func ObserveSummaryRecompute(trigger string, err error, d time.Duration) {
	if trigger == "" {
		trigger = "unknown"
	}
	if summaryRecomputeTotal != nil {
		summaryRecomputeTotal.WithLabelValues(trigger, resultOf(err)).Inc()
	}
	if summaryRecomputeLatency != nil {
		summaryRecomputeLatency.WithLabelValues(trigger).Observe(d.Seconds())
	}
}

// IncJob counts a processed background job. result is success, retry or dlq.
func IncJob(queue, result string) {
	if jobsTotal != nil {
		jobsTotal.WithLabelValues(queue, result).Inc()
	}
}

// IncExport counts a summary export.
func IncExport(format string, err error) {
	if exportTotal != nil {
		exportTotal.WithLabelValues(format, resultOf(err)).Inc()
	}
}
