package metrics

import (
	"database/sql"
	"log"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "gridmarket_"

	resultSuccess = "success"
	resultError   = "error"
)

var (
	registerOnce sync.Once

	reserveTotal   *prometheus.CounterVec
	reserveLatency *prometheus.HistogramVec

	modifyTotal   *prometheus.CounterVec
	modifyLatency *prometheus.HistogramVec

	rationTotal   *prometheus.CounterVec
	rationLatency *prometheus.HistogramVec

	exportTotal   *prometheus.CounterVec
	exportLatency *prometheus.HistogramVec

	httpRequests *prometheus.CounterVec
)

// Init registers marketplace metrics and DB-backed gauges.
func Init(db *sql.DB, logger *log.Logger) {
	registerOnce.Do(func() {
		reserveTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "reserve_total",
				Help: "Total reservation attempts by result",
			},
			[]string{"result"},
		)
		reserveLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "reserve_latency_seconds",
				Help:    "Reservation latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)

		modifyTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "modify_total",
				Help: "Total reservation modifications by result",
			},
			[]string{"result"},
		)
		modifyLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "modify_latency_seconds",
				Help:    "Modification latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)

		rationTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "ration_total",
				Help: "Total rationing passes by result",
			},
			[]string{"result"},
		)
		rationLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "ration_latency_seconds",
				Help:    "Rationing pass latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)

		exportTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "statement_export_total",
				Help: "Total earnings statement exports by format and result",
			},
			[]string{"format", "result"},
		)
		exportLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "statement_export_latency_seconds",
				Help:    "Earnings statement export latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"format", "result"},
		)

		httpRequests = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "http_requests_total",
				Help: "Total HTTP requests by method and status class",
			},
			[]string{"method", "class"},
		)

		prometheus.MustRegister(
			reserveTotal,
			reserveLatency,
			modifyTotal,
			modifyLatency,
			rationTotal,
			rationLatency,
			exportTotal,
			exportLatency,
			httpRequests,
		)

		if db != nil {
			registerDBMetrics(db, logger)
		}
	})
}

// ObserveReserve records reservation latency and result.
func ObserveReserve(result string, duration time.Duration) {
	if result == "" {
		result = resultSuccess
	}
	if reserveTotal != nil {
		reserveTotal.WithLabelValues(result).Inc()
	}
	if reserveLatency != nil {
		reserveLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// ObserveModify records modification latency and result.
func ObserveModify(result string, duration time.Duration) {
	if result == "" {
		result = resultSuccess
	}
	if modifyTotal != nil {
		modifyTotal.WithLabelValues(result).Inc()
	}
	if modifyLatency != nil {
		modifyLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// ObserveRation records rationing pass latency and result.
func ObserveRation(result string, duration time.Duration) {
	if result == "" {
		result = resultSuccess
	}
	if rationTotal != nil {
		rationTotal.WithLabelValues(result).Inc()
	}
	if rationLatency != nil {
		rationLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// ObserveStatementExport records export latency and result.
func ObserveStatementExport(format, result string, duration time.Duration) {
	if format == "" {
		format = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if exportTotal != nil {
		exportTotal.WithLabelValues(format, result).Inc()
	}
	if exportLatency != nil {
		exportLatency.WithLabelValues(format, result).Observe(duration.Seconds())
	}
}

// IncHTTPRequest increments the request counter by method and status class.
func IncHTTPRequest(method string, status int) {
	if httpRequests == nil {
		return
	}
	class := "2xx"
	switch {
	case status >= 500:
		class = "5xx"
	case status >= 400:
		class = "4xx"
	case status >= 300:
		class = "3xx"
	}
	httpRequests.WithLabelValues(method, class).Inc()
}

// Exported constants for callers.
const (
	ResultSuccess = resultSuccess
	ResultError   = resultError
)
