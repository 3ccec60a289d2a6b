package metrics

import (
	"database/sql"
	"log"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "energymeter_"

	resultSuccess = "success"
	resultError   = "error"

	periodDaily   = "daily"
	periodMonthly = "monthly"
)

var (
	registerOnce sync.Once

	ingestRequests *prometheus.CounterVec
	ingestErrors   *prometheus.CounterVec
	ingestLatency  *prometheus.HistogramVec

	usageChecks       *prometheus.CounterVec
	usageCheckLatency *prometheus.HistogramVec
	usageReports      *prometheus.CounterVec
	reportExports     *prometheus.CounterVec

	limitBreaches        *prometheus.CounterVec
	notificationsCleared prometheus.Counter
)

// Init registers observability metrics and DB-backed gauges.
func Init(db *sql.DB, logger *log.Logger) {
	registerOnce.Do(func() {
		ingestRequests = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "ingest_requests_total",
				Help: "Total reading ingest requests by result",
			},
			[]string{"result"},
		)
		ingestErrors = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "ingest_errors_total",
				Help: "Total reading ingest errors by reason",
			},
			[]string{"reason"},
		)
		ingestLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "ingest_latency_seconds",
				Help:    "Reading ingest latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)

		usageChecks = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "usage_checks_total",
				Help: "Total limit check evaluations by result",
			},
			[]string{"result"},
		)
		usageCheckLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "usage_check_latency_seconds",
				Help:    "Limit check latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)
		usageReports = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "usage_reports_total",
				Help: "Total usage report builds by result",
			},
			[]string{"result"},
		)
		reportExports = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "report_exports_total",
				Help: "Total usage report exports by format and result",
			},
			[]string{"format", "result"},
		)

		limitBreaches = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "limit_breaches_total",
				Help: "Total limit breach notifications by period",
			},
			[]string{"period"},
		)
		notificationsCleared = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "notifications_cleared_total",
				Help: "Total notification ledger clear operations",
			},
		)

		prometheus.MustRegister(
			ingestRequests,
			ingestErrors,
			ingestLatency,
			usageChecks,
			usageCheckLatency,
			usageReports,
			reportExports,
			limitBreaches,
			notificationsCleared,
		)

		if db != nil {
			registerDBMetrics(db, logger)
		}
	})
}

// ObserveIngest records ingest request duration and result.
func ObserveIngest(result string, duration time.Duration) {
	if result == "" {
		result = resultSuccess
	}
	if ingestRequests != nil {
		ingestRequests.WithLabelValues(result).Inc()
	}
	if ingestLatency != nil {
		ingestLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// IncIngestError increments ingest error counter.
func IncIngestError(reason string) {
	if reason == "" {
		reason = "unknown"
	}
	if ingestErrors != nil {
		ingestErrors.WithLabelValues(reason).Inc()
	}
}

// ObserveUsageCheck records limit check duration and result.
func ObserveUsageCheck(result string, duration time.Duration) {
	if result == "" {
		result = resultSuccess
	}
	if usageChecks != nil {
		usageChecks.WithLabelValues(result).Inc()
	}
	if usageCheckLatency != nil {
		usageCheckLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// IncUsageReport increments usage report counter.
func IncUsageReport(result string) {
	if result == "" {
		result = resultSuccess
	}
	if usageReports != nil {
		usageReports.WithLabelValues(result).Inc()
	}
}

// IncReportExport increments export counter by format and result.
func IncReportExport(format, result string) {
	if format == "" {
		format = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if reportExports != nil {
		reportExports.WithLabelValues(format, result).Inc()
	}
}

// IncLimitBreach increments breach counter for a period.
func IncLimitBreach(period string) {
	if period == "" {
		period = "unknown"
	}
	if limitBreaches != nil {
		limitBreaches.WithLabelValues(period).Inc()
	}
}

// IncNotificationsCleared increments the ledger clear counter.
func IncNotificationsCleared() {
	if notificationsCleared != nil {
		notificationsCleared.Inc()
	}
}

// Exported constants for callers.
const (
	ResultSuccess = resultSuccess
	ResultError   = resultError

	PeriodDaily   = periodDaily
	PeriodMonthly = periodMonthly
)
