package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the API and the
// report pipeline.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	reportDuration  prometheus.Observer
	reportStudents  prometheus.Observer
	exportTotal     *prometheus.CounterVec
	jobsInFlight    prometheus.Gauge
}

// NewMetricsService registers the collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	reportDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "report_build_duration_seconds",
		Help:    "Time spent building one completion report",
		Buckets: prometheus.DefBuckets,
	})

	reportStudents := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "report_students",
		Help:    "Students per built report",
		Buckets: prometheus.ExponentialBuckets(1, 4, 8),
	})

	exportTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "exports_total",
		Help: "Rendered exports by format and outcome",
	}, []string{"format", "outcome"})

	jobsInFlight := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "export_jobs_in_flight",
		Help: "Export jobs currently queued or processing",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, reportDuration, reportStudents, exportTotal, jobsInFlight, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		reportDuration:  reportDuration,
		reportStudents:  reportStudents,
		exportTotal:     exportTotal,
		jobsInFlight:    jobsInFlight,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// ObserveReportBuild records one report pipeline run.
func (m *MetricsService) ObserveReportBuild(students int, duration time.Duration) {
	if m == nil {
		return
	}
	m.reportDuration.Observe(duration.Seconds())
	m.reportStudents.Observe(float64(students))
}

// CountExport records one rendered export.
func (m *MetricsService) CountExport(format string, success bool) {
	if m == nil {
		return
	}
	outcome := "success"
	if !success {
		outcome = "failure"
	}
	m.exportTotal.WithLabelValues(format, outcome).Inc()
}

// JobStarted marks a queued or processing export job.
func (m *MetricsService) JobStarted() {
	if m != nil {
		m.jobsInFlight.Inc()
	}
}

// JobFinished marks a completed export job.
func (m *MetricsService) JobFinished() {
	if m != nil {
		m.jobsInFlight.Dec()
	}
}
