package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"trainload/internal/service"
)

// Metrics holds the Prometheus collectors exported on /metrics
type Metrics struct {
	registry *prometheus.Registry

	Requests        *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	CTL      prometheus.Gauge
	ATL      prometheus.Gauge
	TSB      prometheus.Gauge
	Monotony prometheus.Gauge

	RidesSynced prometheus.Counter
	SyncErrors  prometheus.Counter
	JobRuns     *prometheus.CounterVec
}

// NewMetrics creates the collectors on a private registry
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		Requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "trainload_http_requests_total",
				Help: "HTTP requests by route, method and status code",
			},
			[]string{"route", "method", "code"},
		),

		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "trainload_http_request_duration_seconds",
				Help:    "HTTP request latency by route",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5},
			},
			[]string{"route"},
		),

		CTL: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "trainload_ctl",
			Help: "Chronic training load (fitness) as of today",
		}),
		ATL: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "trainload_atl",
			Help: "Acute training load (fatigue) as of today",
		}),
		TSB: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "trainload_tsb",
			Help: "Training stress balance (form) as of today",
		}),
		Monotony: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "trainload_monotony",
			Help: "Training monotony over the trailing week",
		}),

		RidesSynced: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "trainload_rides_synced_total",
			Help: "Rides stored by Strava sync",
		}),
		SyncErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "trainload_sync_errors_total",
			Help: "Failed syncs and per-ride sync errors",
		}),

		JobRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "trainload_job_runs_total",
				Help: "Scheduled job runs by job and result",
			},
			[]string{"job", "result"},
		),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.Requests,
		m.RequestDuration,
		m.CTL,
		m.ATL,
		m.TSB,
		m.Monotony,
		m.RidesSynced,
		m.SyncErrors,
		m.JobRuns,
	)
	return m
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveRequest records one served request
func (m *Metrics) ObserveRequest(route, method string, code int, took time.Duration) {
	m.Requests.WithLabelValues(route, method, strconv.Itoa(code)).Inc()
	m.RequestDuration.WithLabelValues(route).Observe(took.Seconds())
}

// ObserveReport publishes the current load picture
func (m *Metrics) ObserveReport(r *service.LoadReport) {
	if r == nil || r.Degraded {
		return
	}
	m.CTL.Set(r.Metrics.CTL)
	m.ATL.Set(r.Metrics.ATL)
	m.TSB.Set(r.Metrics.TSB)
	m.Monotony.Set(r.Monotony)
}

// RecordSync counts the outcome of a sync run
func (m *Metrics) RecordSync(result *service.SyncResult, err error) {
	if result != nil {
		m.RidesSynced.Add(float64(result.RidesStored))
		m.SyncErrors.Add(float64(len(result.Errors)))
	}
	if err != nil {
		m.SyncErrors.Inc()
	}
}

// RecordJob counts a scheduled job run
func (m *Metrics) RecordJob(job string, err error, _ time.Duration) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	m.JobRuns.WithLabelValues(job, result).Inc()
}
