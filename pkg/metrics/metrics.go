// Package metrics provides Prometheus metric definitions and an optional
// metrics HTTP server for instrumenting a client process.
//
// Usage:
//
//	m := metrics.NewClientMetrics()
//	go m.Serve(":9090")
package metrics

import (
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ClientMetrics holds all Prometheus metrics for one sfclient instance.
type ClientMetrics struct {
	// Authentication
	LoginsTotal       prometheus.Counter
	RenewalsTotal     prometheus.Counter
	AuthFailuresTotal prometheus.Counter

	// Request dispatcher
	RequestsTotal          *prometheus.CounterVec
	RetriesTotal           prometheus.Counter
	RequestDurationSeconds *prometheus.HistogramVec

	// Query executor
	QueriesTotal            *prometheus.CounterVec
	ChunkFetchesTotal       prometheus.Counter
	ChunkFetchFailuresTotal prometheus.Counter

	// Staged-file engine
	BytesUploadedTotal    prometheus.Counter
	BytesDownloadedTotal  prometheus.Counter
	FilesTransferredTotal *prometheus.CounterVec

	registry *prometheus.Registry
}

// NewClientMetrics registers and returns a new ClientMetrics instance backed
// by its own Prometheus registry. All metrics use the "sfclient" namespace.
func NewClientMetrics() *ClientMetrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &ClientMetrics{
		registry: reg,

		LoginsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sfclient",
			Name:      "logins_total",
			Help:      "Total number of login requests issued.",
		}),

		RenewalsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sfclient",
			Name:      "renewals_total",
			Help:      "Total number of session-token renewal requests issued.",
		}),

		AuthFailuresTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sfclient",
			Name:      "auth_failures_total",
			Help:      "Total number of login or renewal attempts rejected by the server.",
		}),

		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sfclient",
			Name:      "requests_total",
			Help:      "Total number of REST requests dispatched, by endpoint and outcome.",
		}, []string{"endpoint", "outcome"}),

		RetriesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sfclient",
			Name:      "retries_total",
			Help:      "Total number of retry attempts performed after a transient failure.",
		}),

		RequestDurationSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "sfclient",
			Name:      "request_duration_seconds",
			Help:      "Duration of REST requests in seconds, by endpoint.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"endpoint"}),

		QueriesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sfclient",
			Name:      "queries_total",
			Help:      "Total number of statements executed, by result kind.",
		}, []string{"kind"}),

		ChunkFetchesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sfclient",
			Name:      "chunk_fetches_total",
			Help:      "Total number of remote result chunks fetched.",
		}),

		ChunkFetchFailuresTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sfclient",
			Name:      "chunk_fetch_failures_total",
			Help:      "Total number of remote result chunk fetches that failed.",
		}),

		BytesUploadedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sfclient",
			Name:      "bytes_uploaded_total",
			Help:      "Total bytes uploaded by the staged-file engine.",
		}),

		BytesDownloadedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sfclient",
			Name:      "bytes_downloaded_total",
			Help:      "Total bytes downloaded by the staged-file engine.",
		}),

		FilesTransferredTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sfclient",
			Name:      "files_transferred_total",
			Help:      "Total number of files transferred, by direction and outcome.",
		}, []string{"direction", "outcome"}),
	}

	reg.MustRegister(
		m.LoginsTotal,
		m.RenewalsTotal,
		m.AuthFailuresTotal,
		m.RequestsTotal,
		m.RetriesTotal,
		m.RequestDurationSeconds,
		m.QueriesTotal,
		m.ChunkFetchesTotal,
		m.ChunkFetchFailuresTotal,
		m.BytesUploadedTotal,
		m.BytesDownloadedTotal,
		m.FilesTransferredTotal,
	)

	return m
}

// The Inc*/Add* helpers below are nil-receiver safe so callers can thread an
// optional *ClientMetrics through the library without a nil check at every
// call site.

func (m *ClientMetrics) IncLogin() {
	if m == nil {
		return
	}
	m.LoginsTotal.Inc()
}

func (m *ClientMetrics) IncRenewal() {
	if m == nil {
		return
	}
	m.RenewalsTotal.Inc()
}

func (m *ClientMetrics) IncAuthFailure() {
	if m == nil {
		return
	}
	m.AuthFailuresTotal.Inc()
}

func (m *ClientMetrics) ObserveRequest(endpoint, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(endpoint, outcome).Inc()
	m.RequestDurationSeconds.WithLabelValues(endpoint).Observe(d.Seconds())
}

func (m *ClientMetrics) IncRetry() {
	if m == nil {
		return
	}
	m.RetriesTotal.Inc()
}

func (m *ClientMetrics) IncQuery(kind string) {
	if m == nil {
		return
	}
	m.QueriesTotal.WithLabelValues(kind).Inc()
}

func (m *ClientMetrics) IncChunkFetch(ok bool) {
	if m == nil {
		return
	}
	m.ChunkFetchesTotal.Inc()
	if !ok {
		m.ChunkFetchFailuresTotal.Inc()
	}
}

func (m *ClientMetrics) AddBytesUploaded(n int) {
	if m == nil {
		return
	}
	m.BytesUploadedTotal.Add(float64(n))
}

func (m *ClientMetrics) AddBytesDownloaded(n int) {
	if m == nil {
		return
	}
	m.BytesDownloadedTotal.Add(float64(n))
}

func (m *ClientMetrics) IncFileTransferred(direction, outcome string) {
	if m == nil {
		return
	}
	m.FilesTransferredTotal.WithLabelValues(direction, outcome).Inc()
}

// Serve starts an HTTP server exposing the /metrics endpoint on addr. It
// blocks until the server exits and logs any error.
func (m *ClientMetrics) Serve(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
	log.Printf("sfclient Prometheus metrics server listening on %s/metrics", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Printf("metrics server error: %v", err)
	}
}
