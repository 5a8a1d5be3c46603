package service

import (
	"net/http"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsSnapshot is an aggregated view of the process counters for the
// admin metrics endpoint.
type MetricsSnapshot struct {
	RequestsTotal            uint64    `json:"requestsTotal"`
	AverageRequestDurationMs float64   `json:"averageRequestDurationMs"`
	CacheHits                uint64    `json:"cacheHits"`
	CacheMisses              uint64    `json:"cacheMisses"`
	CacheHitRatio            float64   `json:"cacheHitRatio"`
	RevisionsPublished       uint64    `json:"revisionsPublished"`
	RetrainingAssigned       uint64    `json:"retrainingAssigned"`
	RetrainingFailed         uint64    `json:"retrainingFailed"`
	ImportedRows             uint64    `json:"importedRows"`
	RejectedRows             uint64    `json:"rejectedRows"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generatedAt"`
}

// MetricsService owns the Prometheus registry and the counters behind the
// skill-matrix workflows. Every method is safe on a nil receiver.
type MetricsService struct {
	registry           *prometheus.Registry
	handler            http.Handler
	requestDuration    *prometheus.HistogramVec
	requestTotal       *prometheus.CounterVec
	cacheLookups       *prometheus.CounterVec
	cacheWrite         prometheus.Observer
	revisionsPublished prometheus.Counter
	cascadeOutcomes    *prometheus.CounterVec
	importRows         *prometheus.CounterVec

	requestCount         uint64
	requestDurationTotal uint64
	cacheHitCount        uint64
	cacheMissCount       uint64
	revisionCount        uint64
	cascadeSucceeded     uint64
	cascadeFailed        uint64
	importSucceeded      uint64
	importFailed         uint64
}

// NewMetricsService registers the collectors on a private registry.
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

	cacheLookups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cache_lookups_total",
		Help: "Cache lookups partitioned by result",
	}, []string{"result"})

	cacheWrite := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_write_seconds",
		Help:    "Latency for cache set operations",
		Buckets: prometheus.DefBuckets,
	})

	revisionsPublished := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "skill_revisions_published_total",
		Help: "Skill revisions published",
	})

	cascadeOutcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "retraining_assignments_total",
		Help: "Retraining assignments written by revision cascades",
	}, []string{"outcome"})

	importRows := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bulk_import_rows_total",
		Help: "Bulk import rows partitioned by upload type and outcome",
	}, []string{"type", "outcome"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheLookups, cacheWrite, revisionsPublished, cascadeOutcomes, importRows, goroutines)

	return &MetricsService{
		registry:           registry,
		handler:            promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration:    requestDuration,
		requestTotal:       requestTotal,
		cacheLookups:       cacheLookups,
		cacheWrite:         cacheWrite,
		revisionsPublished: revisionsPublished,
		cascadeOutcomes:    cascadeOutcomes,
		importRows:         importRows,
	}
}

// Registry exposes the underlying registry for tests and extra collectors.
func (m *MetricsService) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
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
	code := strconv.Itoa(status)
	m.requestDuration.WithLabelValues(method, path, code).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, code).Inc()
	atomic.AddUint64(&m.requestCount, 1)
	atomic.AddUint64(&m.requestDurationTotal, uint64(duration.Nanoseconds()))
}

// RecordCacheLookup counts a cache hit or miss.
func (m *MetricsService) RecordCacheLookup(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.cacheLookups.WithLabelValues("hit").Inc()
		atomic.AddUint64(&m.cacheHitCount, 1)
		return
	}
	m.cacheLookups.WithLabelValues("miss").Inc()
	atomic.AddUint64(&m.cacheMissCount, 1)
}

// ObserveCacheWrite tracks the duration of cache writes.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// RecordRevisionPublished counts a committed skill revision.
func (m *MetricsService) RecordRevisionPublished() {
	if m == nil {
		return
	}
	m.revisionsPublished.Inc()
	atomic.AddUint64(&m.revisionCount, 1)
}

// RecordCascade counts the assignment writes of one retraining cascade.
func (m *MetricsService) RecordCascade(succeeded, failed int) {
	if m == nil {
		return
	}
	m.cascadeOutcomes.WithLabelValues("succeeded").Add(float64(succeeded))
	m.cascadeOutcomes.WithLabelValues("failed").Add(float64(failed))
	atomic.AddUint64(&m.cascadeSucceeded, uint64(succeeded))
	atomic.AddUint64(&m.cascadeFailed, uint64(failed))
}

// RecordImport counts the row outcomes of one bulk upload.
func (m *MetricsService) RecordImport(kind string, succeeded, failed int) {
	if m == nil {
		return
	}
	m.importRows.WithLabelValues(kind, "success").Add(float64(succeeded))
	m.importRows.WithLabelValues(kind, "failed").Add(float64(failed))
	atomic.AddUint64(&m.importSucceeded, uint64(succeeded))
	atomic.AddUint64(&m.importFailed, uint64(failed))
}

// Snapshot returns the aggregated counters.
func (m *MetricsService) Snapshot() MetricsSnapshot {
	if m == nil {
		return MetricsSnapshot{GeneratedAt: time.Now().UTC()}
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	requests := atomic.LoadUint64(&m.requestCount)
	reqDuration := atomic.LoadUint64(&m.requestDurationTotal)

	var ratio float64
	if lookups := hits + misses; lookups > 0 {
		ratio = float64(hits) / float64(lookups)
	}
	var avgRequestMs float64
	if requests > 0 {
		avgRequestMs = float64(reqDuration) / float64(requests) / float64(time.Millisecond)
	}

	return MetricsSnapshot{
		RequestsTotal:            requests,
		AverageRequestDurationMs: avgRequestMs,
		CacheHits:                hits,
		CacheMisses:              misses,
		CacheHitRatio:            ratio,
		RevisionsPublished:       atomic.LoadUint64(&m.revisionCount),
		RetrainingAssigned:       atomic.LoadUint64(&m.cascadeSucceeded),
		RetrainingFailed:         atomic.LoadUint64(&m.cascadeFailed),
		ImportedRows:             atomic.LoadUint64(&m.importSucceeded),
		RejectedRows:             atomic.LoadUint64(&m.importFailed),
		Goroutines:               runtime.NumGoroutine(),
		GeneratedAt:              time.Now().UTC(),
	}
}
