package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/sma-timetable-engine/internal/models"
)

// MetricsSnapshot is a lightweight view of the counters for the health endpoint.
type MetricsSnapshot struct {
	RequestsTotal            uint64    `json:"requestsTotal"`
	AverageRequestDurationMs float64   `json:"averageRequestDurationMs"`
	CacheHitRatio            float64   `json:"cacheHitRatio"`
	ClashesDetected          uint64    `json:"clashesDetected"`
	Generations              uint64    `json:"generations"`
	FallbackRuns             uint64    `json:"fallbackRuns"`
	OptimizerFailures        uint64    `json:"optimizerFailures"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generatedAt"`
}

// MetricsService encapsulates Prometheus instrumentation for the HTTP layer and the scheduling engine.
type MetricsService struct {
	registry           *prometheus.Registry
	handler            http.Handler
	requestDuration    *prometheus.HistogramVec
	requestTotal       *prometheus.CounterVec
	cacheHits          prometheus.Counter
	cacheMisses        prometheus.Counter
	clashesDetected    *prometheus.CounterVec
	mutations          *prometheus.CounterVec
	generationDuration *prometheus.HistogramVec
	optimizerFailures  *prometheus.CounterVec
	fallbackRuns       prometheus.Counter

	requestCount         uint64
	requestDurationTotal uint64
	cacheHitCount        uint64
	cacheMissCount       uint64
	clashCount           uint64
	generationCount      uint64
	fallbackCount        uint64
	optimizerFailCount   uint64
}

// NewMetricsService registers the collectors on a private registry.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	m := &MetricsService{
		registry: registry,
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
		requestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Total cache hits",
		}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Total cache misses",
		}),
		clashesDetected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "timetable_clashes_detected_total",
			Help: "Clashes reported by the clash detector, by type",
		}, []string{"type"}),
		mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "timetable_schedule_mutations_total",
			Help: "Schedule mutations by operation and outcome",
		}, []string{"operation", "outcome"}),
		generationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "timetable_generation_duration_seconds",
			Help:    "Wall time of automated timetable generation",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 60, 300, 900, 3600},
		}, []string{"source", "success"}),
		optimizerFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "timetable_optimizer_failures_total",
			Help: "Optimizer calls that failed and triggered the fallback scheduler",
		}, []string{"reason"}),
		fallbackRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "timetable_fallback_runs_total",
			Help: "Fallback scheduler runs",
		}),
	}

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(
		m.requestDuration, m.requestTotal, m.cacheHits, m.cacheMisses, m.clashesDetected,
		m.mutations, m.generationDuration, m.optimizerFailures, m.fallbackRuns, goroutines,
	)
	m.handler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	return m
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
	atomic.AddUint64(&m.requestCount, 1)
	atomic.AddUint64(&m.requestDurationTotal, uint64(duration.Nanoseconds()))
}

// RecordCacheOperation records a cache lookup.
func (m *MetricsService) RecordCacheOperation(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.cacheHits.Inc()
		atomic.AddUint64(&m.cacheHitCount, 1)
		return
	}
	m.cacheMisses.Inc()
	atomic.AddUint64(&m.cacheMissCount, 1)
}

// RecordClashes counts detected clashes by type.
func (m *MetricsService) RecordClashes(clashes []models.Clash) {
	if m == nil {
		return
	}
	for _, clash := range clashes {
		m.clashesDetected.WithLabelValues(string(clash.Type)).Inc()
	}
	atomic.AddUint64(&m.clashCount, uint64(len(clashes)))
}

// RecordMutation counts a schedule write attempt.
func (m *MetricsService) RecordMutation(operation string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "rejected"
	}
	m.mutations.WithLabelValues(operation, outcome).Inc()
}

// ObserveGeneration records one finished generation.
func (m *MetricsService) ObserveGeneration(source models.GenerationSource, success bool, duration time.Duration) {
	if m == nil {
		return
	}
	if source == "" {
		source = "none"
	}
	m.generationDuration.WithLabelValues(string(source), fmt.Sprintf("%t", success)).Observe(duration.Seconds())
	atomic.AddUint64(&m.generationCount, 1)
}

// RecordOptimizerFailure counts an optimizer call that did not produce a usable solution.
func (m *MetricsService) RecordOptimizerFailure(reason string) {
	if m == nil {
		return
	}
	m.optimizerFailures.WithLabelValues(reason).Inc()
	atomic.AddUint64(&m.optimizerFailCount, 1)
}

// RecordFallbackRun counts a fallback scheduler invocation.
func (m *MetricsService) RecordFallbackRun() {
	if m == nil {
		return
	}
	m.fallbackRuns.Inc()
	atomic.AddUint64(&m.fallbackCount, 1)
}

// Snapshot returns aggregated counters.
func (m *MetricsService) Snapshot() MetricsSnapshot {
	if m == nil {
		return MetricsSnapshot{}
	}
	requests := atomic.LoadUint64(&m.requestCount)
	reqDuration := atomic.LoadUint64(&m.requestDurationTotal)
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)

	var avgRequestMs float64
	if requests > 0 {
		avgRequestMs = float64(reqDuration) / float64(requests) / float64(time.Millisecond)
	}
	var ratio float64
	if hits+misses > 0 {
		ratio = float64(hits) / float64(hits+misses)
	}

	return MetricsSnapshot{
		RequestsTotal:            requests,
		AverageRequestDurationMs: avgRequestMs,
		CacheHitRatio:            ratio,
		ClashesDetected:          atomic.LoadUint64(&m.clashCount),
		Generations:              atomic.LoadUint64(&m.generationCount),
		FallbackRuns:             atomic.LoadUint64(&m.fallbackCount),
		OptimizerFailures:        atomic.LoadUint64(&m.optimizerFailCount),
		Goroutines:               runtime.NumGoroutine(),
		GeneratedAt:              time.Now().UTC(),
	}
}
