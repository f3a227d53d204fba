package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ecolenet/remplacement-api/internal/engine"
)

// MetricsService encapsulates Prometheus instrumentation for the dispatch
// API: HTTP traffic, cache effectiveness and reconciliation outcomes.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheHitRatio   prometheus.Gauge
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
	coverageTotal   *prometheus.CounterVec
	degenerateTotal prometheus.Counter
	urgencyTotal    *prometheus.CounterVec
	boardDuration   prometheus.Observer

	cacheHitCount  uint64
	cacheMissCount uint64
}

// NewMetricsService registers core Prometheus collectors.
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

	cacheHitRatio := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cache_hit_ratio",
		Help: "Ratio of cache hits to total cache lookups",
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	coverageTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "coverage_computed_total",
		Help: "Coverage computations by classification",
	}, []string{"classification"})

	degenerateTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "coverage_degenerate_total",
		Help: "Coverage computations with an empty required slot set",
	})

	urgencyTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "urgency_computed_total",
		Help: "Urgency triage results by tier",
	}, []string{"tier"})

	boardDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "board_build_duration_seconds",
		Help:    "Time spent assembling the enriched absence board",
		Buckets: prometheus.DefBuckets,
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheHitRatio, cacheHits, cacheMisses,
		coverageTotal, degenerateTotal, urgencyTotal, boardDuration, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:        registry,
		handler:         handler,
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		cacheHitRatio:   cacheHitRatio,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
		coverageTotal:   coverageTotal,
		degenerateTotal: degenerateTotal,
		urgencyTotal:    urgencyTotal,
		boardDuration:   boardDuration,
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

// RecordCacheOperation records cache hit/miss metrics and updates hit ratio.
func (m *MetricsService) RecordCacheOperation(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.cacheHits.Inc()
		atomic.AddUint64(&m.cacheHitCount, 1)
	} else {
		m.cacheMisses.Inc()
		atomic.AddUint64(&m.cacheMissCount, 1)
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	total := hits + misses
	if total > 0 {
		m.cacheHitRatio.Set(float64(hits) / float64(total))
	}
}

// ObserveCoverage tallies one coverage computation.
func (m *MetricsService) ObserveCoverage(result engine.CoverageResult) {
	if m == nil {
		return
	}
	m.coverageTotal.WithLabelValues(string(result.Classification)).Inc()
	if result.Degenerate {
		m.degenerateTotal.Inc()
	}
}

// ObserveUrgency tallies one urgency triage result.
func (m *MetricsService) ObserveUrgency(tier engine.UrgencyTier) {
	if m == nil {
		return
	}
	m.urgencyTotal.WithLabelValues(string(tier)).Inc()
}

// ObserveBoardBuild records how long a board assembly took.
func (m *MetricsService) ObserveBoardBuild(duration time.Duration) {
	if m == nil || m.boardDuration == nil {
		return
	}
	m.boardDuration.Observe(duration.Seconds())
}
