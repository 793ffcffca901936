// Package metrics holds the Prometheus collectors exposed on /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var durationBucketsMs = []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000}

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dengue_http_requests_total",
		Help: "HTTP API requests by route and status code",
	}, []string{"route", "code"})
	HTTPDurationMs = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "dengue_http_request_duration_ms",
		Help:    "HTTP API request duration in milliseconds",
		Buckets: durationBucketsMs,
	}, []string{"route"})
	UpstreamRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dengue_upstream_requests_total",
		Help: "Analytics API requests by endpoint and outcome",
	}, []string{"endpoint", "outcome"})
	UpstreamDurationMs = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "dengue_upstream_duration_ms",
		Help:    "Analytics API call duration in milliseconds",
		Buckets: durationBucketsMs,
	}, []string{"endpoint"})
	CacheHitsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dengue_cache_hits_total",
		Help: "Response cache hits",
	}, []string{"endpoint"})
	CacheMissesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dengue_cache_misses_total",
		Help: "Response cache misses",
	}, []string{"endpoint"})
	ResolveTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dengue_resolve_total",
		Help: "Region-key resolutions by result",
	}, []string{"result"})
	UnmatchedRegions = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "dengue_unmatched_regions",
		Help: "Boundary features without a matching record in the latest view",
	})
	BoundaryReloadsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "dengue_boundary_reloads_total",
		Help: "Boundary document reloads applied by the watcher",
	})
	BoundaryFeatures = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "dengue_boundary_features",
		Help: "Features in the current boundary document",
	})
	SupersededTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "dengue_superseded_refreshes_total",
		Help: "Dashboard refreshes discarded because a newer one was issued",
	})
)

func init() {
	prometheus.MustRegister(HTTPRequestsTotal)
	prometheus.MustRegister(HTTPDurationMs)
	prometheus.MustRegister(UpstreamRequestsTotal)
	prometheus.MustRegister(UpstreamDurationMs)
	prometheus.MustRegister(CacheHitsTotal)
	prometheus.MustRegister(CacheMissesTotal)
	prometheus.MustRegister(ResolveTotal)
	prometheus.MustRegister(UnmatchedRegions)
	prometheus.MustRegister(BoundaryReloadsTotal)
	prometheus.MustRegister(BoundaryFeatures)
	prometheus.MustRegister(SupersededTotal)
}

// Handler serves the registered collectors.
func Handler() http.Handler { return promhttp.Handler() }

// ObserveHTTP records one served request.
func ObserveHTTP(route string, code int, d time.Duration) {
	HTTPRequestsTotal.WithLabelValues(route, strconv.Itoa(code)).Inc()
	HTTPDurationMs.WithLabelValues(route).Observe(float64(d.Milliseconds()))
}

// Recorder feeds analytics client outcomes into the collectors.
type Recorder struct{}

// ObserveUpstream counts one analytics call.
func (Recorder) ObserveUpstream(endpoint, outcome string, d time.Duration) {
	UpstreamRequestsTotal.WithLabelValues(endpoint, outcome).Inc()
	UpstreamDurationMs.WithLabelValues(endpoint).Observe(float64(d.Milliseconds()))
}

// ObserveCache counts a cache lookup.
func (Recorder) ObserveCache(endpoint string, hit bool) {
	if hit {
		CacheHitsTotal.WithLabelValues(endpoint).Inc()
		return
	}
	CacheMissesTotal.WithLabelValues(endpoint).Inc()
}

// ObserveResolve records a resolver result and the unmatched feature count.
func ObserveResolve(found bool, unmatched int) {
	result := "found"
	if !found {
		result = "not_found"
	}
	ResolveTotal.WithLabelValues(result).Inc()
	UnmatchedRegions.Set(float64(unmatched))
}

// ObserveBoundary records a boundary (re)load.
func ObserveBoundary(features int, reload bool) {
	BoundaryFeatures.Set(float64(features))
	if reload {
		BoundaryReloadsTotal.Inc()
	}
}
