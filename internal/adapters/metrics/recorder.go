// Package metrics records resolution and HTTP measurements with Prometheus.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Namespace prefixes every stitch metric.
const Namespace = "stitch"

// Recorder implements ports.Metrics on a private Prometheus registry.
type Recorder struct {
	registry *prometheus.Registry

	fetchesTotal       *prometheus.CounterVec
	fetchDuration      *prometheus.HistogramVec
	resolutionsTotal   prometheus.Counter
	resolutionDuration prometheus.Histogram
	componentsResolved prometheus.Histogram
	warningsTotal      prometheus.Counter
	rounds             prometheus.Histogram
	requestsTotal      *prometheus.CounterVec
	requestDuration    *prometheus.HistogramVec
}

// New creates a Recorder with its own registry.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,

		fetchesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "registry_fetches_total",
			Help:      "Total number of registry fetches by outcome",
		}, []string{"outcome"}),

		fetchDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "registry_fetch_duration_seconds",
			Help:      "Registry fetch duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"outcome"}),

		resolutionsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "resolutions_total",
			Help:      "Total number of finished resolutions",
		}),

		resolutionDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "resolution_duration_seconds",
			Help:      "Resolution duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}),

		componentsResolved: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "resolution_components",
			Help:      "Number of components resolved per resolution",
			Buckets:   []float64{0, 1, 2, 5, 10, 25, 50, 100},
		}),

		warningsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "resolution_warnings_total",
			Help:      "Total number of components skipped with a warning",
		}),

		rounds: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "resolution_rounds",
			Help:      "Depth of the resolved dependency graph",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13},
		}),

		requestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by route and status",
		}, []string{"method", "route", "status"}),

		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

// Registry returns the registry the recorder writes to.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// ObserveFetch records the outcome and latency of one registry fetch.
func (r *Recorder) ObserveFetch(outcome string, elapsed time.Duration) {
	r.fetchesTotal.WithLabelValues(outcome).Inc()
	r.fetchDuration.WithLabelValues(outcome).Observe(elapsed.Seconds())
}

// ObserveResolution records a finished resolution.
func (r *Recorder) ObserveResolution(components, warnings, rounds int, elapsed time.Duration) {
	r.resolutionsTotal.Inc()
	r.resolutionDuration.Observe(elapsed.Seconds())
	r.componentsResolved.Observe(float64(components))
	r.warningsTotal.Add(float64(warnings))
	r.rounds.Observe(float64(rounds))
}

// Handler serves the recorded metrics in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// Middleware records the count and latency of requests served by a chi router.
// Requests are labelled by route pattern so path parameters do not explode cardinality.
func (r *Recorder) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, req.ProtoMajor)

		next.ServeHTTP(ww, req)

		route := "unmatched"
		if rctx := chi.RouteContext(req.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		r.requestsTotal.WithLabelValues(req.Method, route, strconv.Itoa(status)).Inc()
		r.requestDuration.WithLabelValues(req.Method, route).Observe(time.Since(start).Seconds())
	})
}
