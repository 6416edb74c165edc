package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "exoview_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"path", "method", "code"},
	)

	httpDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "exoview_http_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method"},
	)

	datasetFetchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "exoview_dataset_fetches_total",
			Help: "Dataset fetches issued to the backend, by telescope and result.",
		},
		[]string{"telescope", "result"},
	)

	datasetFetchSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "exoview_dataset_fetch_duration_seconds",
			Help:    "Dataset fetch duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"telescope"},
	)

	datasetStaleTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "exoview_dataset_stale_total",
			Help: "Dataset responses discarded because a newer request was issued.",
		},
	)

	sessionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "exoview_sessions_active",
			Help: "Number of live table view sessions.",
		},
	)
)

func init() {
	prometheus.MustRegister(httpRequestsTotal)
	prometheus.MustRegister(httpDurationSeconds)
	prometheus.MustRegister(datasetFetchesTotal)
	prometheus.MustRegister(datasetFetchSeconds)
	prometheus.MustRegister(datasetStaleTotal)
	prometheus.MustRegister(sessionsActive)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveFetch records one completed dataset fetch.
func ObserveFetch(telescope string, err error, d time.Duration) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	datasetFetchesTotal.WithLabelValues(telescope, result).Inc()
	datasetFetchSeconds.WithLabelValues(telescope).Observe(d.Seconds())
}

// IncStale counts a discarded out-of-order response.
func IncStale() {
	datasetStaleTotal.Inc()
}

// SetSessionsActive updates the live session gauge.
func SetSessionsActive(n int) {
	sessionsActive.Set(float64(n))
}

var knownRoutes = map[string]bool{
	"/":                   true,
	"/healthz":            true,
	"/readyz":             true,
	"/metrics":            true,
	"/table":              true,
	"/table/download.csv": true,
	"/api/v1/table":       true,
	"/error":              true,
}

// normalizeRoute collapses request paths to a bounded label set.
func normalizeRoute(path string) string {
	if knownRoutes[path] {
		return path
	}
	if strings.HasPrefix(path, "/static/") {
		return "/static/{file}"
	}
	return "other"
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Middleware records request count and duration for each request.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		code := strconv.Itoa(rw.statusCode)
		route := normalizeRoute(r.URL.Path)

		httpRequestsTotal.WithLabelValues(route, r.Method, code).Inc()
		httpDurationSeconds.WithLabelValues(route, r.Method).Observe(duration)
	})
}
