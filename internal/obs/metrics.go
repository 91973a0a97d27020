package obs

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "http_in_flight_requests",
		Help: "In-flight HTTP requests.",
	})

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	uploadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seedvault_uploads_total",
			Help: "Upload attempts by outcome (accepted, rejected, denied, flagged, failed).",
		},
		[]string{"outcome"},
	)

	uploadViolationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seedvault_upload_violations_total",
			Help: "Upload validation rule violations by code.",
		},
		[]string{"code"},
	)

	uploadBytesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "seedvault_upload_bytes_total",
		Help: "Total bytes of accepted artifact uploads.",
	})

	authenticityChecksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seedvault_authenticity_checks_total",
			Help: "Authenticity gate decisions (passed, flagged, unavailable).",
		},
		[]string{"decision"},
	)
)

// Init registers all metrics in the default registry.
func Init() {
	prometheus.MustRegister(
		httpInFlight,
		httpRequestsTotal,
		httpRequestDuration,
		uploadsTotal,
		uploadViolationsTotal,
		uploadBytesTotal,
		authenticityChecksTotal,
	)
}

// Handler exposes the Prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveUpload records an upload attempt outcome.
func ObserveUpload(outcome string) {
	uploadsTotal.WithLabelValues(outcome).Inc()
}

// ObserveUploadViolation records a single validation rule violation.
func ObserveUploadViolation(code string) {
	uploadViolationsTotal.WithLabelValues(code).Inc()
}

// ObserveUploadBytes records the payload size of an accepted upload.
func ObserveUploadBytes(n int64) {
	if n > 0 {
		uploadBytesTotal.Add(float64(n))
	}
}

// ObserveAuthenticity records an authenticity gate decision.
func ObserveAuthenticity(decision string) {
	authenticityChecksTotal.WithLabelValues(decision).Inc()
}

// Instrument wraps a handler with RPS/latency/in-flight measurements.
func Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := CanonicalPath(r.URL.Path)
		method := r.Method

		httpInFlight.Inc()
		start := time.Now()

		sw := &statusWriter{ResponseWriter: w, code: 200}
		next.ServeHTTP(sw, r)

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(sw.code)

		httpRequestDuration.WithLabelValues(method, path, status).Observe(duration)
		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		httpInFlight.Dec()
	})
}

// CanonicalPath collapses per-artifact path segments so the metrics
// cardinality stays bounded regardless of how many artifacts exist.
func CanonicalPath(path string) string {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	if path == "" {
		return "/"
	}
	parts := strings.Split(strings.TrimPrefix(path, "/"), "/")
	if len(parts) >= 2 && parts[0] == "v1" && parts[1] == "artifacts" {
		switch len(parts) {
		case 3:
			return "/v1/artifacts/:id"
		case 4:
			return "/v1/artifacts/:scope/:name"
		}
	}
	return path
}

// statusWriter captures the response code written by downstream handlers.
type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
