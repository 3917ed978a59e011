package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles prometheus collectors used by the image client and the viewer.
type Metrics struct {
	OperationsTotal      *prometheus.CounterVec
	OperationDurationSec *prometheus.HistogramVec
	HTTPRequestsTotal    *prometheus.CounterVec
	UploadedBytes        prometheus.Counter
	ValidationRejections *prometheus.CounterVec
	ViewerRequestsTotal  *prometheus.CounterVec
}

func New(registry prometheus.Registerer) *Metrics {
	m := &Metrics{
		OperationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gallery_client_operations_total",
			Help: "Total number of image client operations.",
		}, []string{"operation", "outcome"}),
		OperationDurationSec: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gallery_client_operation_duration_seconds",
			Help:    "Image client operation duration in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation", "outcome"}),
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gallery_client_http_requests_total",
			Help: "Total number of outbound HTTP requests.",
		}, []string{"host", "method", "status"}),
		UploadedBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gallery_client_uploaded_bytes_total",
			Help: "Total number of image bytes transferred to upload grants.",
		}),
		ValidationRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gallery_client_validation_rejections_total",
			Help: "Total number of uploads rejected before reaching the network.",
		}, []string{"reason"}),
		ViewerRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gallery_viewer_requests_total",
			Help: "Total number of viewer HTTP requests.",
		}, []string{"route", "method", "status"}),
	}

	registry.MustRegister(
		m.OperationsTotal,
		m.OperationDurationSec,
		m.HTTPRequestsTotal,
		m.UploadedBytes,
		m.ValidationRejections,
		m.ViewerRequestsTotal,
	)

	return m
}

// ObserveOperation records one client operation. Safe on a nil receiver.
func (m *Metrics) ObserveOperation(operation string, startedAt time.Time, err error) {
	if m == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.OperationsTotal.WithLabelValues(operation, outcome).Inc()
	m.OperationDurationSec.WithLabelValues(operation, outcome).Observe(time.Since(startedAt).Seconds())
}

func (m *Metrics) AddUploadedBytes(n int) {
	if m == nil {
		return
	}
	m.UploadedBytes.Add(float64(n))
}

func (m *Metrics) RejectValidation(reason string) {
	if m == nil {
		return
	}
	m.ValidationRejections.WithLabelValues(reason).Inc()
}

// RoundTripper counts outbound requests by host, method and status.
func (m *Metrics) RoundTripper(next http.RoundTripper) http.RoundTripper {
	return roundTripperFunc(func(req *http.Request) (*http.Response, error) {
		resp, err := next.RoundTrip(req)

		status := "error"
		if err == nil {
			status = strconv.Itoa(resp.StatusCode)
		}
		m.HTTPRequestsTotal.WithLabelValues(req.URL.Host, req.Method, status).Inc()

		return resp, err
	})
}

// Middleware counts viewer requests.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		wrapped := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		status := strconv.Itoa(wrapped.statusCode)
		m.ViewerRequestsTotal.WithLabelValues(normalizeRoute(r.URL.Path), r.Method, status).Inc()
	})
}

func normalizeRoute(path string) string {
	switch {
	case path == "/":
		return "/"
	case strings.HasPrefix(path, "/images/"):
		return "/images/*"
	case path == "/upload", path == "/healthz", path == "/metrics":
		return path
	default:
		return "other"
	}
}

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (rw *statusRecorder) WriteHeader(statusCode int) {
	rw.statusCode = statusCode
	rw.ResponseWriter.WriteHeader(statusCode)
}

// Flush keeps streaming behavior for handlers that require it.
func (rw *statusRecorder) Flush() {
	if flusher, ok := rw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}
