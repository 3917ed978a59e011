package httpx

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/dreschagin/image-gallery/internal/metrics"
	"github.com/dreschagin/image-gallery/internal/ratelimit"
	"github.com/dreschagin/image-gallery/pkg/config"
	"github.com/dreschagin/image-gallery/pkg/logger"
)

const RequestIDHeader = "X-Request-Id"

// WithRequestID tags outbound requests with a request id unless the caller already set one.
func WithRequestID(next http.RoundTripper) http.RoundTripper {
	return roundTripperFunc(func(req *http.Request) (*http.Response, error) {
		if req.Header.Get(RequestIDHeader) != "" {
			return next.RoundTrip(req)
		}

		cloned := req.Clone(req.Context())
		cloned.Header.Set(RequestIDHeader, uuid.NewString())
		return next.RoundTrip(cloned)
	})
}

// WithLogging logs every outbound request. The query string is never logged:
// presigned upload URLs carry their signature there.
func WithLogging(log *logger.Logger, next http.RoundTripper) http.RoundTripper {
	return roundTripperFunc(func(req *http.Request) (*http.Response, error) {
		started := time.Now()
		resp, err := next.RoundTrip(req)

		fields := []interface{}{
			"method", req.Method,
			"host", req.URL.Host,
			"path", req.URL.Path,
			"duration_ms", time.Since(started).Milliseconds(),
			"request_id", req.Header.Get(RequestIDHeader),
		}
		if err != nil {
			log.Error("outbound request failed", err, fields...)
			return nil, err
		}

		fields = append(fields, "status", resp.StatusCode)
		if resp.StatusCode >= http.StatusBadRequest {
			log.Warn("outbound request", fields...)
		} else {
			log.Debug("outbound request", fields...)
		}
		return resp, nil
	})
}

// WithServerRequestID is the inbound counterpart used by the viewer.
func WithServerRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, requestID)
		r.Header.Set(RequestIDHeader, requestID)
		next.ServeHTTP(w, r)
	})
}

// NewClient builds the outbound HTTP client used by the image client.
// limiter and m may be nil. The client carries no timeout; callers bound requests with ctx.
func NewClient(cfg *config.Config, log *logger.Logger, limiter *ratelimit.Limiter, m *metrics.Metrics) *http.Client {
	if log == nil {
		log = logger.Nop()
	}

	var transport http.RoundTripper = http.DefaultTransport.(*http.Transport).Clone()
	if m != nil {
		transport = m.RoundTripper(transport)
	}
	if limiter == nil && cfg != nil && cfg.RateLimit.Enabled {
		limiter = ratelimit.New(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	}
	if limiter != nil {
		transport = limiter.RoundTripper(transport)
	}
	transport = WithLogging(log, transport)
	transport = WithRequestID(transport)

	return &http.Client{Transport: transport}
}

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}
