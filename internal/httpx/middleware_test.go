package httpx

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dreschagin/image-gallery/pkg/config"
	"github.com/dreschagin/image-gallery/pkg/logger"
)

func TestWithRequestIDSetsHeaderWhenMissing(t *testing.T) {
	var seen string
	rt := WithRequestID(roundTripperFunc(func(req *http.Request) (*http.Response, error) {
		seen = req.Header.Get(RequestIDHeader)
		return &http.Response{StatusCode: http.StatusOK, Body: http.NoBody}, nil
	}))

	req := httptest.NewRequest(http.MethodGet, "http://api.example.com/health", nil)
	if _, err := rt.RoundTrip(req); err != nil {
		t.Fatalf("RoundTrip() error = %v", err)
	}
	if seen == "" {
		t.Fatalf("expected generated request id")
	}
	if req.Header.Get(RequestIDHeader) != "" {
		t.Fatalf("original request must not be mutated")
	}
}

func TestWithRequestIDKeepsCallerValue(t *testing.T) {
	var seen string
	rt := WithRequestID(roundTripperFunc(func(req *http.Request) (*http.Response, error) {
		seen = req.Header.Get(RequestIDHeader)
		return &http.Response{StatusCode: http.StatusOK, Body: http.NoBody}, nil
	}))

	req := httptest.NewRequest(http.MethodGet, "http://api.example.com/health", nil)
	req.Header.Set(RequestIDHeader, "req-1")
	if _, err := rt.RoundTrip(req); err != nil {
		t.Fatalf("RoundTrip() error = %v", err)
	}
	if seen != "req-1" {
		t.Fatalf("request id = %q, want req-1", seen)
	}
}

func TestWithLoggingOmitsQueryString(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter("debug", &buf)

	rt := WithLogging(log, roundTripperFunc(func(req *http.Request) (*http.Response, error) {
		return &http.Response{StatusCode: http.StatusOK, Body: http.NoBody}, nil
	}))

	req := httptest.NewRequest(http.MethodPut, "https://bucket.example.com/uploads/a.png?X-Amz-Signature=secret", nil)
	if _, err := rt.RoundTrip(req); err != nil {
		t.Fatalf("RoundTrip() error = %v", err)
	}

	out := buf.String()
	if strings.Contains(out, "secret") || strings.Contains(out, "X-Amz-Signature") {
		t.Fatalf("log leaked query string: %s", out)
	}
	if !strings.Contains(out, "path=/uploads/a.png") || !strings.Contains(out, "status=200") {
		t.Fatalf("unexpected log output: %s", out)
	}
}

func TestNewClientAgainstServer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get(RequestIDHeader) == "" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	cfg := &config.Config{RateLimit: config.RateLimitConfig{Enabled: true, RPS: 100, Burst: 10}}
	client := NewClient(cfg, logger.Nop(), nil, nil)

	resp, err := client.Get(server.URL + "/health")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", resp.StatusCode)
	}
}

func TestWithServerRequestID(t *testing.T) {
	handler := WithServerRequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get(RequestIDHeader) == "" {
			t.Errorf("request id missing in handler")
		}
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Header().Get(RequestIDHeader) == "" {
		t.Fatalf("response request id missing")
	}
}
