package ratelimit

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"
)

func okTransport() http.RoundTripper {
	return roundTripperFunc(func(req *http.Request) (*http.Response, error) {
		return &http.Response{StatusCode: http.StatusOK, Body: http.NoBody, Request: req}, nil
	})
}

func TestRoundTripperPassesWithinBudget(t *testing.T) {
	limiter := New(100, 5)
	rt := limiter.RoundTripper(okTransport())

	for i := 0; i < 5; i++ {
		req, _ := http.NewRequest(http.MethodGet, "http://api.example.com/api/list-images", nil)
		resp, err := rt.RoundTrip(req)
		if err != nil {
			t.Fatalf("request %d: unexpected error: %v", i, err)
		}
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("request %d: status = %d", i, resp.StatusCode)
		}
	}
}

func TestRoundTripperHonorsContextCancellation(t *testing.T) {
	limiter := New(0.001, 1)
	rt := limiter.RoundTripper(okTransport())

	first, _ := http.NewRequest(http.MethodGet, "http://api.example.com/health", nil)
	if _, err := rt.RoundTrip(first); err != nil {
		t.Fatalf("first request should consume the burst: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	second, _ := http.NewRequestWithContext(ctx, http.MethodGet, "http://api.example.com/health", nil)

	_, err := rt.RoundTrip(second)
	if err == nil {
		t.Fatalf("expected rate limit error")
	}
	if errors.Is(err, context.Canceled) {
		return
	}
	// rate.Limiter reports an error before the deadline when the wait would exceed it.
	if err.Error() == "" {
		t.Fatalf("expected descriptive error")
	}
}

func TestLimiterTracksHostsSeparately(t *testing.T) {
	limiter := New(100, 10)
	rt := limiter.RoundTripper(okTransport())

	for _, target := range []string{
		"http://api.example.com/api/upload-url",
		"https://bucket.s3.amazonaws.com/a.png?X-Amz-Signature=abc",
		"http://API.example.com/api/list-images",
	} {
		req, _ := http.NewRequest(http.MethodGet, target, nil)
		if _, err := rt.RoundTrip(req); err != nil {
			t.Fatalf("RoundTrip(%s) error = %v", target, err)
		}
	}

	if got := limiter.trackedHosts(); got != 2 {
		t.Fatalf("tracked hosts = %d, want 2", got)
	}
}
