package ratelimit

import (
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	maxTrackedHosts = 1_000
	hostIdleTTL     = 10 * time.Minute
)

type hostLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Limiter throttles outbound requests with a global budget and one budget per target host,
// so the API host and the object store behind upload grants are limited independently.
type Limiter struct {
	global  *rate.Limiter
	perHost map[string]*hostLimiter
	mu      sync.Mutex

	rps   rate.Limit
	burst int
}

func New(rps float64, burst int) *Limiter {
	return &Limiter{
		global:  rate.NewLimiter(rate.Limit(rps), burst),
		perHost: make(map[string]*hostLimiter),
		rps:     rate.Limit(rps),
		burst:   burst,
	}
}

// RoundTripper blocks until both budgets allow the request or the request context ends.
func (l *Limiter) RoundTripper(next http.RoundTripper) http.RoundTripper {
	return roundTripperFunc(func(req *http.Request) (*http.Response, error) {
		ctx := req.Context()

		if err := l.global.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}
		if err := l.forHost(req.URL.Host).Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait for %s: %w", req.URL.Host, err)
		}

		return next.RoundTrip(req)
	})
}

func (l *Limiter) forHost(host string) *rate.Limiter {
	host = strings.ToLower(strings.TrimSpace(host))

	l.mu.Lock()
	defer l.mu.Unlock()

	item, ok := l.perHost[host]
	if !ok {
		item = &hostLimiter{limiter: rate.NewLimiter(l.rps, l.burst)}
		l.perHost[host] = item
	}

	item.lastSeen = time.Now()
	if len(l.perHost) > maxTrackedHosts {
		l.cleanupLocked(time.Now().Add(-hostIdleTTL))
	}

	return item.limiter
}

func (l *Limiter) cleanupLocked(threshold time.Time) {
	for host, entry := range l.perHost {
		if entry.lastSeen.Before(threshold) {
			delete(l.perHost, host)
		}
	}
}

func (l *Limiter) trackedHosts() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.perHost)
}

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}
