package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cptk8s/registro/internal/cache"
	"github.com/cptk8s/registro/internal/middleware"
)

// burstLimiter allows burst attempts per key and never refills.
type burstLimiter struct {
	mu     sync.Mutex
	counts map[string]int
}

func (l *burstLimiter) CheckLoginRateLimit(_ context.Context, ip string, _ float64, burst int) (*cache.RateLimitResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.counts == nil {
		l.counts = make(map[string]int)
	}
	l.counts[ip]++
	used := l.counts[ip]
	if used > burst {
		return &cache.RateLimitResult{Allowed: false, RetryAfter: time.Second}, nil
	}
	return &cache.RateLimitResult{Allowed: true, Remaining: int64(burst - used)}, nil
}

func (l *burstLimiter) keys() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.counts)
}

const loginBurst = 5

func newThrottledAPI(t *testing.T, trustProxy bool) (*testAPI, *burstLimiter) {
	t.Helper()

	limiter := &burstLimiter{}
	api := newTestAPIWith(t, func(cfg *RouterConfig) {
		cfg.TrustProxyHeaders = trustProxy
		cfg.RateLimit = middleware.RateLimitConfig{
			Limiter: limiter,
			Enabled: true,
			RPS:     0.2,
			Burst:   loginBurst,
		}
	})
	return api, limiter
}

// spoofedLogins sends n failed logins, each claiming a different client address.
func spoofedLogins(t *testing.T, api *testAPI, n int) (throttled int) {
	t.Helper()

	for i := 0; i < n; i++ {
		req, err := http.NewRequest(http.MethodPost, api.srv.URL+"/login",
			strings.NewReader(`{"usuario":"admin","clave":"wrong"}`))
		if err != nil {
			t.Fatalf("new request: %v", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Real-IP", fmt.Sprintf("198.51.100.%d", i+1))
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("192.0.2.%d", i+1))

		resp, err := api.srv.Client().Do(req)
		if err != nil {
			t.Fatalf("login: %v", err)
		}
		resp.Body.Close()

		if resp.StatusCode == http.StatusTooManyRequests {
			throttled++
		}
	}
	return throttled
}

func TestLoginThrottle_IgnoresProxyHeadersByDefault(t *testing.T) {
	api, limiter := newThrottledAPI(t, false)

	const attempts = 20
	throttled := spoofedLogins(t, api, attempts)

	if throttled != attempts-loginBurst {
		t.Errorf("throttled = %d, want %d", throttled, attempts-loginBurst)
	}
	if got := limiter.keys(); got != 1 {
		t.Errorf("limiter saw %d client keys, want 1", got)
	}
}

func TestLoginThrottle_TrustedProxyUsesForwardedAddress(t *testing.T) {
	api, limiter := newThrottledAPI(t, true)

	const attempts = 10
	if throttled := spoofedLogins(t, api, attempts); throttled != 0 {
		t.Errorf("throttled = %d, want 0 with distinct forwarded clients", throttled)
	}
	if got := limiter.keys(); got != attempts {
		t.Errorf("limiter saw %d client keys, want %d", got, attempts)
	}
}
