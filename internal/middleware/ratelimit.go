package middleware

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type limiterEntry struct {
	l        *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per caller. A caller is the
// authenticated login when known and the remote address otherwise.
type RateLimiter struct {
	rps   rate.Limit
	burst int
	ttl   time.Duration

	mu sync.Mutex
	m  map[string]*limiterEntry
}

// NewRateLimiter allows each caller rps requests per second with bursts of
// burst. Buckets idle for longer than ttl are dropped by Sweep.
func NewRateLimiter(rps float64, burst int, ttl time.Duration) *RateLimiter {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &RateLimiter{rps: rate.Limit(rps), burst: burst, ttl: ttl, m: make(map[string]*limiterEntry)}
}

// Allow reports whether key may make a request now.
func (p *RateLimiter) Allow(key string) bool {
	return p.get(key).Allow()
}

func (p *RateLimiter) get(key string) *rate.Limiter {
	p.mu.Lock()
	defer p.mu.Unlock()
	if e, ok := p.m[key]; ok {
		e.lastSeen = time.Now()
		return e.l
	}
	l := rate.NewLimiter(p.rps, p.burst)
	p.m[key] = &limiterEntry{l: l, lastSeen: time.Now()}
	return l
}

// Sweep removes buckets unused for longer than the ttl.
func (p *RateLimiter) Sweep() {
	cutoff := time.Now().Add(-p.ttl)
	p.mu.Lock()
	defer p.mu.Unlock()
	for k, e := range p.m {
		if e.lastSeen.Before(cutoff) {
			delete(p.m, k)
		}
	}
}

// RunSweeper calls Sweep every period until stop is closed.
func (p *RateLimiter) RunSweeper(period time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			p.Sweep()
		case <-stop:
			return
		}
	}
}

// Middleware rejects callers over their budget with 429 and a Retry-After
// hint. It must run after SessionAuth to key by login.
func (p *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := GetUserIDFromContext(r.Context())
		if key == "" {
			key = clientIP(r)
		}
		if !p.Allow(key) {
			w.Header().Set("Retry-After", strconv.Itoa(1))
			writeError(w, http.StatusTooManyRequests, "rate_limited", "too many requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
