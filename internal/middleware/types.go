package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/conneroisu/codeplay/internal/security"
)

// RateLimiter keeps one token bucket per client IP.
type RateLimiter struct {
	limit   rate.Limit
	burst   int
	maxIdle time.Duration

	// clientIP names the bucket of a request.
	clientIP func(*http.Request) string

	mu      sync.Mutex
	buckets map[string]*bucket
	sweep   time.Time
}

type bucket struct {
	limiter *rate.Limiter
	seen    time.Time
}

// NewRateLimiter allows perSecond requests per client with the given burst.
func NewRateLimiter(perSecond float64, burst int) *RateLimiter {
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{
		limit:    rate.Limit(perSecond),
		burst:    burst,
		maxIdle:  10 * time.Minute,
		clientIP: security.ClientIP,
		buckets:  make(map[string]*bucket),
	}
}

// TrustProxies keys buckets by the forwarded client address for requests
// arriving through one of proxies. Other requests keep their peer address.
func (rl *RateLimiter) TrustProxies(proxies *security.ProxyList) *RateLimiter {
	rl.clientIP = proxies.ClientIP
	return rl
}

// Allow reports whether key may make a request at now.
func (rl *RateLimiter) Allow(key string, now time.Time) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if now.Sub(rl.sweep) > rl.maxIdle {
		for k, b := range rl.buckets {
			if now.Sub(b.seen) > rl.maxIdle {
				delete(rl.buckets, k)
			}
		}
		rl.sweep = now
	}

	b, ok := rl.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.buckets[key] = b
	}
	b.seen = now
	return b.limiter.AllowN(now, 1)
}

// Clients returns the number of tracked clients.
func (rl *RateLimiter) Clients() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.buckets)
}

// Middleware rejects requests over the limit with 429.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.Allow(rl.clientIP(r), time.Now()) {
			w.Header().Set("Retry-After", strconv.Itoa(rl.retryAfter()))
			http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (rl *RateLimiter) retryAfter() int {
	if rl.limit <= 0 {
		return 60
	}
	secs := int(1 / float64(rl.limit))
	if secs < 1 {
		secs = 1
	}
	return secs
}
