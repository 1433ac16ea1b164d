package middleware

import (
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/cmlabs-hris/admin-portal-backend/internal/handler/http/response"
	"golang.org/x/time/rate"
)

// KeyFunc picks the bucket a request is counted against.
type KeyFunc func(r *http.Request) string

// ClientIP keys by remote address without the port. Put chi's RealIP in front
// when running behind a proxy.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

type keyedLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// RateLimiter keeps one token bucket per key.
type RateLimiter struct {
	name  string
	limit rate.Limit
	burst int
	key   KeyFunc
	ttl   time.Duration

	mu       sync.Mutex
	limiters map[string]*keyedLimiter
	now      func() time.Time
}

// NewRateLimiter allows perMinute requests per key, with bursts up to the same amount.
// A non-positive perMinute disables limiting.
func NewRateLimiter(name string, perMinute int, key KeyFunc) *RateLimiter {
	if key == nil {
		key = ClientIP
	}
	return &RateLimiter{
		name:     name,
		limit:    rate.Limit(float64(perMinute) / 60.0),
		burst:    perMinute,
		key:      key,
		ttl:      10 * time.Minute,
		limiters: make(map[string]*keyedLimiter),
		now:      time.Now,
	}
}

func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rl.burst <= 0 {
			next.ServeHTTP(w, r)
			return
		}

		k := rl.key(r)
		if !rl.get(k).Allow() {
			slog.Warn("rate limit exceeded", "limiter", rl.name, "key", k)
			retryAfter := int(math.Ceil(1.0 / float64(rl.limit)))
			if retryAfter < 1 {
				retryAfter = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			response.TooManyRequests(w, "Too many requests. Please try again later.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (rl *RateLimiter) get(k string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if kl, ok := rl.limiters[k]; ok {
		kl.lastAccess = now
		return kl.limiter
	}

	kl := &keyedLimiter{limiter: rate.NewLimiter(rl.limit, rl.burst), lastAccess: now}
	rl.limiters[k] = kl
	return kl.limiter
}

// Sweep drops buckets idle for longer than the ttl and returns how many were removed.
func (rl *RateLimiter) Sweep() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	removed := 0
	now := rl.now()
	for k, kl := range rl.limiters {
		if now.Sub(kl.lastAccess) > rl.ttl {
			delete(rl.limiters, k)
			removed++
		}
	}
	return removed
}

func (rl *RateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.limiters)
}
