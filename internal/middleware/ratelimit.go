// Package middleware provides HTTP middleware for the tracker API.
package middleware

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/persistorai/tracker/internal/httputil"
)

// CodeRateLimited is the error code for requests refused by RateLimiter.
const CodeRateLimited = "rate_limited"

// maxBuckets caps the number of tracked client IPs.
const maxBuckets = 100_000

// CostFunc reports how many tokens a request consumes. Values below 1 count as 1.
type CostFunc func(c *gin.Context) int

// RateLimiter is a per-IP token bucket. Requests may weigh more than one
// token so a bulk transition or a CSV upload drains the bucket faster than
// a read.
type RateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	rate    float64
	burst   float64
	cost    CostFunc
}

type bucket struct {
	tokens   float64
	lastFill time.Time
}

// take refills b for the time elapsed since the last fill and then tries to
// consume n tokens. It returns the wait until n tokens would be available.
func (b *bucket) take(now time.Time, n, rate, burst float64) (bool, time.Duration) {
	b.tokens = math.Min(burst, b.tokens+now.Sub(b.lastFill).Seconds()*rate)
	b.lastFill = now

	if b.tokens >= n {
		b.tokens -= n

		return true, 0
	}

	return false, time.Duration((n - b.tokens) / rate * float64(time.Second))
}

// NewRateLimiter creates a RateLimiter refilling ratePerSec tokens per second
// up to burst. A non-positive rate disables limiting. Stale buckets are
// evicted in the background until ctx is cancelled.
func NewRateLimiter(ctx context.Context, ratePerSec, burst int) *RateLimiter {
	rl := &RateLimiter{
		buckets: make(map[string]*bucket),
		rate:    float64(ratePerSec),
		burst:   float64(max(burst, 1)),
	}
	if ratePerSec > 0 {
		go rl.startCleanup(ctx)
	}

	return rl
}

// WithCost sets the per-request cost function and returns rl.
func (rl *RateLimiter) WithCost(fn CostFunc) *RateLimiter {
	rl.cost = fn

	return rl
}

func (rl *RateLimiter) startCleanup(ctx context.Context) {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	const maxAge = 10 * time.Minute

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			rl.mu.Lock()
			for ip, b := range rl.buckets {
				if now.Sub(b.lastFill) > maxAge {
					delete(rl.buckets, ip)
				}
			}
			rl.mu.Unlock()
		}
	}
}

func (rl *RateLimiter) requestCost(c *gin.Context) float64 {
	n := 1
	if rl.cost != nil {
		n = max(rl.cost(c), 1)
	}

	return math.Min(float64(n), rl.burst)
}

// Handler returns Gin middleware that applies rate limiting per client IP.
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	if rl.rate <= 0 {
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		// Proxy headers are not trusted (SetTrustedProxies(nil)), so this is the peer address.
		ip := c.ClientIP()
		now := time.Now()

		rl.mu.Lock()
		b, ok := rl.buckets[ip]
		if !ok {
			if len(rl.buckets) >= maxBuckets {
				rl.mu.Unlock()
				httputil.RespondError(c, http.StatusTooManyRequests, CodeRateLimited, "too many clients")

				return
			}

			b = &bucket{tokens: rl.burst, lastFill: now}
			rl.buckets[ip] = b
		}

		allowed, wait := b.take(now, rl.requestCost(c), rl.rate, rl.burst)
		rl.mu.Unlock()

		if !allowed {
			secs := max(int(math.Ceil(wait.Seconds())), 1)
			c.Header("Retry-After", strconv.Itoa(secs))
			httputil.RespondError(c, http.StatusTooManyRequests, CodeRateLimited, "rate limit exceeded")

			return
		}

		c.Next()
	}
}
