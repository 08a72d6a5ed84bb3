package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimitConfig tunes the per-client token buckets guarding the anchoring
// API. Anchoring and verification fan out to the Solana RPC endpoint, so the
// limiter protects the upstream quota as much as this service.
type RateLimitConfig struct {
	// RPS is the sustained request rate allowed per client IP.
	RPS int
	// Burst is the bucket size. Zero means 2×RPS.
	Burst int
	// IdleTTL is how long a client may stay quiet before its bucket is
	// evicted. Zero means 10 minutes.
	IdleTTL time.Duration
	// SweepInterval is the minimum spacing between eviction passes.
	// Zero means 5 minutes.
	SweepInterval time.Duration
}

func (c RateLimitConfig) withDefaults() RateLimitConfig {
	if c.Burst <= 0 {
		c.Burst = c.RPS * 2
	}
	if c.IdleTTL <= 0 {
		c.IdleTTL = 10 * time.Minute
	}
	if c.SweepInterval <= 0 {
		c.SweepInterval = 5 * time.Minute
	}
	return c
}

type clientBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter returns a Gin middleware enforcing cfg per client IP. Over-limit
// requests get 429 with a Retry-After hint. Idle buckets are swept inline on
// the request path, so the limiter needs no background goroutine and holds no
// state for clients that stopped sending.
func RateLimiter(cfg RateLimitConfig) gin.HandlerFunc {
	cfg = cfg.withDefaults()

	var (
		mu        sync.Mutex
		buckets   = make(map[string]*clientBucket)
		lastSweep = time.Now()
	)

	return func(c *gin.Context) {
		now := time.Now()
		ip := c.ClientIP()

		mu.Lock()
		if now.Sub(lastSweep) >= cfg.SweepInterval {
			for addr, b := range buckets {
				if now.Sub(b.lastSeen) > cfg.IdleTTL {
					delete(buckets, addr)
				}
			}
			lastSweep = now
		}

		b, ok := buckets[ip]
		if !ok {
			b = &clientBucket{limiter: rate.NewLimiter(rate.Limit(cfg.RPS), cfg.Burst)}
			buckets[ip] = b
		}
		b.lastSeen = now
		mu.Unlock()

		if !b.limiter.Allow() {
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "rate limit exceeded",
			})
			return
		}
		c.Next()
	}
}
