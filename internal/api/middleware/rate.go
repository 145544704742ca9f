package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimitConfig defines rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int
	Burst             int
}

// DefaultRateLimitConfig returns production-ready rate limit configuration.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerSecond: 100,
		Burst:             200,
	}
}

const (
	visitorTTL    = 10 * time.Minute
	sweepInterval = time.Minute
)

// visitorLimits keeps one token bucket per client IP. Buckets idle
// longer than visitorTTL are dropped during a periodic sweep, so the
// map is bounded by recent traffic rather than every address ever seen
// over the process lifetime.
type visitorLimits struct {
	cfg RateLimitConfig
	ttl time.Duration
	now func() time.Time

	mu        sync.Mutex
	visitors  map[string]*visitor
	lastSweep time.Time
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newVisitorLimits(cfg RateLimitConfig) *visitorLimits {
	return &visitorLimits{
		cfg:      cfg,
		ttl:      visitorTTL,
		now:      time.Now,
		visitors: make(map[string]*visitor),
	}
}

// allow consumes one token for ip, creating its bucket on first sight.
func (v *visitorLimits) allow(ip string) bool {
	now := v.now()

	v.mu.Lock()
	if now.Sub(v.lastSweep) >= sweepInterval {
		v.sweepLocked(now)
	}
	vis, ok := v.visitors[ip]
	if !ok {
		vis = &visitor{limiter: rate.NewLimiter(rate.Limit(v.cfg.RequestsPerSecond), v.cfg.Burst)}
		v.visitors[ip] = vis
	}
	vis.lastSeen = now
	limiter := vis.limiter
	v.mu.Unlock()

	return limiter.Allow()
}

func (v *visitorLimits) sweepLocked(now time.Time) {
	v.lastSweep = now
	for ip, vis := range v.visitors {
		if now.Sub(vis.lastSeen) > v.ttl {
			delete(v.visitors, ip)
		}
	}
}

func (v *visitorLimits) size() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.visitors)
}

// RateLimit creates a per-IP rate limiting middleware.
func RateLimit(cfg RateLimitConfig) gin.HandlerFunc {
	limits := newVisitorLimits(cfg)

	return func(c *gin.Context) {
		if !limits.allow(c.ClientIP()) {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error": "rate limit exceeded",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

// GlobalRateLimit creates a global rate limiting middleware.
func GlobalRateLimit(cfg RateLimitConfig) gin.HandlerFunc {
	limiter := rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst)

	return func(c *gin.Context) {
		if !limiter.Allow() {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error": "rate limit exceeded",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}
