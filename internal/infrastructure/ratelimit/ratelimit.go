package ratelimit

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const staleAfter = 10 * time.Minute

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Limiter hands out a token bucket per caller key and drops buckets that
// have been idle long enough to be irrelevant.
type Limiter struct {
	mu      sync.Mutex
	entries map[string]*entry
	rate    rate.Limit
	burst   int
}

// New builds a Limiter allowing n events per window with the given burst.
func New(n int, window time.Duration, burst int) *Limiter {
	return &Limiter{
		entries: make(map[string]*entry),
		rate:    rate.Every(window / time.Duration(n)),
		burst:   burst,
	}
}

func (l *Limiter) get(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	if e, ok := l.entries[key]; ok {
		e.lastSeen = now
		return e.limiter
	}

	if len(l.entries) > 1024 {
		for k, e := range l.entries {
			if now.Sub(e.lastSeen) > staleAfter {
				delete(l.entries, k)
			}
		}
	}

	lim := rate.NewLimiter(l.rate, l.burst)
	l.entries[key] = &entry{limiter: lim, lastSeen: now}
	return lim
}

// Allow reports whether the caller identified by key may proceed.
func (l *Limiter) Allow(key string) bool {
	return l.get(key).Allow()
}

// Middleware returns a gin handler that throttles requests per user.
// Anonymous callers are keyed by client IP.
func Middleware(l *Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader("X-User-ID")
		if key == "" {
			key = c.ClientIP()
		}
		if !l.Allow(key) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":  "Too many requests",
				"reason": "rate_limited",
			})
			return
		}
		c.Next()
	}
}
