package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// ──────────────────────────────────────────────────────────────────────────────
// Per-IP token buckets
// ──────────────────────────────────────────────────────────────────────────────

const (
	sweepInterval = 5 * time.Minute
	idleCutoff    = 10 * time.Minute
)

// visitor is one IP's bucket within a scope.
type visitor struct {
	mu       sync.Mutex
	tokens   float64
	lastSeen time.Time
}

// scopeLimiter buckets visitors for one named route group. The auth and write
// surfaces each get their own scope, so bursts against one cannot starve the
// other.
type scopeLimiter struct {
	scope string
	rate  float64 // tokens per second
	burst float64 // bucket capacity

	mu       sync.RWMutex
	visitors map[string]*visitor

	now func() time.Time
}

func newScopeLimiter(scope string, rps float64) *scopeLimiter {
	burst := 2 * rps
	if burst < 5 {
		burst = 5
	}
	return &scopeLimiter{
		scope:    scope,
		rate:     rps,
		burst:    burst,
		visitors: make(map[string]*visitor),
		now:      time.Now,
	}
}

// allow refills the key's bucket for elapsed time and spends one token.
func (l *scopeLimiter) allow(key string) bool {
	l.mu.RLock()
	v, ok := l.visitors[key]
	l.mu.RUnlock()

	if !ok {
		l.mu.Lock()
		if v, ok = l.visitors[key]; !ok {
			v = &visitor{tokens: l.burst, lastSeen: l.now()}
			l.visitors[key] = v
		}
		l.mu.Unlock()
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	now := l.now()
	v.tokens += now.Sub(v.lastSeen).Seconds() * l.rate
	if v.tokens > l.burst {
		v.tokens = l.burst
	}
	v.lastSeen = now

	if v.tokens < 1 {
		return false
	}
	v.tokens--
	return true
}

// sweep drops visitors idle past the cutoff.
func (l *scopeLimiter) sweep(cutoff time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for ip, v := range l.visitors {
		v.mu.Lock()
		stale := v.lastSeen.Before(cutoff)
		v.mu.Unlock()
		if stale {
			delete(l.visitors, ip)
		}
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Shared registry
// ──────────────────────────────────────────────────────────────────────────────

// registry holds every scope's limiter behind one eviction loop, instead of
// each middleware instance running its own.
var (
	regMu     sync.Mutex
	registry  = make(map[string]*scopeLimiter)
	sweepOnce sync.Once
)

func limiterFor(scope string, rps float64) *scopeLimiter {
	regMu.Lock()
	defer regMu.Unlock()
	if l, ok := registry[scope]; ok {
		return l
	}
	l := newScopeLimiter(scope, rps)
	registry[scope] = l

	sweepOnce.Do(func() {
		go func() {
			ticker := time.NewTicker(sweepInterval)
			defer ticker.Stop()
			for range ticker.C {
				cutoff := time.Now().Add(-idleCutoff)
				regMu.Lock()
				limiters := make([]*scopeLimiter, 0, len(registry))
				for _, l := range registry {
					limiters = append(limiters, l)
				}
				regMu.Unlock()
				for _, l := range limiters {
					l.sweep(cutoff)
				}
			}
		}()
	})
	return l
}

// RateLimitMiddleware enforces a per-IP token bucket of rps requests per
// second for the named scope. Calling it twice with the same scope returns
// middleware backed by the same buckets. Clients over the limit get 429.
func RateLimitMiddleware(scope string, rps float64) gin.HandlerFunc {
	l := limiterFor(scope, rps)
	return func(c *gin.Context) {
		if !l.allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "too many requests — please slow down",
			})
			return
		}
		c.Next()
	}
}
