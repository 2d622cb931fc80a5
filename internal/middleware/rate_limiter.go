package middleware

import (
	"net/http"
	"sync"
	"time"

	"chainpilot/internal/apierror"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// rateEntry tracks request counts per IP within a fixed window.
type rateEntry struct {
	count     int
	windowEnd time.Time
	mu        sync.Mutex
}

// limiter holds the per-IP windows of one RateLimiter instance.
type limiter struct {
	limit  int
	window time.Duration

	mu      sync.Mutex
	entries map[string]*rateEntry
}

func (l *limiter) entry(ip string) *rateEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.entries[ip]
	if !ok {
		e = &rateEntry{}
		l.entries[ip] = e
	}
	return e
}

// allow counts one request and reports whether it fits in the window.
func (l *limiter) allow(ip string, now time.Time) (bool, time.Time) {
	e := l.entry(ip)
	e.mu.Lock()
	defer e.mu.Unlock()

	if now.After(e.windowEnd) {
		e.count = 0
		e.windowEnd = now.Add(l.window)
	}
	e.count++
	return e.count <= l.limit, e.windowEnd
}

// purge drops expired windows so IPs that never return do not accumulate.
func (l *limiter) purge(now time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	purged := 0
	for ip, e := range l.entries {
		e.mu.Lock()
		if now.After(e.windowEnd) {
			delete(l.entries, ip)
			purged++
		}
		e.mu.Unlock()
	}
	return purged
}

const purgeInterval = 5 * time.Minute

// RateLimiter returns a per-IP rate limiter allowing limit requests per window.
// Long-lived view streams count once, when they connect.
func RateLimiter(limit int, window time.Duration) gin.HandlerFunc {
	l := &limiter{limit: limit, window: window, entries: make(map[string]*rateEntry)}
	go func() {
		ticker := time.NewTicker(purgeInterval)
		defer ticker.Stop()
		for now := range ticker.C {
			if n := l.purge(now); n > 0 {
				log.Debug().Int("entries_purged", n).Msg("rate limiter map purged")
			}
		}
	}()

	return func(c *gin.Context) {
		ok, windowEnd := l.allow(c.ClientIP(), time.Now())
		if !ok {
			c.Header("Retry-After", windowEnd.Format(time.RFC1123))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, apierror.New("Too many requests, try again shortly"))
			return
		}
		c.Next()
	}
}
