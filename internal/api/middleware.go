package api

import (
	"container/list"
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/news-composer/internal/config"
)

// recoveryMiddleware handles panics
func recoveryMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				log.Error().Interface("error", err).Str("path", c.Request.URL.Path).Msg("Panic recovered")
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error": "Internal server error",
				})
			}
		}()
		c.Next()
	}
}

// loggingMiddleware logs requests
func loggingMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		duration := time.Since(start)
		statusCode := c.Writer.Status()

		event := log.Info()
		if statusCode >= 400 {
			event = log.Warn()
		}
		if statusCode >= 500 {
			event = log.Error()
		}

		event.
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status", statusCode).
			Dur("duration", duration).
			Str("client_ip", c.ClientIP()).
			Msg("Request completed")
	}
}

// corsMiddleware handles CORS for the configured origins
func corsMiddleware(origins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if allowOrigin := matchOrigin(origins, origin); allowOrigin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", allowOrigin)
			c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
			c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			c.Writer.Header().Set("Access-Control-Max-Age", "86400")
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// matchOrigin returns the Access-Control-Allow-Origin value for origin, or ""
func matchOrigin(origins []string, origin string) string {
	for _, o := range origins {
		if o == "*" {
			return "*"
		}
		if origin != "" && o == origin {
			return origin
		}
	}
	return ""
}

// ipLimiter tracks a per-IP token bucket and its position in the LRU list
type ipLimiter struct {
	ip       string
	limiter  *rate.Limiter
	lastSeen time.Time
}

// rateLimitMiddleware limits requests per client IP with a token bucket. At most
// cfg.MaxIPs clients are tracked; the least recently seen is evicted first.
func rateLimitMiddleware(ctx context.Context, cfg config.RateLimitConfig, log zerolog.Logger) gin.HandlerFunc {
	maxIPs := cfg.MaxIPs
	if maxIPs <= 0 {
		maxIPs = 10000
	}

	var (
		items = make(map[string]*list.Element)
		order = list.New() // front = most recent, back = oldest
		mu    sync.Mutex
	)

	// Stale entries are dropped until ctx is cancelled
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				mu.Lock()
				now := time.Now()
				for e := order.Back(); e != nil; {
					prev := e.Prev()
					lim := e.Value.(*ipLimiter)
					if now.Sub(lim.lastSeen) > 10*time.Minute {
						order.Remove(e)
						delete(items, lim.ip)
					}
					e = prev
				}
				mu.Unlock()
			case <-ctx.Done():
				return
			}
		}
	}()

	return func(c *gin.Context) {
		ip := c.ClientIP()

		mu.Lock()
		elem, exists := items[ip]
		if exists {
			order.MoveToFront(elem)
			elem.Value.(*ipLimiter).lastSeen = time.Now()
		} else {
			if order.Len() >= maxIPs {
				if back := order.Back(); back != nil {
					evicted := back.Value.(*ipLimiter)
					order.Remove(back)
					delete(items, evicted.ip)
					log.Debug().Str("client_ip", evicted.ip).Int("max_ips", maxIPs).Msg("Rate limiter evicted least recent client")
				}
			}
			elem = order.PushFront(&ipLimiter{
				ip:       ip,
				limiter:  rate.NewLimiter(rate.Limit(cfg.RPS), cfg.Burst),
				lastSeen: time.Now(),
			})
			items[ip] = elem
		}
		allowed := elem.Value.(*ipLimiter).limiter.Allow()
		mu.Unlock()

		if !allowed {
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}
