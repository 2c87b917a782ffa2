package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"dropmart-be/internal/identity"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// Rate limit tiers
const (
	// Checkout and webhooks
	limitStrict = rate.Limit(2)
	burstStrict = 5

	// Everything else
	limitGeneral = rate.Limit(10)
	burstGeneral = 20
)

// visitor holds the rate limiter and the last time it was seen.
type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

var (
	visitors = make(map[string]*visitor)
	mu       sync.Mutex
)

func init() {
	go cleanupVisitors()
}

// getVisitor retrieves or creates a rate limiter for the given bucket key.
func getVisitor(key string, r rate.Limit, b int) *rate.Limiter {
	mu.Lock()
	defer mu.Unlock()

	v, exists := visitors[key]
	if !exists {
		limiter := rate.NewLimiter(r, b)
		visitors[key] = &visitor{limiter, time.Now()}
		return limiter
	}

	v.lastSeen = time.Now()
	return v.limiter
}

// cleanupVisitors removes stale entries so the map does not grow forever.
func cleanupVisitors() {
	for {
		time.Sleep(time.Minute)

		mu.Lock()
		for key, v := range visitors {
			if time.Since(v.lastSeen) > 3*time.Minute {
				delete(visitors, key)
			}
		}
		mu.Unlock()
	}
}

// RateLimit throttles per identity, with a stricter tier for checkout and the
// payment webhook.
func RateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, burst, tier := resolveRateTier(c.Request.URL.Path)

		key := bucketKey(c) + ":" + tier
		limiter := getVisitor(key, limit, burst)
		if !limiter.Allow() {
			c.AbortWithStatus(http.StatusTooManyRequests)
			return
		}

		c.Next()
	}
}

func bucketKey(c *gin.Context) string {
	if id, ok := identity.FromContext(c.Request.Context()); ok {
		if id.UserID != nil {
			return "user:" + strconv.FormatInt(*id.UserID, 10)
		}
		if id.SessionToken != nil {
			return "session:" + *id.SessionToken
		}
	}
	return "ip:" + c.ClientIP()
}

func resolveRateTier(path string) (rate.Limit, int, string) {
	if strings.HasPrefix(path, "/v1/checkout") || strings.HasPrefix(path, "/v1/payments") {
		return limitStrict, burstStrict, "strict"
	}
	return limitGeneral, burstGeneral, "general"
}
