package middleware

import (
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// Rate tiers. Payment initiation and auth share the strict tier; browsing
// gets the general one. The callback route is never rate limited: dropping
// a gateway callback loses a reconciliation.
const (
	limitStrict  = rate.Limit(2)
	burstStrict  = 5
	limitGeneral = rate.Limit(10)
	burstGeneral = 20
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type limiterPool struct {
	mu       sync.Mutex
	visitors map[string]*visitor
}

func newLimiterPool() *limiterPool {
	p := &limiterPool{visitors: make(map[string]*visitor)}
	go p.cleanup()
	return p
}

func (p *limiterPool) get(key string, r rate.Limit, b int) *rate.Limiter {
	p.mu.Lock()
	defer p.mu.Unlock()

	v, ok := p.visitors[key]
	if !ok {
		lim := rate.NewLimiter(r, b)
		p.visitors[key] = &visitor{limiter: lim, lastSeen: time.Now()}
		return lim
	}
	v.lastSeen = time.Now()
	return v.limiter
}

func (p *limiterPool) cleanup() {
	for {
		time.Sleep(time.Minute)
		p.mu.Lock()
		for key, v := range p.visitors {
			if time.Since(v.lastSeen) > 3*time.Minute {
				delete(p.visitors, key)
			}
		}
		p.mu.Unlock()
	}
}

var pool = newLimiterPool()

// RateLimitStrict guards the auth and payment-initiation routes.
func RateLimitStrict() gin.HandlerFunc {
	return rateLimit(limitStrict, burstStrict)
}

// RateLimitGeneral guards everything else.
func RateLimitGeneral() gin.HandlerFunc {
	return rateLimit(limitGeneral, burstGeneral)
}

func rateLimit(limit rate.Limit, burst int) gin.HandlerFunc {
	return func(c *gin.Context) {
		var identity string
		if userID, ok := CurrentUserID(c); ok {
			identity = fmt.Sprintf("user:%d", userID)
		} else {
			ip, _, err := net.SplitHostPort(c.Request.RemoteAddr)
			if err != nil {
				ip = c.Request.RemoteAddr
			}
			identity = "ip:" + ip
		}

		if !pool.get(identity, limit, burst).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"success": false, "error": "too many requests"})
			return
		}
		c.Next()
	}
}
