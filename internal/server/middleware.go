package server

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	model "auction-engine/internal/models"
	"auction-engine/services/bidding/helpers"
	"auction-engine/utils"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// ActorHeader carries the id of the acting user; identity is established upstream
const ActorHeader = "X-Actor-ID"

// RequestLoggerMiddleware logs incoming requests with timing
func RequestLoggerMiddleware(c *gin.Context) {
	start := time.Now()

	c.Next() // process request

	utils.Info("HTTP Request", map[string]any{
		"method":   c.Request.Method,
		"path":     c.Request.URL.Path,
		"status":   c.Writer.Status(),
		"latency":  time.Since(start).String(),
		"actor_id": helpers.ActorFromContext(c).ActorID,
	})
}

// ActorMiddleware turns the actor header into an ActorContext. Requests without it are anonymous.
func ActorMiddleware(c *gin.Context) {
	if id := c.GetHeader(ActorHeader); id != "" {
		c.Set(helpers.ActorKey, model.ActorContext{ActorID: id, Authenticated: true})
	}
	c.Next()
}

type actorLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// BidRateLimiter limits bid placement per actor
type BidRateLimiter struct {
	limit rate.Limit
	burst int
	now   func() time.Time

	mu       sync.Mutex
	limiters map[string]*actorLimiter
}

// NewBidRateLimiter allows each actor limit bids per second with the given burst
func NewBidRateLimiter(limit float64, burst int) *BidRateLimiter {
	return &BidRateLimiter{
		limit:    rate.Limit(limit),
		burst:    burst,
		now:      time.Now,
		limiters: make(map[string]*actorLimiter),
	}
}

func (rl *BidRateLimiter) limiterFor(actorID string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	al, ok := rl.limiters[actorID]
	if !ok {
		al = &actorLimiter{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.limiters[actorID] = al
	}
	al.lastAccess = rl.now()
	return al.limiter
}

// Middleware rejects bids over the actor's budget with 429 and a Retry-After hint.
// Anonymous requests pass through; the bid itself is rejected as unauthenticated.
func (rl *BidRateLimiter) Middleware(c *gin.Context) {
	actor := helpers.ActorFromContext(c)
	if !actor.Authenticated {
		c.Next()
		return
	}

	if !rl.limiterFor(actor.ActorID).AllowN(rl.now(), 1) {
		retryAfter := int(math.Ceil(1.0 / float64(rl.limit)))
		if retryAfter < 1 {
			retryAfter = 1
		}
		c.Header("Retry-After", strconv.Itoa(retryAfter))
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"status":  http.StatusTooManyRequests,
			"message": "too many bids, slow down",
			"error":   "rate limit exceeded",
		})
		utils.Warn("bid rate limit exceeded", map[string]any{"actor_id": actor.ActorID})
		return
	}
	c.Next()
}

// Prune drops limiters idle for longer than ttl
func (rl *BidRateLimiter) Prune(ttl time.Duration) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := rl.now().Add(-ttl)
	removed := 0
	for id, al := range rl.limiters {
		if al.lastAccess.Before(cutoff) {
			delete(rl.limiters, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked actors
func (rl *BidRateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.limiters)
}
