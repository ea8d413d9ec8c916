package serverutils

import (
	"sync"
	"time"

	"med-agent-be/internal/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/time/rate"
)

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// rateLimiterStore holds one token bucket per client IP.
type rateLimiterStore struct {
	mu       sync.Mutex
	limiters map[string]*limiterEntry
	limit    rate.Limit
	burst    int
	idle     time.Duration
}

func (s *rateLimiterStore) get(ip string, now time.Time) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, e := range s.limiters {
		if now.Sub(e.lastSeen) > s.idle {
			delete(s.limiters, key)
		}
	}

	e, ok := s.limiters[ip]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(s.limit, s.burst)}
		s.limiters[ip] = e
	}
	e.lastSeen = now
	return e.limiter
}

// RateLimitMiddleware allows perMinute requests per client IP with the given
// burst. A non-positive perMinute disables limiting.
func RateLimitMiddleware(perMinute, burst int, log logger.ILogger) fiber.Handler {
	if perMinute <= 0 {
		return func(ctx *fiber.Ctx) error { return ctx.Next() }
	}
	if burst <= 0 {
		burst = 1
	}
	store := &rateLimiterStore{
		limiters: make(map[string]*limiterEntry),
		limit:    rate.Every(time.Minute / time.Duration(perMinute)),
		burst:    burst,
		idle:     10 * time.Minute,
	}
	return func(ctx *fiber.Ctx) error {
		ip := ctx.IP()
		if !store.get(ip, time.Now()).Allow() {
			log.Warn("RATE_LIMIT", "Rate limit exceeded", map[string]interface{}{"ip": ip})
			return ctx.Status(fiber.StatusTooManyRequests).JSON(ErrorResponse(fiber.StatusTooManyRequests, "Rate limit exceeded. Try again later."))
		}
		return ctx.Next()
	}
}
