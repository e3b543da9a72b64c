package middleware

import (
	"net/http"
	"sync"
	"time"

	"veoprompt/internal/store"

	"golang.org/x/time/rate"
)

// RateLimiter keeps one token bucket per user.
type RateLimiter struct {
	limiters     sync.Map // userID -> *cachedLimiter
	ttl          time.Duration
	defaultRate  float64
	defaultBurst int
}

// RateLimiterOption configures a RateLimiter.
type RateLimiterOption func(*RateLimiter)

// WithTTL sets how long a limiter is reused before it is rebuilt from the
// user's current settings.
func WithTTL(ttl time.Duration) RateLimiterOption {
	return func(rl *RateLimiter) { rl.ttl = ttl }
}

// WithDefaultLimit applies to users without their own limit. A zero rate
// leaves those users unlimited.
func WithDefaultLimit(perSecond float64, burst int) RateLimiterOption {
	return func(rl *RateLimiter) {
		rl.defaultRate = perSecond
		rl.defaultBurst = burst
	}
}

func NewRateLimiter(opts ...RateLimiterOption) *RateLimiter {
	rl := &RateLimiter{ttl: 5 * time.Minute}
	for _, opt := range opts {
		opt(rl)
	}
	return rl
}

// Middleware must run after AuthMiddleware.
func (rl *RateLimiter) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := UserFromContext(r.Context())
			if !ok {
				writeError(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			limit, burst := rl.limitFor(user)
			if limit > 0 {
				if !rl.limiter(user, limit, burst).Allow() {
					w.Header().Set("Retry-After", "1")
					writeError(w, "Too Many Requests", http.StatusTooManyRequests)
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (rl *RateLimiter) limitFor(user *store.User) (float64, int) {
	if user.RateLimit > 0 {
		burst := user.RateLimitBurst
		if burst <= 0 {
			burst = user.RateLimit
		}
		return float64(user.RateLimit), burst
	}
	burst := rl.defaultBurst
	if burst <= 0 {
		burst = int(rl.defaultRate) + 1
	}
	return rl.defaultRate, burst
}

type cachedLimiter struct {
	limiter   *rate.Limiter
	expiresAt time.Time
}

func (rl *RateLimiter) limiter(user *store.User, limit float64, burst int) *rate.Limiter {
	if v, ok := rl.limiters.Load(user.ID); ok {
		cached := v.(*cachedLimiter)
		if time.Now().Before(cached.expiresAt) {
			return cached.limiter
		}
		// expired, need to create new
	}

	limiter := rate.NewLimiter(rate.Limit(limit), burst)
	rl.limiters.Store(user.ID, &cachedLimiter{
		limiter:   limiter,
		expiresAt: time.Now().Add(rl.ttl),
	})
	return limiter
}
