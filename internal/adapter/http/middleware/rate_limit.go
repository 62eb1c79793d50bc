package middleware

import (
	"fmt"
	"net/http"

	"github.com/clientpulse/clientpulse/internal/adapter/http/response"
	"github.com/clientpulse/clientpulse/internal/logger"
	"github.com/clientpulse/clientpulse/internal/service/ratelimit"
)

// RateLimitMiddleware bounds per-IP request rates on the webhook and login
// endpoints
type RateLimitMiddleware struct {
	limiter ratelimit.RateLimitService
	log     logger.Logger
}

func NewRateLimitMiddleware(limiter ratelimit.RateLimitService, log logger.Logger) *RateLimitMiddleware {
	return &RateLimitMiddleware{limiter: limiter, log: log}
}

func (m *RateLimitMiddleware) RateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.limiter == nil {
			next.ServeHTTP(w, r)
			return
		}

		key := fmt.Sprintf("%s:%s", r.URL.Path, ClientIP(r))
		allowed, err := m.limiter.Allow(r.Context(), key)
		if err != nil {
			// a limiter outage must not take the endpoint down with it
			m.log.Error(r.Context(), "rate limit check failed", err, map[string]interface{}{
				"key": key,
			})
			next.ServeHTTP(w, r)
			return
		}
		if !allowed {
			response.TooManyRequests(w, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}
