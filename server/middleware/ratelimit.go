package middleware

import (
	"math"
	"net"
	"net/http"

	"github.com/kbukum/dataflow/errors"
	"github.com/kbukum/dataflow/resilience"
)

// RateLimit admits requests through one token bucket per client host.
// Rejected requests get RATE_LIMITED (429) with Retry-After. Probes are
// never limited.
func RateLimit(limiter *resilience.KeyedRateLimiter) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isProbe(r) {
				next.ServeHTTP(w, r)
				return
			}
			ok, wait := limiter.Allow(clientHost(r))
			if !ok {
				errors.RateLimited(max(1, int(math.Ceil(wait.Seconds())))).WriteHTTP(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientHost(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
