package api

import (
	"log/slog"
	"net"
	"net/http"

	domainerrors "github.com/tabsverse/tabsverse-server/internal/errors"
	"github.com/tabsverse/tabsverse-server/internal/ratelimit"
)

// RateLimitMiddleware creates a middleware that rate limits write requests by IP.
// Returns 429 Too Many Requests when limit is exceeded. Reads are not limited.
func RateLimitMiddleware(limiter *ratelimit.KeyedRateLimiter, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isReadOnly(r.Method) {
				next.ServeHTTP(w, r)
				return
			}

			key := getClientIP(r)
			if !limiter.Allow(key) {
				logger.Warn("Rate limit exceeded",
					"ip", key,
					"method", r.Method,
					"path", r.URL.Path,
				)
				w.Header().Set("Retry-After", "1")
				writeError(w, domainerrors.RateLimited("Too many requests. Please try again later."))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func isReadOnly(method string) bool {
	return method == http.MethodGet || method == http.MethodHead || method == http.MethodOptions
}

// getClientIP returns the host part of RemoteAddr. Forwarding headers are
// honored only through middleware.RealIP, which is mounted when the server
// is configured to trust its proxy.
func getClientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
