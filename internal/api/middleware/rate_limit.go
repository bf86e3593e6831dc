package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/cartai/ledger/internal/api/problem"
	"github.com/go-chi/httprate"
)

// PublicRateLimiter throttles unauthenticated routes per client IP.
func PublicRateLimiter(rps int) func(http.Handler) http.Handler {
	return limiter(rps, "client", httprate.KeyByIP)
}

// AccountRateLimiter throttles authenticated routes per account, falling back to
// the client IP. It must run after Authenticate.
func AccountRateLimiter(rps int) func(http.Handler) http.Handler {
	return limiter(rps, "account", func(r *http.Request) (string, error) {
		if s, ok := SessionFromContext(r.Context()); ok {
			return s.AccountID.String(), nil
		}
		return httprate.KeyByIP(r)
	})
}

func limiter(rps int, scope string, key httprate.KeyFunc) func(http.Handler) http.Handler {
	detail := fmt.Sprintf("more than %d requests per second for this %s", rps, scope)
	return httprate.Limit(rps, time.Second,
		httprate.WithKeyFuncs(key),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			problem.Write(w, r, http.StatusTooManyRequests, "rate-limit-exceeded", detail)
		}),
	)
}
