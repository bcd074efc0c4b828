// Package ratelimit throttles the admin API with a token bucket.
package ratelimit

import (
	"log/slog"
	"net/http"

	"golang.org/x/time/rate"

	dErrors "vetting/pkg/domain-errors"
	"vetting/pkg/platform/httputil"
	"vetting/pkg/requestcontext"
)

// Middleware admits requests at rps with the given burst. rps <= 0 disables
// limiting.
func Middleware(rps float64, burst int, logger *slog.Logger) func(http.Handler) http.Handler {
	if rps <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	if burst <= 0 {
		burst = 1
	}
	limiter := rate.NewLimiter(rate.Limit(rps), burst)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				logger.WarnContext(r.Context(), "rate limit exceeded",
					"request_id", requestcontext.RequestID(r.Context()),
					"path", r.URL.Path,
				)
				w.Header().Set("Retry-After", "1")
				httputil.WriteJSON(w, http.StatusTooManyRequests, httputil.ErrorResponse{
					Error:            string(dErrors.CodeUnavailable),
					ErrorDescription: "too many requests",
					Retryable:        true,
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
