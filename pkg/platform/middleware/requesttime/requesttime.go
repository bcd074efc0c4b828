// Package requesttime gives every request a single "now" so history
// timestamps, verification dates and expiry classification within one request
// agree with each other.
package requesttime

import (
	"net/http"
	"time"

	"vetting/pkg/requestcontext"
)

// Middleware captures the current time at the start of the request.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithTime(r.Context(), time.Now().UTC())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
