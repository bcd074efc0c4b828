package requestid

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"vetting/pkg/requestcontext"
)

const Header = "X-Request-ID"

// maxLength bounds client-supplied ids before they reach the logs.
const maxLength = 128

// Middleware propagates an inbound X-Request-ID or mints one, and echoes it on
// the response.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(Header))
		if id == "" || len(id) > maxLength {
			id = uuid.NewString()
		}
		w.Header().Set(Header, id)
		ctx := requestcontext.WithRequestID(r.Context(), id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
