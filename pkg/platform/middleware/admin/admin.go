package admin

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"

	dErrors "vetting/pkg/domain-errors"
	"vetting/pkg/platform/httputil"
	pstrings "vetting/pkg/platform/strings"
	"vetting/pkg/requestcontext"
)

const (
	HeaderToken  = "X-Admin-Token"
	HeaderActor  = "X-Admin-Actor"
	HeaderGrants = "X-Admin-Grants"
)

// RequireAdminToken rejects requests without the shared admin token and
// records the acting administrator and their grants in the request context.
func RequireAdminToken(expectedToken string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			token := r.Header.Get(HeaderToken)
			// constant-time comparison
			if expectedToken == "" || subtle.ConstantTimeCompare([]byte(token), []byte(expectedToken)) != 1 {
				logger.WarnContext(ctx, "admin token mismatch",
					"request_id", requestcontext.RequestID(ctx),
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "admin token required"))
				return
			}

			actor := strings.TrimSpace(r.Header.Get(HeaderActor))
			if actor == "" {
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "admin actor required"))
				return
			}

			ctx = requestcontext.WithActor(ctx, actor, pstrings.SplitList(r.Header.Get(HeaderGrants))...)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
