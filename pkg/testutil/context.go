package testutil

import (
	"net/http"
	"strings"
	"time"

	"vetting/pkg/platform/middleware/admin"
	"vetting/pkg/requestcontext"
)

// AsAdmin sets the headers the admin middleware expects.
func AsAdmin(req *http.Request, token, actor string, grants ...string) *http.Request {
	req.Header.Set(admin.HeaderToken, token)
	req.Header.Set(admin.HeaderActor, actor)
	if len(grants) > 0 {
		req.Header.Set(admin.HeaderGrants, strings.Join(grants, ","))
	}
	return req
}

// WithActor injects the acting administrator directly, bypassing the header
// middleware. Use it when calling a handler func without a router.
func WithActor(req *http.Request, actor string, grants ...string) *http.Request {
	return req.WithContext(requestcontext.WithActor(req.Context(), actor, grants...))
}

// AtTime pins the request-scoped clock.
func AtTime(req *http.Request, t time.Time) *http.Request {
	return req.WithContext(requestcontext.WithTime(req.Context(), t))
}
