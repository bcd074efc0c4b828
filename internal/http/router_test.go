package httpapi

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vetting/internal/platform/metrics"
	"vetting/internal/review/handler"
	"vetting/pkg/platform/middleware/requestid"
	"vetting/pkg/testutil"
)

func newTestRouter(checks ...HealthCheck) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewRouter(Deps{
		Review:     handler.New(nil, logger),
		Metrics:    metrics.New(),
		Logger:     logger,
		AdminToken: "secret",
		Health:     checks,
	})
}

func TestHealthz(t *testing.T) {
	t.Run("ok when every check passes", func(t *testing.T) {
		router := newTestRouter(HealthCheck{Name: "postgres", Check: func(context.Context) error { return nil }})
		rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodGet, "/healthz", nil))
		require.Equal(t, http.StatusOK, rr.Code)
		assert.NotEmpty(t, rr.Header().Get(requestid.Header))
	})

	t.Run("degraded when a dependency fails", func(t *testing.T) {
		router := newTestRouter(HealthCheck{Name: "redis", Check: func(context.Context) error { return errors.New("connection refused") }})
		rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodGet, "/healthz", nil))
		require.Equal(t, http.StatusServiceUnavailable, rr.Code)
		resp := testutil.UnmarshalResponse[healthResponse](t, rr)
		assert.Equal(t, "degraded", resp.Status)
		assert.Equal(t, "connection refused", resp.Checks["redis"])
	})
}

func TestAdminRoutesAreGuarded(t *testing.T) {
	router := newTestRouter()
	rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodGet, "/admin/queue", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestMetricsExposesRouteLatency(t *testing.T) {
	router := newTestRouter()
	testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodGet, "/healthz", nil))

	rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.True(t, strings.Contains(body, `vetting_http_request_duration_seconds_count{route="/healthz",status="2xx"} 1`), body)
}
