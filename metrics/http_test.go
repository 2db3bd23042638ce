package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddlewareLabelsByRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := New("siteguard")
	r := gin.New()
	r.Use(m.Middleware())
	r.GET("/api/workspaces/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	for _, id := range []string{"a", "b"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/workspaces/"+id, nil))
		require.Equal(t, http.StatusNoContent, rec.Code)
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requestTotal.WithLabelValues(http.MethodGet, "/api/workspaces/:id", "204")))
}

func TestHandlerExposesAIMetrics(t *testing.T) {
	m := New("siteguard")
	m.ObserveAICall("architecture_plan", "ok", 1500*time.Millisecond)
	m.ObserveAICall("architecture_plan", "usage_limit", 10*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `siteguard_ai_calls_total{operation="architecture_plan",outcome="usage_limit"} 1`), body)
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveAICall("x", "ok", time.Second)
		m.ObserveEvent("x", "ok")
		m.ObserveJob("x", "ok")
	})
}
