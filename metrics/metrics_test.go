// ABOUTME: Tests for the metrics middleware and domain counters
// ABOUTME: Reads families back from the private registry

package metrics

import (
	"bytes"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddlewareRecordsMetricsAndErrors(t *testing.T) {
	gin.SetMode(gin.TestMode)

	m := NewMetrics("testmw")
	var buf bytes.Buffer
	logger := log.New(&buf)

	r := gin.New()
	r.Use(Middleware(m, logger))

	r.GET("/ok", func(c *gin.Context) {
		c.Status(200)
	})
	r.GET("/err", func(c *gin.Context) {
		_ = c.Error(errors.New("boom"))
		c.Status(500)
	})
	r.NoRoute(func(c *gin.Context) {
		c.Status(404)
	})

	for _, path := range []string{"/ok", "/err", "/missing"} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest("GET", path, nil)
		r.ServeHTTP(w, req)
	}

	assert.Contains(t, buf.String(), "request error")

	families, err := m.registry.Gather()
	require.NoError(t, err)
	assert.True(t, metricHasLabel(families, "testmw_http_requests_total", "endpoint", "/ok"))
	assert.True(t, metricHasLabel(families, "testmw_http_requests_total", "endpoint", "/missing"))
}

func TestDomainCountersExposed(t *testing.T) {
	m := NewMetrics("prospecta")
	m.RecordTokenOperation("refresh", "success")
	m.RecordCalendarSync("success", 7)
	m.RecordCalendarSync("error", 0)
	m.RecordProspectCreated("webhook")

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(w.Result().Body)
	require.NoError(t, err)
	text := string(body)

	assert.Contains(t, text, `prospecta_oauth_token_operations_total{operation="refresh",result="success"} 1`)
	assert.Contains(t, text, `prospecta_calendar_syncs_total{result="error"} 1`)
	assert.Contains(t, text, "prospecta_calendar_synced_events 7")
	assert.True(t, strings.Contains(text, `prospecta_prospects_created_total{source="webhook"} 1`))
}

func metricHasLabel(families []*dto.MetricFamily, name, key, value string) bool {
	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		for _, metric := range family.GetMetric() {
			for _, label := range metric.GetLabel() {
				if label.GetName() == key && label.GetValue() == value {
					return true
				}
			}
		}
	}
	return false
}
