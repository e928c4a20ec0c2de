package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddlewareCountsByRoute(t *testing.T) {
	m := New("test")
	e := echo.New()
	e.Use(m.Middleware())
	e.GET("/api/asset-tracker/assets/:id", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/metrics", m.Handler())

	for _, id := range []string{"1", "2", "3"} {
		e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/asset-tracker/assets/"+id, nil))
	}
	e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nope", nil))

	assert.Equal(t, 3.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/api/asset-tracker/assets/:id", "200")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.HTTPRequestsInFlight))

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, "test_http_requests_total"))
	assert.True(t, strings.Contains(body, `status="404"`))
	assert.True(t, strings.Contains(body, "go_goroutines"))
}

func TestDomainCounters(t *testing.T) {
	m := New("test")

	m.RecordCheckIn()
	m.RecordCheckIn()
	m.RecordCheckOut(95)
	m.ObserveResolution("primary_sync", "resolved")
	m.ObserveResolution("none", "unavailable")
	m.ObserveResolution("none", "unavailable")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.CheckInsTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CheckOutsTotal))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ResolverOutcomes.WithLabelValues("none", "unavailable")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.WorkedMinutes))
}

func TestNewIsIsolated(t *testing.T) {
	a, b := New("test"), New("test")
	a.RecordCheckIn()
	assert.Equal(t, 0.0, testutil.ToFloat64(b.CheckInsTotal))
}
