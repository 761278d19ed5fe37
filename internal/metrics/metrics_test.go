package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m := New()
	m.Action("core.create_event", nil)
	m.Action("core.create_event", errors.New("boom"))
	m.Action("core.create_event", nil)
	m.TargetingWarning("mutual")
	m.TargetingCollapsed()
	m.PagesGenerated(3)
	m.ObserveDerivation("targeting", 20*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.actions.WithLabelValues("core.create_event", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.actions.WithLabelValues("core.create_event", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.targetingWarnings.WithLabelValues("mutual")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.targetingCollapsed))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.pagesGenerated))
}

func TestNilMetricsRecordNothing(t *testing.T) {
	var m *Metrics
	m.Action("x", nil)
	m.PagesGenerated(1)
	m.TargetingCollapsed()
	h := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})
	assert.NotNil(t, m.Instrument(h))
}

func TestInstrumentAndHandler(t *testing.T) {
	m := New()
	h := m.Instrument(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/missing.html", nil))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequestsTotal.WithLabelValues("GET", "404")))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "au2_http_requests_total"))
}
