package observability

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
)

func TestMiddlewareRecordsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewCollector(reg)
	if err != nil {
		t.Fatalf("NewCollector: %v", err)
	}

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(collector.Middleware())
	router.POST("/session/:id/run", func(g *gin.Context) {
		time.Sleep(10 * time.Millisecond)
		g.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodPost, "/session/abc/run", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if got := testutil.ToFloat64(collector.HTTPRequests.WithLabelValues("/session/:id/run", "POST", "200")); got != 1 {
		t.Fatalf("explore_http_requests_total = %v, want 1", got)
	}

	if count := histogramSampleCount(t, reg, "explore_http_request_duration_seconds", map[string]string{
		"route":  "/session/:id/run",
		"method": "POST",
	}); count != 1 {
		t.Fatalf("explore_http_request_duration_seconds sample_count = %d, want 1", count)
	}
}

func TestMiddlewareRecordsErrorStatus(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewCollector(reg)
	if err != nil {
		t.Fatalf("NewCollector: %v", err)
	}

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(collector.Middleware())
	router.POST("/session/:id/run", func(g *gin.Context) {
		g.AbortWithStatus(http.StatusConflict)
	})

	req := httptest.NewRequest(http.MethodPost, "/session/abc/run", nil)
	router.ServeHTTP(httptest.NewRecorder(), req)

	if got := testutil.ToFloat64(collector.HTTPRequests.WithLabelValues("/session/:id/run", "POST", "409")); got != 1 {
		t.Fatalf("explore_http_requests_total error label = %v, want 1", got)
	}
}

func TestControllerObserversFeedCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewCollector(reg)
	if err != nil {
		t.Fatalf("NewCollector: %v", err)
	}

	collector.ObserveTransition("enter-plan")
	collector.ObserveTransition("enter-plan")
	collector.ObserveRun("plan-national", "ok", 2.5)
	collector.ObserveRun("plan-national", "error", 0.1)
	collector.ObserveFootprintFetch("ok")
	collector.ObserveGeometryCache(true)
	collector.ObserveGeometryCache(false)

	if got := testutil.ToFloat64(collector.Transitions.WithLabelValues("enter-plan")); got != 2 {
		t.Fatalf("explore_transitions_total = %v, want 2", got)
	}
	if got := testutil.ToFloat64(collector.Runs.WithLabelValues("plan-national", "error")); got != 1 {
		t.Fatalf("model_runs_total{outcome=error} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(collector.GeometryCache.WithLabelValues("hit")); got != 1 {
		t.Fatalf("geometry_cache_requests_total{result=hit} = %v, want 1", got)
	}
	if count := histogramSampleCount(t, reg, "model_run_duration_seconds", map[string]string{
		"scenario": "plan-national",
	}); count != 2 {
		t.Fatalf("model_run_duration_seconds sample_count = %d, want 2", count)
	}
}

func TestMetricsHandlerExposesSessionGauge(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewCollector(reg)
	if err != nil {
		t.Fatalf("NewCollector: %v", err)
	}
	collector.SessionOpened()
	collector.SessionOpened()
	collector.SessionClosed()
	collector.ObserveTransition("home")

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	collector.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("/metrics status = %d, want 200", rr.Code)
	}
	body := rr.Body.String()
	for _, metric := range []string{
		"explore_transitions_total",
		"explore_sessions_active",
	} {
		if !strings.Contains(body, metric) {
			t.Fatalf("expected %q in /metrics output", metric)
		}
	}
	if !strings.Contains(body, "explore_sessions_active 1") {
		t.Fatalf("/metrics output missing session gauge value: %s", body)
	}
}

func histogramSampleCount(t *testing.T, gatherer prometheus.Gatherer, name string, labels map[string]string) uint64 {
	t.Helper()

	metrics, err := gatherer.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	for _, mf := range metrics {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.Metric {
			if matchLabels(m.GetLabel(), labels) && m.GetHistogram() != nil {
				return m.GetHistogram().GetSampleCount()
			}
		}
	}
	return 0
}

func matchLabels(got []*dto.LabelPair, want map[string]string) bool {
	if len(got) < len(want) {
		return false
	}
	matched := 0
	for _, lp := range got {
		if val, ok := want[lp.GetName()]; ok && val == lp.GetValue() {
			matched++
		}
	}
	return matched == len(want)
}
