package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func getCounterValue(c prometheus.Counter) float64 {
	var m dto.Metric
	if err := c.(prometheus.Metric).Write(&m); err != nil {
		return 0
	}
	return m.GetCounter().GetValue()
}

func getCounterVecValue(cv *prometheus.CounterVec, labels ...string) float64 {
	c, err := cv.GetMetricWithLabelValues(labels...)
	if err != nil {
		return 0
	}
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		return 0
	}
	return m.GetCounter().GetValue()
}

func getHistogramCount(h prometheus.Histogram) uint64 {
	var m dto.Metric
	if err := h.(prometheus.Metric).Write(&m); err != nil {
		return 0
	}
	return m.GetHistogram().GetSampleCount()
}

func TestMetrics_PageFetchesTotal(t *testing.T) {
	for _, status := range []string{"success", "error"} {
		before := getCounterVecValue(PageFetchesTotal, status)
		PageFetchesTotal.WithLabelValues(status).Inc()
		after := getCounterVecValue(PageFetchesTotal, status)

		if after != before+1 {
			t.Errorf("Expected %s counter to increment by 1, got diff %.0f", status, after-before)
		}
	}
}

func TestMetrics_PageFetchDuration(t *testing.T) {
	before := getHistogramCount(PageFetchDuration)
	PageFetchDuration.Observe(0.12)
	after := getHistogramCount(PageFetchDuration)

	if after != before+1 {
		t.Errorf("Expected one more observation, got diff %d", after-before)
	}
}

func TestMetrics_PageCacheRequestsTotal(t *testing.T) {
	for _, result := range []string{"hit", "miss", "error"} {
		before := getCounterVecValue(PageCacheRequestsTotal, result)
		PageCacheRequestsTotal.WithLabelValues(result).Inc()
		after := getCounterVecValue(PageCacheRequestsTotal, result)

		if after != before+1 {
			t.Errorf("Expected %s counter to increment by 1, got diff %.0f", result, after-before)
		}
	}
}

func TestMetrics_PageCacheSharedTotal(t *testing.T) {
	before := getCounterValue(PageCacheSharedTotal)
	PageCacheSharedTotal.Inc()
	after := getCounterValue(PageCacheSharedTotal)

	if after != before+1 {
		t.Errorf("Expected shared fetches to increment by 1, got diff %.0f", after-before)
	}
}

func TestMetrics_NewHTTPServer(t *testing.T) {
	srv := NewHTTPServer("localhost", 9090)

	if srv.Addr != "localhost:9090" {
		t.Errorf("Expected address 'localhost:9090', got '%s'", srv.Addr)
	}

	if srv.Handler == nil {
		t.Error("Expected handler to be set")
	}
}

func TestMetrics_NewHTTPServer_DefaultPort(t *testing.T) {
	srv := NewHTTPServer("0.0.0.0", 0)

	if srv.Addr != "0.0.0.0:9090" {
		t.Errorf("Expected address '0.0.0.0:9090', got '%s'", srv.Addr)
	}
}

func TestMetrics_HandlerExposesPageMetrics(t *testing.T) {
	PageCacheRequestsTotal.WithLabelValues("hit").Inc()

	srv := NewHTTPServer("localhost", 0)
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "page_cache_requests_total") {
		t.Error("Expected page_cache_requests_total in the exposition")
	}
}

func TestMetrics_HealthEndpoint(t *testing.T) {
	srv := NewHTTPServer("localhost", 0)
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("Unexpected health answer %d %q", rec.Code, rec.Body.String())
	}
}
