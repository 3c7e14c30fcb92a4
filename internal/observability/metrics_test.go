package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	jobmetrics "github.com/odyssey-erp/odyssey-shop/internal/jobs"
)

func scrape(t *testing.T, metrics *Metrics) string {
	t.Helper()
	rr := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rr.Code)
	}
	return rr.Body.String()
}

func TestMetricsHandlerExposesJobCollectors(t *testing.T) {
	metrics := NewMetrics()
	jobs := jobmetrics.NewMetrics(metrics.Registerer())
	_ = jobs.Track("purchase:receipt").End(nil)

	body := scrape(t, metrics)
	if !strings.Contains(body, "odyssey_shop_jobs_total") {
		t.Fatalf("expected body to contain odyssey_shop_jobs_total, got: %s", body)
	}
}

func TestMetricsMiddlewareRecordsRequest(t *testing.T) {
	metrics := NewMetrics()

	handler := metrics.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	routeCtx := chi.NewRouteContext()
	routeCtx.RoutePatterns = append(routeCtx.RoutePatterns, "/test")

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx)
	req = req.WithContext(ctx)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusTeapot {
		t.Fatalf("expected status %d, got %d", http.StatusTeapot, rr.Code)
	}

	body := scrape(t, metrics)
	if !strings.Contains(body, "http_requests_total{code=\"418\",route=\"/test\"} 1") {
		t.Fatalf("expected metrics to record request, got: %s", body)
	}
	if !strings.Contains(body, "http_request_duration_seconds_bucket{route=\"/test\"") {
		t.Fatalf("expected duration histogram to be present, got: %s", body)
	}
}

func TestRecordAuthCountsOutcomes(t *testing.T) {
	metrics := NewMetrics()
	metrics.RecordAuth("signin", "failed")
	metrics.RecordAuth("signin", "failed")
	metrics.RecordAuth("gate", "invalid")

	body := scrape(t, metrics)
	if !strings.Contains(body, `odyssey_shop_auth_events_total{event="signin",outcome="failed"} 2`) {
		t.Fatalf("expected signin failures, got: %s", body)
	}
	if !strings.Contains(body, `odyssey_shop_auth_events_total{event="gate",outcome="invalid"} 1`) {
		t.Fatalf("expected gate rejection, got: %s", body)
	}
}

func TestNilMetricsFallBack(t *testing.T) {
	var metrics *Metrics
	metrics.RecordAuth("signin", "ok")
	if metrics.Registerer() != prometheus.DefaultRegisterer {
		t.Fatal("expected default registerer")
	}
	rr := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}
}
