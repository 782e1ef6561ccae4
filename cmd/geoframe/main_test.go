package main

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/kailas-cloud/geoframe/internal/config"
	logpkg "github.com/kailas-cloud/geoframe/internal/logger"
)

func testConfig(t *testing.T, yaml string) config.Config {
	t.Helper()
	cfg, err := config.Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	return cfg
}

func TestNewHandler_EvaluatesWithAuth(t *testing.T) {
	cfg := testConfig(t, "http:\n  port: 8080\nauth:\n  api_keys: [\"secret\"]\n")
	h, err := newHandler(cfg, zap.NewNop(), prometheus.NewRegistry())
	if err != nil {
		t.Fatal(err)
	}

	body := `{"rows": [{"point": {"x": 0, "y": 0}, "other": {"x": 3, "y": 4}}]}`
	req := httptest.NewRequest("POST", "/v1/functions/distance.euclidean_2d/evaluate", strings.NewReader(body))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("without token: got %d, want 401", rr.Code)
	}

	req = httptest.NewRequest("POST", "/v1/functions/distance.euclidean_2d/evaluate", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer secret")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("with token: got %d, body %s", rr.Code, rr.Body)
	}
	if !strings.Contains(rr.Body.String(), `"value":5`) {
		t.Errorf("body = %s", rr.Body)
	}
	if rr.Header().Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID")
	}
}

func TestNewHandler_HealthIsPublic(t *testing.T) {
	cfg := testConfig(t, "http:\n  port: 8080\nauth:\n  api_keys: [\"secret\"]\n")
	h, err := newHandler(cfg, zap.NewNop(), prometheus.NewRegistry())
	if err != nil {
		t.Fatal(err)
	}

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("GET", "/health", http.NoBody))
	if rr.Code != http.StatusOK {
		t.Fatalf("health: got %d, body %s", rr.Code, rr.Body)
	}
}

func TestNewHandler_SharesRegistry(t *testing.T) {
	cfg := testConfig(t, "http:\n  port: 8080\n")
	reg := prometheus.NewRegistry()
	for i := 0; i < 2; i++ {
		if _, err := newHandler(cfg, zap.NewNop(), reg); err != nil {
			t.Fatalf("handler %d: %v", i, err)
		}
	}
}

func TestNewHandler_ExposesRegistry(t *testing.T) {
	cfg := testConfig(t, "http:\n  port: 8080\n")
	h, err := newHandler(cfg, zap.NewNop(), prometheus.NewRegistry())
	if err != nil {
		t.Fatal(err)
	}

	body := `{"rows": [{"point": {"lon": 0, "lat": 0}}]}`
	h.ServeHTTP(httptest.NewRecorder(),
		httptest.NewRequest("POST", "/v1/functions/s2.lonlat_to_cellid/evaluate", strings.NewReader(body)))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("GET", "/metrics", http.NoBody))
	if rr.Code != http.StatusOK {
		t.Fatalf("metrics: got %d", rr.Code)
	}
	for _, name := range []string{"geoframe_http_requests_total", "geoframe_evaluation_requests_total"} {
		if !strings.Contains(rr.Body.String(), name) {
			t.Errorf("%s missing from /metrics", name)
		}
	}
}

func TestJSONRecoverer(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	h := jsonRecoverer(zap.New(core))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("GET", "/", http.NoBody))

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("got %d, want 500", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type = %q", ct)
	}
	if logs.FilterMessage("panic recovered").Len() != 1 {
		t.Error("panic not logged")
	}
}

func TestWideEventMiddleware(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)

	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(zap.New(core)))
	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		logpkg.FromContext(r.Context()).Info("inside")
		w.WriteHeader(http.StatusTeapot)
	})

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest("GET", "/ping", http.NoBody))

	entries := logs.FilterMessage("http_request").All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 request log, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["status"] != int64(http.StatusTeapot) || fields["path"] != "/ping" {
		t.Errorf("fields = %v", fields)
	}

	inner := logs.FilterMessage("inside").All()
	if len(inner) != 1 || inner[0].ContextMap()["request_id"] != rr.Header().Get("X-Request-ID") {
		t.Errorf("handler log missing request id: %v", inner)
	}
}
