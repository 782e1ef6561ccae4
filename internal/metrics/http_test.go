package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func newHTTP(t *testing.T) (*HTTP, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	h, err := NewHTTP(reg)
	if err != nil {
		t.Fatalf("NewHTTP: %v", err)
	}
	return h, reg
}

func TestHTTPMiddleware_RecordsDurationAndCount(t *testing.T) {
	h, reg := newHTTP(t)
	r := chi.NewRouter()
	r.Use(h.Middleware())
	r.Get("/v1/functions", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("[]"))
	})

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest("GET", "/v1/functions", http.NoBody))
	if rr.Code != 200 {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	if v := testutil.ToFloat64(h.total.WithLabelValues("GET", "/v1/functions", "200")); v != 1 {
		t.Errorf("http_requests_total = %f, want 1", v)
	}
	if n, err := testutil.GatherAndCount(reg, "geoframe_http_request_duration_seconds"); err != nil || n != 1 {
		t.Errorf("duration series = %d, %v", n, err)
	}
	if v := testutil.ToFloat64(h.inFlight); v != 0 {
		t.Errorf("in flight after request = %f", v)
	}
}

func TestHTTPMiddleware_UsesRoutePattern(t *testing.T) {
	h, _ := newHTTP(t)
	r := chi.NewRouter()
	r.Use(h.Middleware())
	r.Post("/v1/functions/{name}/evaluate", func(w http.ResponseWriter, r *http.Request) {})

	for _, name := range []string{"s2.cell_area", "distance.haversine"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("POST", "/v1/functions/"+name+"/evaluate", http.NoBody))
	}

	if v := testutil.ToFloat64(h.total.WithLabelValues("POST", "/v1/functions/{name}/evaluate", "200")); v != 2 {
		t.Errorf("expected both requests under the route pattern, got %f", v)
	}
}

func TestHTTPMiddleware_StatusCodes(t *testing.T) {
	h, _ := newHTTP(t)
	r := chi.NewRouter()
	r.Use(h.Middleware())
	r.Get("/bad", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		// A second WriteHeader must not change the recorded status.
		w.WriteHeader(http.StatusTeapot)
	})
	r.Get("/error", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	for path, status := range map[string]string{"/bad": "400", "/error": "500"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", path, http.NoBody))
		if v := testutil.ToFloat64(h.total.WithLabelValues("GET", path, status)); v != 1 {
			t.Errorf("%s: requests_total{status=%s} = %f", path, status, v)
		}
	}
}

func TestHTTPMiddleware_Unmatched(t *testing.T) {
	h, _ := newHTTP(t)
	r := chi.NewRouter()
	r.Use(h.Middleware())
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/nope/123", http.NoBody))
	if v := testutil.ToFloat64(h.total.WithLabelValues("GET", unmatchedRoute, "404")); v != 1 {
		t.Errorf("unmatched requests = %f", v)
	}

	// Outside a chi router there is no route context.
	plain := h.Middleware()(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	plain.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/x", http.NoBody))
	if v := testutil.ToFloat64(h.total.WithLabelValues("GET", unmatchedRoute, "200")); v != 1 {
		t.Errorf("plain handler requests = %f", v)
	}
}

func TestNewHTTP_ReusesRegisteredCollectors(t *testing.T) {
	h1, reg := newHTTP(t)
	h2, err := NewHTTP(reg)
	if err != nil {
		t.Fatalf("second NewHTTP: %v", err)
	}
	h1.total.WithLabelValues("GET", "/health", "200").Inc()
	if v := testutil.ToFloat64(h2.total.WithLabelValues("GET", "/health", "200")); v != 1 {
		t.Errorf("collectors not shared, got %f", v)
	}
}
