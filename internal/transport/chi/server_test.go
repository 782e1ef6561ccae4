package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/kailas-cloud/geoframe/internal/domain/function"
	evaluateuc "github.com/kailas-cloud/geoframe/internal/usecase/evaluate"
	healthuc "github.com/kailas-cloud/geoframe/internal/usecase/health"
)

func newTestRouter(t *testing.T, checks ...healthuc.Checker) http.Handler {
	t.Helper()
	svc := evaluateuc.New(function.NewRegistry(), nil).WithMaxBatchSize(3)
	server := NewServer(svc, healthuc.New(checks...), zap.NewNop())
	r := chi.NewRouter()
	server.Routes(r)
	return r
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, http.NoBody)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rr.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func TestHealthCheck_OK(t *testing.T) {
	h := newTestRouter(t, healthuc.ReferenceChecks()...)
	rr := do(t, h, "GET", "/health", "")

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	resp := decode[healthResponse](t, rr)
	if resp.Status != "ok" || resp.Checks["cell"] != "ok" {
		t.Errorf("response = %+v", resp)
	}
}

func TestHealthCheck_Degraded(t *testing.T) {
	failing := healthuc.CheckFunc{CheckName: "broken", Fn: func(context.Context) error {
		return errors.New("boom")
	}}
	rr := do(t, newTestRouter(t, failing), "GET", "/health", "")

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rr.Code)
	}
	if resp := decode[healthResponse](t, rr); resp.Checks["broken"] != "error" {
		t.Errorf("checks = %v", resp.Checks)
	}
}

func TestListFunctions(t *testing.T) {
	rr := do(t, newTestRouter(t), "GET", "/v1/functions", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}

	resp := decode[functionListResponse](t, rr)
	if resp.Total != len(resp.Items) || resp.Total != len(function.NewRegistry().List()) {
		t.Fatalf("total = %d, items = %d", resp.Total, len(resp.Items))
	}

	var found bool
	for _, f := range resp.Items {
		if f.Name != "s2.lonlat_to_cellid" {
			continue
		}
		found = true
		if f.Output != "uint64" || len(f.Params) != 1 || f.Params[0] != "level" {
			t.Errorf("lonlat_to_cellid = %+v", f)
		}
		if len(f.Args) != 1 || f.Args[0].Type != "struct" {
			t.Errorf("args = %+v", f.Args)
		}
	}
	if !found {
		t.Fatal("s2.lonlat_to_cellid not listed")
	}
}

func TestEvaluate_MixedRows(t *testing.T) {
	body := `{"rows": [
		{"point": {"lon": 36.077147686805766, "lat": 56.783927007002866}},
		{"point": {"lon": 1, "lat": null}},
		null
	]}`
	rr := do(t, newTestRouter(t), "POST", "/v1/functions/s2.lonlat_to_cellid/evaluate", body)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body)
	}

	resp := decode[evaluateResponse](t, rr)
	if resp.Succeeded != 1 || resp.Nulls != 2 || resp.Failed != 0 {
		t.Fatalf("counts = %d/%d/%d", resp.Succeeded, resp.Nulls, resp.Failed)
	}
	if got := string(resp.Results[0].Value); got != "5095400969591719543" {
		t.Errorf("cell id = %s", got)
	}
	if resp.Results[1].Status != statusNull || resp.Results[1].Value != nil {
		t.Errorf("row 1 = %+v", resp.Results[1])
	}
}

func TestEvaluate_CellIDAsStringOrNumber(t *testing.T) {
	body := `{"rows": [
		{"cell": 5095400969591719543},
		{"cell": "5095400969591719543"},
		{"cell": "46b6802f6cb20677"},
		{"cell": 0}
	]}`
	svc := evaluateuc.New(function.NewRegistry(), nil)
	r := chi.NewRouter()
	NewServer(svc, healthuc.New(), zap.NewNop()).Routes(r)

	rr := do(t, r, "POST", "/v1/functions/s2.cellid_to_lonlat/evaluate", body)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body)
	}

	resp := decode[evaluateResponse](t, rr)
	for i := 0; i < 3; i++ {
		if resp.Results[i].Status != statusOK {
			t.Errorf("row %d = %+v", i, resp.Results[i])
		}
	}
	if string(resp.Results[0].Value) != string(resp.Results[2].Value) {
		t.Errorf("token and id disagree: %s vs %s", resp.Results[0].Value, resp.Results[2].Value)
	}
	last := resp.Results[3]
	if last.Status != statusError || last.Error == nil || last.Error.Code != CodeInvalidCell {
		t.Errorf("row 3 = %+v", last)
	}
}

func TestEvaluate_NonFiniteResult(t *testing.T) {
	body := `{"rows": [{"point": {"x": 1e308, "y": 0}, "other": {"x": -1e308, "y": 0}}]}`
	rr := do(t, newTestRouter(t), "POST", "/v1/functions/distance.euclidean_2d/evaluate", body)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body)
	}

	resp := decode[evaluateResponse](t, rr)
	if resp.Failed != 1 || resp.Results[0].Error.Code != CodeNonFiniteResult {
		t.Errorf("response = %+v", resp)
	}
}

func TestEvaluate_RequestErrors(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		body   string
		status int
		code   string
	}{
		{
			name:   "unknown function",
			path:   "/v1/functions/s2.nope/evaluate",
			body:   `{"rows": []}`,
			status: http.StatusNotFound,
			code:   CodeUnknownFunction,
		},
		{
			name:   "invalid level",
			path:   "/v1/functions/s2.lonlat_to_cellid/evaluate",
			body:   `{"params": {"level": 31}, "rows": []}`,
			status: http.StatusBadRequest,
			code:   CodeInvalidLevel,
		},
		{
			name:   "batch too large",
			path:   "/v1/functions/s2.cell_area/evaluate",
			body:   `{"rows": [null, null, null, null]}`,
			status: http.StatusRequestEntityTooLarge,
			code:   CodeBatchTooLarge,
		},
		{
			name:   "malformed json",
			path:   "/v1/functions/s2.cell_area/evaluate",
			body:   `{"rows": [`,
			status: http.StatusBadRequest,
			code:   CodeBadRequest,
		},
		{
			name:   "negative cell id",
			path:   "/v1/functions/s2.cell_area/evaluate",
			body:   `{"rows": [{"cell": -1}]}`,
			status: http.StatusBadRequest,
			code:   CodeBadRequest,
		},
		{
			name:   "non-numeric field",
			path:   "/v1/functions/distance.euclidean_2d/evaluate",
			body:   `{"rows": [{"point": {"x": "one"}}]}`,
			status: http.StatusBadRequest,
			code:   CodeBadRequest,
		},
	}

	h := newTestRouter(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, h, "POST", tt.path, tt.body)
			if rr.Code != tt.status {
				t.Fatalf("status = %d, want %d (body %s)", rr.Code, tt.status, rr.Body)
			}
			if resp := decode[errorResponse](t, rr); resp.Code != tt.code {
				t.Errorf("code = %q, want %q", resp.Code, tt.code)
			}
		})
	}
}

func TestEvaluate_LevelErrorMessage(t *testing.T) {
	rr := do(t, newTestRouter(t), "POST", "/v1/functions/s2.lonlat_to_cellid/evaluate",
		`{"params": {"level": -2}, "rows": []}`)
	resp := decode[errorResponse](t, rr)
	if !strings.Contains(resp.Message, "-2") {
		t.Errorf("message %q does not name the level", resp.Message)
	}
}

func TestEvaluate_BodyLimit(t *testing.T) {
	svc := evaluateuc.New(function.NewRegistry(), nil)
	r := chi.NewRouter()
	NewServer(svc, healthuc.New(), zap.NewNop()).WithMaxBodyBytes(16).Routes(r)

	rr := do(t, r, "POST", "/v1/functions/s2.cell_area/evaluate", `{"rows": [{"cell": 5095400969591719543}]}`)
	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d, want 413", rr.Code)
	}
}

func TestEvaluate_ClientGone(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	svc := evaluateuc.New(function.NewRegistry(), nil)
	r := chi.NewRouter()
	NewServer(svc, healthuc.New(), zap.New(core)).Routes(r)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest("POST", "/v1/functions/s2.lonlat_to_cellid/evaluate",
		strings.NewReader(`{"rows": [{"point": {"lon": 1, "lat": 2}}]}`)).WithContext(ctx)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Body.Len() != 0 {
		t.Errorf("wrote a body for a gone client: %s", rr.Body)
	}
	if n := logs.FilterMessage("internal error").Len(); n != 0 {
		t.Errorf("logged %d internal errors", n)
	}
}

func TestGetCell(t *testing.T) {
	h := newTestRouter(t)
	for _, id := range []string{"5095400969591719543", "46b6802f6cb20677"} {
		rr := do(t, h, "GET", "/v1/cells/"+id, "")
		if rr.Code != http.StatusOK {
			t.Fatalf("%s: status = %d, body = %s", id, rr.Code, rr.Body)
		}
		resp := decode[cellResponse](t, rr)
		if resp.ID != "5095400969591719543" || resp.Token != "46b6802f6cb20677" || resp.Level != 30 {
			t.Errorf("%s: response = %+v", id, resp)
		}
		if len(resp.Vertices) != 4 || resp.Area <= 0 {
			t.Errorf("%s: vertices = %v area = %g", id, resp.Vertices, resp.Area)
		}
		if resp.Geometry == nil || resp.Geometry.Type != "Polygon" {
			t.Errorf("%s: geometry = %+v", id, resp.Geometry)
		}
	}
}

func TestGetCell_Invalid(t *testing.T) {
	h := newTestRouter(t)
	for _, id := range []string{"0", "zz"} {
		rr := do(t, h, "GET", "/v1/cells/"+id, "")
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("%s: status = %d, want 400", id, rr.Code)
		}
		if resp := decode[errorResponse](t, rr); resp.Code != CodeInvalidCell {
			t.Errorf("%s: code = %q", id, resp.Code)
		}
	}
}
