package chi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func serveAuth(keys []string, method, path, header string) *httptest.ResponseRecorder {
	h := BearerAuthMiddleware(keys)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	req := httptest.NewRequest(method, path, http.NoBody)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestBearerAuth(t *testing.T) {
	secret := []string{"secret"}
	evaluate := "/v1/functions/s2.cell_area/evaluate"

	tests := []struct {
		name   string
		keys   []string
		method string
		path   string
		header string
		want   int
	}{
		{"no keys", nil, "GET", "/v1/functions", "", http.StatusOK},
		{"blank keys", []string{"", "  "}, "GET", "/v1/functions", "", http.StatusOK},
		{"missing header", secret, "GET", "/v1/functions", "", http.StatusUnauthorized},
		{"basic scheme", secret, "GET", "/v1/functions", "Basic dXNlcjpwYXNz", http.StatusUnauthorized},
		{"wrong key", secret, "POST", evaluate, "Bearer wrong-key", http.StatusUnauthorized},
		{"key prefix", secret, "POST", evaluate, "Bearer secre", http.StatusUnauthorized},
		{"scheme only", secret, "POST", evaluate, "Bearer", http.StatusUnauthorized},
		{"valid key", secret, "POST", evaluate, "Bearer secret", http.StatusOK},
		{"lowercase scheme", secret, "POST", evaluate, "bearer secret", http.StatusOK},
		{"second key", []string{"key1", "key2"}, "GET", "/v1/cells/1", "Bearer key2", http.StatusOK},
		{"health is public", secret, "GET", "/health", "", http.StatusOK},
		{"metrics is public", secret, "GET", "/metrics", "", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rr := serveAuth(tt.keys, tt.method, tt.path, tt.header); rr.Code != tt.want {
				t.Errorf("got %d, want %d", rr.Code, tt.want)
			}
		})
	}
}

func TestBearerAuth_ErrorBody(t *testing.T) {
	rr := serveAuth([]string{"secret"}, "GET", "/v1/functions", "")

	var resp errorResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if resp.Code != CodeUnauthorized || resp.Message != "missing authorization header" {
		t.Errorf("response = %+v", resp)
	}
}
