package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/cognicore/triage/pkg/triage/classifier"
	"github.com/cognicore/triage/pkg/triage/dashboard"
	"github.com/cognicore/triage/pkg/triage/inference"
	"github.com/cognicore/triage/pkg/triage/internalerr"
	"github.com/cognicore/triage/pkg/triage/labels"
	"github.com/cognicore/triage/pkg/triage/table"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestServer(t *testing.T, predict classifier.Func) *Server {
	t.Helper()
	schema, err := labels.NewSchema([]string{"related", "request", "offer"})
	if err != nil {
		t.Fatal(err)
	}
	adapter := inference.NewAdapter(schema, predict, nil)

	tbl := table.Table{Schema: schema, Rows: []table.Row{
		{ID: 1, Message: "need water", Genre: "direct", Labels: []labels.Label{
			{Name: "related", Value: 1}, {Name: "request", Value: 1}, {Name: "offer", Value: 0},
		}},
	}}
	return NewServer(adapter, dashboard.Summarize(tbl, dashboard.DefaultOptions()), nil)
}

func fixed(vec ...float64) classifier.Func {
	return func(ctx context.Context, batch []string) ([][]float64, error) {
		return [][]float64{vec}, nil
	}
}

func get(t *testing.T, s *Server, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestPing(t *testing.T) {
	rec := get(t, newTestServer(t, fixed(0, 0, 0)), "/ping")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec.Header().Get(RequestIDHeader) == "" {
		t.Error("Response should carry a request id")
	}
}

func TestClassify(t *testing.T) {
	rec := get(t, newTestServer(t, fixed(1, 0, 1)), "/go?query=send+help+now")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}

	var body classifyResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Query != "send help now" {
		t.Errorf("query = %q", body.Query)
	}
	want := []labels.Label{{Name: "related", Value: 1}, {Name: "request", Value: 0}, {Name: "offer", Value: 1}}
	if len(body.Labels) != len(want) {
		t.Fatalf("labels = %v", body.Labels)
	}
	for i := range want {
		if body.Labels[i] != want[i] {
			t.Errorf("label %d: got %v, want %v", i, body.Labels[i], want[i])
		}
	}
}

func TestClassifyEmptyQuery(t *testing.T) {
	called := false
	s := newTestServer(t, func(ctx context.Context, batch []string) ([][]float64, error) {
		called = true
		return nil, nil
	})

	rec := get(t, s, "/go")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if called {
		t.Error("Classifier should not run for an empty query")
	}
	var body map[string]json.RawMessage
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if string(body["classification_result"]) != "[]" {
		t.Errorf("classification_result = %s", body["classification_result"])
	}
}

func TestClassifySchemaDrift(t *testing.T) {
	s := newTestServer(t, fixed(1, 0))

	rec := get(t, s, "/go?query=help")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}

	// the server keeps serving after a drift error
	if rec := get(t, s, "/ping"); rec.Code != http.StatusOK {
		t.Fatalf("ping after drift: status = %d", rec.Code)
	}
}

func TestClassifyModelFailure(t *testing.T) {
	s := newTestServer(t, func(ctx context.Context, batch []string) ([][]float64, error) {
		return nil, fmt.Errorf("%w: model offline", internalerr.ErrStoreUnavailable)
	})
	if rec := get(t, s, "/go?query=help"); rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestDashboard(t *testing.T) {
	rec := get(t, newTestServer(t, fixed(0, 0, 0)), "/api/dashboard")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var body struct {
		TotalRows int64             `json:"total_rows"`
		Charts    []dashboard.Chart `json:"charts"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.TotalRows != 1 || len(body.Charts) != 5 {
		t.Errorf("Unexpected dashboard: %+v", body)
	}
}

func TestSchema(t *testing.T) {
	rec := get(t, newTestServer(t, fixed(0, 0, 0)), "/api/schema")

	var body struct {
		Categories  []string `json:"categories"`
		Fingerprint string   `json:"fingerprint"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Categories) != 3 || body.Categories[0] != "related" {
		t.Errorf("categories = %v", body.Categories)
	}
	if len(body.Fingerprint) != 64 {
		t.Errorf("fingerprint = %q", body.Fingerprint)
	}
}

func TestRequestIDPropagates(t *testing.T) {
	s := newTestServer(t, fixed(0, 0, 0))
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if got := rec.Header().Get(RequestIDHeader); got != "abc-123" {
		t.Errorf("request id = %q", got)
	}
}
