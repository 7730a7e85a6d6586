package remote

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"
)

type roundTrip func(*http.Request) *http.Response

func (rt roundTrip) RoundTrip(req *http.Request) (*http.Response, error) {
	return rt(req), nil
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     make(http.Header),
	}
}

func TestPredictSendsOneElementBatch(t *testing.T) {
	client := &Client{
		BaseURL: "https://model.test",
		APIKey:  "secret",
		HTTPClient: &http.Client{
			Transport: roundTrip(func(req *http.Request) *http.Response {
				if req.URL.Path != "/predict" || req.Method != http.MethodPost {
					t.Fatalf("unexpected request %s %s", req.Method, req.URL.Path)
				}
				if req.Header.Get("Authorization") != "Bearer secret" {
					t.Fatalf("missing auth header")
				}
				var body predictRequest
				if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
					t.Fatalf("decode body: %v", err)
				}
				if len(body.Instances) != 1 || body.Instances[0] != "send help now" {
					t.Fatalf("unexpected instances: %v", body.Instances)
				}
				return jsonResponse(200, `{"predictions":[[1,0,1]]}`)
			}),
		},
	}

	out, err := client.Predict(context.Background(), []string{"send help now"})
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if len(out) != 1 || len(out[0]) != 3 || out[0][0] != 1 || out[0][1] != 0 || out[0][2] != 1 {
		t.Fatalf("unexpected predictions: %v", out)
	}
}

func TestPredictHTTPError(t *testing.T) {
	client := &Client{
		BaseURL: "https://model.test",
		HTTPClient: &http.Client{
			Transport: roundTrip(func(req *http.Request) *http.Response {
				return jsonResponse(503, "model loading")
			}),
		},
	}

	_, err := client.Predict(context.Background(), []string{"x"})
	if err == nil || !strings.Contains(err.Error(), "503") {
		t.Fatalf("expected status error, got %v", err)
	}
}

func TestPredictModelError(t *testing.T) {
	client := &Client{
		BaseURL: "https://model.test",
		HTTPClient: &http.Client{
			Transport: roundTrip(func(req *http.Request) *http.Response {
				return jsonResponse(200, `{"error":"bad input"}`)
			}),
		},
	}

	if _, err := client.Predict(context.Background(), []string{"x"}); err == nil {
		t.Fatal("expected model error")
	}
}

func TestLabels(t *testing.T) {
	client := &Client{
		BaseURL: "https://model.test",
		HTTPClient: &http.Client{
			Transport: roundTrip(func(req *http.Request) *http.Response {
				if req.URL.Path != "/labels" {
					t.Fatalf("unexpected path %s", req.URL.Path)
				}
				return jsonResponse(200, `{"labels":["related","request","offer"]}`)
			}),
		},
	}

	got, err := client.Labels(context.Background())
	if err != nil {
		t.Fatalf("Labels: %v", err)
	}
	if len(got) != 3 || got[2] != "offer" {
		t.Fatalf("unexpected labels: %v", got)
	}
}

func TestMissingBaseURL(t *testing.T) {
	if _, err := (&Client{}).Predict(context.Background(), []string{"x"}); err == nil {
		t.Fatal("expected error without base URL")
	}
}

func TestNewTrimsSlash(t *testing.T) {
	c := New("http://localhost:8501/", 0)
	if c.BaseURL != "http://localhost:8501" {
		t.Errorf("BaseURL = %q", c.BaseURL)
	}
}
