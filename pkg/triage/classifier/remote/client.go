package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client calls a model-serving endpoint that wraps the trained classifier.
//
//	POST {BaseURL}/predict  {"instances": ["text"]}  -> {"predictions": [[1,0,...]]}
//	GET  {BaseURL}/labels                            -> {"labels": ["related", ...]}
type Client struct {
	BaseURL string
	APIKey  string

	HTTPClient *http.Client
}

type predictRequest struct {
	Instances []string `json:"instances"`
}

type predictResponse struct {
	Predictions [][]float64 `json:"predictions"`
	Error       string      `json:"error,omitempty"`
}

type labelsResponse struct {
	Labels []string `json:"labels"`
}

// New creates a client with the given request timeout.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		BaseURL:    strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

// Predict sends the batch in one request. It performs no retries.
func (c *Client) Predict(ctx context.Context, batch []string) ([][]float64, error) {
	body, err := json.Marshal(predictRequest{Instances: batch})
	if err != nil {
		return nil, err
	}

	var payload predictResponse
	if err := c.do(ctx, http.MethodPost, "/predict", body, &payload); err != nil {
		return nil, err
	}
	if payload.Error != "" {
		return nil, fmt.Errorf("model error: %s", payload.Error)
	}
	return payload.Predictions, nil
}

// Labels returns the category order the served model emits.
func (c *Client) Labels(ctx context.Context) ([]string, error) {
	var payload labelsResponse
	if err := c.do(ctx, http.MethodGet, "/labels", nil, &payload); err != nil {
		return nil, err
	}
	return payload.Labels, nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, out any) error {
	if c.BaseURL == "" {
		return fmt.Errorf("classifier: base URL required")
	}

	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, rd)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("model service returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return &http.Client{Timeout: 15 * time.Second}
}
