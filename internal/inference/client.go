// ABOUTME: HTTP client for the model-inference sidecar serving the CodeBERT classifier.
// ABOUTME: Exposes class-logit prediction and code-embedding endpoints.

package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Config holds inference client configuration.
type Config struct {
	Endpoint string        // inference sidecar base URL
	Timeout  time.Duration // per-request timeout
}

// Client talks to the model-inference sidecar over HTTP JSON.
type Client struct {
	config     Config
	httpClient *http.Client
}

// NewClient creates an inference client for the given sidecar endpoint.
func NewClient(config Config) *Client {
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

type predictRequest struct {
	Text string `json:"text"`
}

type predictResponse struct {
	Logits []float64 `json:"logits"`
}

type embedRequest struct {
	Text string `json:"text"`
}

type embedResponse struct {
	Embedding []float64 `json:"embedding"`
}

// Predict returns the raw class logits for the given (pre-truncated) text.
func (c *Client) Predict(ctx context.Context, text string) ([]float64, error) {
	var resp predictResponse
	if err := c.post(ctx, "/predict", predictRequest{Text: text}, &resp); err != nil {
		return nil, err
	}
	if len(resp.Logits) == 0 {
		return nil, fmt.Errorf("inference returned empty logits")
	}
	return resp.Logits, nil
}

// Embed returns the semantic embedding vector for the given text.
func (c *Client) Embed(ctx context.Context, text string) ([]float64, error) {
	var resp embedResponse
	if err := c.post(ctx, "/embed", embedRequest{Text: text}, &resp); err != nil {
		return nil, err
	}
	if len(resp.Embedding) == 0 {
		return nil, fmt.Errorf("inference returned empty embedding")
	}
	return resp.Embedding, nil
}

// IsAvailable checks whether the inference sidecar responds to a health probe.
func (c *Client) IsAvailable(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.Endpoint+"/health", nil)
	if err != nil {
		return false
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode == http.StatusOK
}

func (c *Client) post(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.Endpoint+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("inference returned status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}
