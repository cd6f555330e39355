// ABOUTME: Reasoning stage client for the external GPT correction service.
// ABOUTME: Builds the analysis prompt and parses the strict JSON payload with defaults applied.

package reasoner

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/vulnhunt/vulnhunt/internal/types"
)

// APIKeyEnv is the environment override for the reasoning credential. It
// takes precedence over the statically configured key.
const APIKeyEnv = "OPENAI_API_KEY"

// ErrMissingCredential is returned before any service call when neither the
// environment override nor a configured key is present.
var ErrMissingCredential = errors.New("reasoning credential missing: set OPENAI_API_KEY or configure api_key")

// ServiceError wraps a reasoning-service failure (network, HTTP status, or
// malformed payload). It is fatal for the scan that triggered it.
type ServiceError struct {
	Op  string
	Err error
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("reasoning service %s: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// Config holds reasoner client configuration.
type Config struct {
	BaseURL string        // chat-completions API base URL
	Model   string        // model name
	APIKey  string        // static default, overridden by APIKeyEnv
	Timeout time.Duration // request timeout
}

// Client talks to an OpenAI-compatible chat-completions endpoint.
type Client struct {
	config     Config
	httpClient *http.Client
}

// NewClient creates a reasoner client.
func NewClient(config Config) *Client {
	if config.BaseURL == "" {
		config.BaseURL = "https://api.openai.com/v1"
	}
	if config.Model == "" {
		config.Model = "gpt-4o-mini"
	}
	if config.Timeout == 0 {
		config.Timeout = 60 * time.Second
	}
	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	Temperature    float64       `json:"temperature"`
	ResponseFormat *respFormat   `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type respFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Analyze sends the code plus the prior stages' evidence to the reasoning
// service and returns its structured payload. A missing credential fails
// before any network call; service failures come back as *ServiceError.
func (c *Client) Analyze(ctx context.Context, code string, detection types.DetectionResult, matches []types.RetrievalMatch) (*types.ReasonerPayload, error) {
	apiKey := os.Getenv(APIKeyEnv)
	if apiKey == "" {
		apiKey = c.config.APIKey
	}
	if apiKey == "" {
		return nil, ErrMissingCredential
	}

	prompt := buildPrompt(code, detection, matches)

	reqBody := chatRequest{
		Model: c.config.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
		Temperature:    0.1,
		ResponseFormat: &respFormat{Type: "json_object"},
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, &ServiceError{Op: "encode", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, &ServiceError{Op: "request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &ServiceError{Op: "call", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, &ServiceError{Op: "call", Err: fmt.Errorf("status %d: %s", resp.StatusCode, string(bodyBytes))}
	}

	var chatResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return nil, &ServiceError{Op: "decode", Err: err}
	}
	if len(chatResp.Choices) == 0 {
		return nil, &ServiceError{Op: "decode", Err: errors.New("response contains no choices")}
	}

	payload, err := ParsePayload(chatResp.Choices[0].Message.Content)
	if err != nil {
		return nil, &ServiceError{Op: "parse", Err: err}
	}

	return payload, nil
}

// ParsePayload decodes the service's JSON content and applies the boundary
// defaults for omitted fields.
func ParsePayload(content string) (*types.ReasonerPayload, error) {
	var payload types.ReasonerPayload
	if err := json.Unmarshal([]byte(content), &payload); err != nil {
		return nil, fmt.Errorf("failed to parse payload as JSON: %w", err)
	}

	if payload.CorrectedVerdict == "" {
		payload.CorrectedVerdict = "Unknown"
	}
	for i := range payload.VulnerableLines {
		v := &payload.VulnerableLines[i]
		if v.VulnerabilityType == "" {
			v.VulnerabilityType = "Unknown"
		}
		if v.Severity == "" {
			v.Severity = "Medium"
		}
		if v.AttackScenario == "" {
			v.AttackScenario = "No scenario provided"
		}
	}

	return &payload, nil
}

const systemPrompt = `You are a smart-contract security auditor. Analyze the given Solidity source code and respond with a single JSON object only, no other text, in this exact format:
{"corrected_verdict": "...", "fix_strategy": "...", "vulnerable_lines": [{"vulnerability_type": "...", "severity": "Low|Medium|High|Critical", "line_number": 1, "code_snippet": "...", "explanation": "...", "attack_scenario": "..."}], "changes_made": [{"line_number": 1, "original": "...", "fixed": "..."}]}`

// buildPrompt assembles the user prompt from the code and the prior stages'
// evidence.
func buildPrompt(code string, detection types.DetectionResult, matches []types.RetrievalMatch) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Source code to audit:\n```solidity\n%s\n```\n\n", code)
	fmt.Fprintf(&sb, "A pretrained classifier labeled this code %q with confidence %.4f. Treat this as prior evidence to confirm or correct, not as ground truth.\n", detection.Label, detection.Confidence)

	if len(matches) > 0 {
		sb.WriteString("\nSimilar known-vulnerable examples from the knowledge base:\n")
		for i, m := range matches {
			fmt.Fprintf(&sb, "%d. %s (label: %s, similarity: %.3f)\n```solidity\n%s\n```\n",
				i+1, m.Entry.Filename, m.Entry.Label, m.Score, truncate(m.Entry.Code, 1200))
		}
	}

	sb.WriteString("\nReport every vulnerability with its line number in the audited code, and list corrected code per changed line in changes_made.")
	return sb.String()
}

// truncate limits a string to maxLen characters.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
