// Package workflow materializes job-graph documents from templates and
// submits them to a locally running ComfyUI-compatible generation server.
package workflow

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"comfyctl/internal/preset"
)

var ErrNetwork = errors.New("generation server unreachable")

const (
	defaultBaseURL = "http://127.0.0.1:8000/"
	defaultTimeout = 120 * time.Second
)

// Config holds client construction options.
type Config struct {
	BaseURL     string
	TimeoutSec  int
	TemplateDir string
}

// Client submits instantiated workflows to the generation server. Calls are
// blocking and are never retried; batch callers issue submissions strictly
// one after another.
type Client struct {
	baseURL    string
	httpClient *http.Client
	templates  *Templates
}

// New creates a client. The base URL is normalized to end with a slash.
func New(cfg *Config) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}

	timeout := defaultTimeout
	if cfg.TimeoutSec > 0 {
		timeout = time.Duration(cfg.TimeoutSec) * time.Second
	}

	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		templates: NewTemplates(cfg.TemplateDir),
	}
}

// BaseURL returns the normalized server URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// SubmitResult is the outcome of one submission attempt that reached the
// server. OK is true only for HTTP 200; otherwise StatusCode and Body carry
// the server's answer.
type SubmitResult struct {
	OK         bool
	StatusCode int
	Body       string
	Seed       int64
}

// Submit builds the payload for the bundle and prompt and posts it to the
// server. The template variant is chosen by whether the bundle names a LoRA.
// Transport failures are returned as ErrNetwork-wrapped errors; a non-200
// answer is a non-OK result, not an error.
func (c *Client) Submit(ctx context.Context, settings *preset.GenerationSettings, prompt string) (*SubmitResult, error) {
	tmpl, err := c.templates.Load(settings.Lora != "")
	if err != nil {
		return nil, err
	}

	payload, err := BuildPayload(tmpl, settings, prompt)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(map[string]json.RawMessage{"prompt": payload.Graph})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"prompt", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}

	return &SubmitResult{
		OK:         resp.StatusCode == http.StatusOK,
		StatusCode: resp.StatusCode,
		Body:       string(respBody),
		Seed:       payload.Seed,
	}, nil
}

// Probe checks server liveness with a single GET. It returns true only for
// HTTP 200 with a parseable JSON body; it is advisory and nothing more.
func (c *Client) Probe(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"api/system_stats", nil)
	if err != nil {
		return false
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return false
	}

	var stats map[string]any
	return json.Unmarshal(body, &stats) == nil
}
