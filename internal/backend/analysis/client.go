package analysis

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/jo-hoe/sitelog/internal/common"
)

const (
	DefaultEndpoint  = "https://generativelanguage.googleapis.com/v1beta"
	DefaultModel     = "gemini-3-pro-preview"
	DefaultAPIKeyEnv = "GEMINI_API_KEY"
	// FallbackAPIKeyEnv is consulted when the configured variable is empty
	FallbackAPIKeyEnv = "API_KEY"

	DefaultPrompt = "ACT AS OLIK DEMOLISHERS SITE INTELLIGENCE. Analyze this structure structure. " +
		"Provide: 1. CORE MATERIALS. 2. MANPOWER. 3. LOGISTICS. 4. SALVAGE VALUE."
)

var (
	// ErrMissingCredential is returned before any request when no API key is set
	ErrMissingCredential = errors.New("analysis API key not configured")
	// ErrEmptyReport is returned when the model answers without text
	ErrEmptyReport = errors.New("analysis returned no text")
)

// Config selects the model endpoint and credential source
type Config struct {
	Endpoint  string
	Model     string
	APIKeyEnv string
	Prompt    string
	Timeout   time.Duration
}

// Client sends single-frame site analysis requests to the Gemini REST API
type Client struct {
	config     Config
	apiKey     string
	httpClient *http.Client
}

// NewClient resolves the credential from the environment once. A client
// without credential is still returned; Analyze reports ErrMissingCredential.
func NewClient(config Config, httpClient *http.Client) *Client {
	if config.Endpoint == "" {
		config.Endpoint = DefaultEndpoint
	}
	if config.Model == "" {
		config.Model = DefaultModel
	}
	if config.APIKeyEnv == "" {
		config.APIKeyEnv = DefaultAPIKeyEnv
	}
	if config.Prompt == "" {
		config.Prompt = DefaultPrompt
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	apiKey := strings.TrimSpace(os.Getenv(config.APIKeyEnv))
	if apiKey == "" {
		apiKey = strings.TrimSpace(os.Getenv(FallbackAPIKeyEnv))
	}
	if apiKey == "" {
		slog.Warn("analysis: no API key found, site scanner is disabled", "env", config.APIKeyEnv)
	}

	return &Client{
		config:     config,
		apiKey:     apiKey,
		httpClient: httpClient,
	}
}

// Configured reports whether a credential is available
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

// Analyze sends the instruction prompt and one JPEG frame and returns the
// model's free-text report. There is no retry.
func (c *Client) Analyze(ctx context.Context, frame []byte) (string, error) {
	if !c.Configured() {
		return "", ErrMissingCredential
	}
	if c.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.Timeout)
		defer cancel()
	}

	body, err := json.Marshal(generateRequest{
		Contents: []content{{
			Parts: []part{
				{Text: c.config.Prompt},
				{InlineData: &inlineData{
					MimeType: "image/jpeg",
					Data:     base64.StdEncoding.EncodeToString(frame),
				}},
			},
		}},
	})
	if err != nil {
		return "", fmt.Errorf("encode analysis request: %w", err)
	}

	url := strings.TrimRight(c.config.Endpoint, "/") + "/models/" + c.config.Model + ":generateContent"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("analysis request failed: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Warn("analysis: failed to close response body", "error", err)
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", common.NewStatusError(resp)
	}

	var decoded generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("decode analysis response: %w", err)
	}

	report := extractText(decoded)
	if report == "" {
		return "", ErrEmptyReport
	}

	slog.Info("analysis: report received",
		"model", c.config.Model,
		"duration_ms", time.Since(start).Milliseconds(),
		"frame_size_bytes", len(frame),
		"report_length", len(report))
	return report, nil
}

func extractText(resp generateResponse) string {
	if len(resp.Candidates) == 0 {
		return ""
	}
	var text strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		text.WriteString(p.Text)
	}
	return strings.TrimSpace(text.String())
}
