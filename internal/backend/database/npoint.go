package database

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/jo-hoe/sitelog/internal/common"
)

// NpointDatabase keeps the document in a public JSON bin. GET returns the
// stored document, POST replaces it wholesale. The bin has no authentication.
type NpointDatabase struct {
	url        string
	httpClient *http.Client
}

// NewNpointDatabase creates a client for the bin at binURL. A nil httpClient
// uses a client without timeout; callers bound requests via the context.
func NewNpointDatabase(binURL string, httpClient *http.Client) (*NpointDatabase, error) {
	binURL = strings.TrimSpace(binURL)
	parsed, err := url.Parse(binURL)
	if err != nil {
		return nil, fmt.Errorf("invalid bin url %q: %w", binURL, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("bin url %q must use http or https", binURL)
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &NpointDatabase{
		url:        binURL,
		httpClient: httpClient,
	}, nil
}

func (n *NpointDatabase) Load(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cache-Control", "no-store")
	req.Header.Set("Pragma", "no-cache")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("bin request failed: %w", err)
	}
	defer closeBody(resp)

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrDocumentNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, common.NewStatusError(resp)
	}

	document, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read bin response: %w", err)
	}
	return document, nil
}

func (n *NpointDatabase) Save(ctx context.Context, document []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(document))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("bin request failed: %w", err)
	}
	defer closeBody(resp)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return common.NewStatusError(resp)
	}
	// drain so the connection can be reused
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func (n *NpointDatabase) Close() error {
	n.httpClient.CloseIdleConnections()
	return nil
}

func closeBody(resp *http.Response) {
	if err := resp.Body.Close(); err != nil {
		slog.Warn("npoint: failed to close response body", "error", err)
	}
}
