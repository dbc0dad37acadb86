package common

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
)

// maxErrorBodyBytes bounds how much of an error response is kept for messages
const maxErrorBodyBytes = 4096

// StatusError carries a non-success HTTP response from a remote service
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("unexpected status %d", e.StatusCode)
	}
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Body)
}

// NewStatusError reads the start of the response body into a StatusError.
// The caller still owns closing the body.
func NewStatusError(resp *http.Response) *StatusError {
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
	if err != nil {
		slog.Warn("failed to read error response body", "status", resp.StatusCode, "error", err)
	}
	return &StatusError{
		StatusCode: resp.StatusCode,
		Body:       strings.TrimSpace(string(body)),
	}
}
