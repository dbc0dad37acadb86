package analysis

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jo-hoe/sitelog/internal/common"
)

const testKeyEnv = "SITELOG_TEST_ANALYSIS_KEY"

func newTestClient(t *testing.T, endpoint string) *Client {
	t.Helper()
	t.Setenv(testKeyEnv, "secret-key")
	t.Setenv(FallbackAPIKeyEnv, "")
	return NewClient(Config{Endpoint: endpoint, Model: "test-model", APIKeyEnv: testKeyEnv}, nil)
}

func TestClient_AnalyzeSendsPromptAndFrame(t *testing.T) {
	frame := []byte{0xff, 0xd8, 0xff, 0xe0}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/models/test-model:generateContent", r.URL.Path)
		assert.Equal(t, "secret-key", r.Header.Get("x-goog-api-key"))

		var req generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Contents, 1)
		require.Len(t, req.Contents[0].Parts, 2)
		assert.Equal(t, DefaultPrompt, req.Contents[0].Parts[0].Text)
		require.NotNil(t, req.Contents[0].Parts[1].InlineData)
		assert.Equal(t, "image/jpeg", req.Contents[0].Parts[1].InlineData.MimeType)
		assert.Equal(t, base64.StdEncoding.EncodeToString(frame), req.Contents[0].Parts[1].InlineData.Data)

		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"1. CORE MATERIALS: "},{"text":"structural steel"}]}}]}`))
	}))
	defer server.Close()

	report, err := newTestClient(t, server.URL).Analyze(context.Background(), frame)

	require.NoError(t, err)
	assert.Equal(t, "1. CORE MATERIALS: structural steel", report)
}

func TestClient_AnalyzeWithoutCredential(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()
	t.Setenv(testKeyEnv, "")
	t.Setenv(FallbackAPIKeyEnv, "")
	client := NewClient(Config{Endpoint: server.URL, APIKeyEnv: testKeyEnv}, nil)

	_, err := client.Analyze(context.Background(), []byte{1})

	assert.False(t, client.Configured())
	assert.ErrorIs(t, err, ErrMissingCredential)
	assert.False(t, called)
}

func TestClient_FallsBackToAPIKeyVariable(t *testing.T) {
	t.Setenv(testKeyEnv, "")
	t.Setenv(FallbackAPIKeyEnv, "fallback")

	client := NewClient(Config{APIKeyEnv: testKeyEnv}, nil)

	assert.True(t, client.Configured())
}

func TestClient_AnalyzeEmptyReport(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "no candidates", body: `{"candidates":[]}`},
		{name: "blank text", body: `{"candidates":[{"content":{"parts":[{"text":"  "}]}}]}`},
		{name: "empty object", body: `{}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := newTestClient(t, server.URL).Analyze(context.Background(), []byte{1})

			assert.ErrorIs(t, err, ErrEmptyReport)
		})
	}
}

func TestClient_AnalyzeNonSuccessStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":"key revoked"}`))
	}))
	defer server.Close()

	_, err := newTestClient(t, server.URL).Analyze(context.Background(), []byte{1})

	var statusErr *common.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusForbidden, statusErr.StatusCode)
	kind, message := Classify(err)
	assert.Equal(t, KindTransport, kind)
	assert.Equal(t, MessageLinkSevered, message)
}

func TestClient_AnalyzeTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)
	t.Setenv(testKeyEnv, "secret-key")
	client := NewClient(Config{Endpoint: server.URL, APIKeyEnv: testKeyEnv, Timeout: 50 * time.Millisecond}, nil)

	_, err := client.Analyze(context.Background(), []byte{1})

	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantKind    Kind
		wantMessage string
	}{
		{name: "missing credential", err: ErrMissingCredential, wantKind: KindConfiguration, wantMessage: "AI uplink not configured. Set GEMINI_API_KEY."},
		{name: "empty report", err: ErrEmptyReport, wantKind: KindEmptyReport, wantMessage: "Report generation failed."},
		{name: "transport", err: errors.New("dial tcp: refused"), wantKind: KindTransport, wantMessage: "Communication link severed."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, message := Classify(tt.err)
			assert.Equal(t, tt.wantKind, kind)
			assert.Equal(t, tt.wantMessage, message)
		})
	}
}
