// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package generate

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yitzshapiro/synthetic-data-generator/internal/httputil"
)

func TestAnthropicBackend_Complete(t *testing.T) {
	var got anthropicRequest
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		assert.Equal(t, "2023-06-01", r.Header.Get("anthropic-version"))
		body, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(body, &got))

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"content":[{"type":"text","text":"<question>Q</question>"},{"type":"text","text":"<answer>A</answer>"}]}`)
	}))
	defer ts.Close()

	b := &AnthropicBackend{APIKey: "test-key", Model: "claude-test", BaseURL: ts.URL, Client: ts.Client()}
	out, err := b.Complete(context.Background(), Request{System: "sys", Prompt: "hello", Temperature: 0.4})
	require.NoError(t, err)
	assert.Equal(t, "<question>Q</question><answer>A</answer>", out)

	assert.Equal(t, "claude-test", got.Model)
	assert.Equal(t, "sys", got.System)
	assert.Equal(t, defaultMaxTokens, got.MaxTokens)
	assert.InDelta(t, 0.4, got.Temperature, 1e-9)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, anthropicMessage{Role: "user", Content: "hello"}, got.Messages[0])
}

func TestAnthropicBackend_DefaultURL(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		io.WriteString(w, `{"content":[{"type":"text","text":"ok"}]}`)
	}))
	defer ts.Close()

	old := anthropicAPIURL
	anthropicAPIURL = ts.URL
	defer func() { anthropicAPIURL = old }()

	b := &AnthropicBackend{APIKey: "k", Model: "m"}
	out, err := b.Complete(context.Background(), Request{Prompt: "p"})
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
}

func TestAnthropicBackend_Errors(t *testing.T) {
	tests := []struct {
		name          string
		status        int
		body          string
		wantTransient bool
	}{
		{"rate limited", http.StatusTooManyRequests, `{"error":{"type":"rate_limit_error"}}`, true},
		{"overloaded", 529, `{"error":{"type":"overloaded_error"}}`, true},
		{"bad request", http.StatusBadRequest, `{"error":{"type":"invalid_request_error"}}`, false},
		{"no text blocks", http.StatusOK, `{"content":[]}`, false},
		{"garbage", http.StatusOK, `not json`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			}))
			defer ts.Close()

			b := &AnthropicBackend{APIKey: "k", Model: "m", BaseURL: ts.URL}
			_, err := b.Complete(context.Background(), Request{Prompt: "p"})
			require.Error(t, err)
			assert.Equal(t, tt.wantTransient, httputil.IsTransient(err))
		})
	}
}

func TestAnthropicBackend_EmptyReplyIsGenerationError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		io.WriteString(w, `{"content":[{"type":"text","text":"  "}]}`)
	}))
	defer ts.Close()

	b := &AnthropicBackend{APIKey: "k", Model: "m", BaseURL: ts.URL}
	_, err := b.Complete(context.Background(), Request{Prompt: "p"})
	var ge *GenerationError
	require.True(t, errors.As(err, &ge))
	assert.Equal(t, "empty response", ge.Reason)
}
