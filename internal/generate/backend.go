// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package generate

import (
	"context"
	"fmt"
	"net/http"

	"github.com/yitzshapiro/synthetic-data-generator/pkg/types"
)

// Default model identifiers per provider.
const (
	DefaultOpenAIModel    = "gpt-4-turbo"
	DefaultAnthropicModel = "claude-sonnet-4-5"
	defaultMaxTokens      = 4096
)

// Request is one completion call.
type Request struct {
	System      string
	Prompt      string
	Temperature float64
	MaxTokens   int
}

// Backend sends a prompt to a model API and returns the text of the reply.
// Implementations report rate limiting and server errors as
// *httputil.TransientError so the generator can retry them.
type Backend interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// emptyReply is returned by backends when the model sends back no text.
// Generate fills in the mode.
func emptyReply() error {
	return &GenerationError{Reason: "empty response"}
}

// NewBackend builds the backend selected by cfg.Provider. cfg.APIKey must
// already be resolved.
func NewBackend(cfg types.AIConfig) (Backend, error) {
	client := &http.Client{}
	if cfg.UserAgent != "" {
		client.Transport = userAgentTransport{agent: cfg.UserAgent, next: http.DefaultTransport}
	}

	switch cfg.Provider {
	case types.ProviderOpenAI, "":
		model := cfg.Model
		if model == "" {
			model = DefaultOpenAIModel
		}
		return NewOpenAIBackend(cfg.APIKey, model, cfg.BaseURL, client)
	case types.ProviderAnthropic:
		model := cfg.Model
		if model == "" {
			model = DefaultAnthropicModel
		}
		return &AnthropicBackend{APIKey: cfg.APIKey, Model: model, BaseURL: cfg.BaseURL, Client: client}, nil
	default:
		return nil, fmt.Errorf("unsupported provider %q: use openai or anthropic", cfg.Provider)
	}
}

type userAgentTransport struct {
	agent string
	next  http.RoundTripper
}

func (t userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("User-Agent", t.agent)
	return t.next.RoundTrip(req)
}
