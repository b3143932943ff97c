// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package generate

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/yitzshapiro/synthetic-data-generator/internal/httputil"
)

// OpenAIBackend calls the OpenAI chat completions API, or any compatible
// endpoint when a base URL is set.
type OpenAIBackend struct {
	llm *openai.LLM
}

// NewOpenAIBackend configures a client for model. baseURL may be empty.
func NewOpenAIBackend(apiKey, model, baseURL string, client *http.Client) (*OpenAIBackend, error) {
	opts := []openai.Option{
		openai.WithToken(apiKey),
		openai.WithModel(model),
	}
	if baseURL != "" {
		opts = append(opts, openai.WithBaseURL(baseURL))
	}
	if client != nil {
		opts = append(opts, openai.WithHTTPClient(client))
	}
	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("creating OpenAI client: %w", err)
	}
	return &OpenAIBackend{llm: llm}, nil
}

func (o *OpenAIBackend) Complete(ctx context.Context, r Request) (string, error) {
	var messages []llms.MessageContent
	if r.System != "" {
		messages = append(messages, llms.TextParts(llms.ChatMessageTypeSystem, r.System))
	}
	messages = append(messages, llms.TextParts(llms.ChatMessageTypeHuman, r.Prompt))

	maxTokens := r.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	resp, err := o.llm.GenerateContent(ctx, messages,
		llms.WithTemperature(r.Temperature),
		llms.WithMaxTokens(maxTokens),
	)
	if err != nil {
		return "", classifyOpenAIError(err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Content) == "" {
		return "", emptyReply()
	}
	return resp.Choices[0].Content, nil
}

var statusCodeRe = regexp.MustCompile(`status code: (\d{3})`)

// classifyOpenAIError marks rate limiting and server errors as transient.
// The client reports HTTP failures only as error text, and a reply without
// choices as an unexported "empty response" error.
func classifyOpenAIError(err error) error {
	if httputil.IsTransient(err) {
		return err
	}
	msg := err.Error()
	if errors.Is(err, openai.ErrEmptyResponse) || msg == "empty response" {
		return emptyReply()
	}
	if m := statusCodeRe.FindStringSubmatch(msg); m != nil {
		code, _ := strconv.Atoi(m[1])
		if code == http.StatusTooManyRequests || code >= 500 {
			return &httputil.TransientError{StatusCode: code, Err: err}
		}
		return fmt.Errorf("calling OpenAI API: %w", err)
	}
	lower := strings.ToLower(msg)
	if strings.Contains(lower, "rate limit") || strings.Contains(lower, "overloaded") {
		return &httputil.TransientError{Err: err}
	}
	return fmt.Errorf("calling OpenAI API: %w", err)
}
