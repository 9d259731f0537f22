// Package openai provides an LLM provider backed by any OpenAI-compatible
// chat completion endpoint, typically a local llama.cpp or Ollama server.
package openai

import (
	"context"
	"fmt"
	"net/http"
	"time"

	oai "github.com/sashabaranov/go-openai"

	"github.com/quillmed/quillmed/pkg/provider/llm"
)

// Provider implements llm.Provider against an OpenAI-compatible API.
type Provider struct {
	client *oai.Client
	model  string
}

// config holds optional configuration for the provider.
type config struct {
	apiKey  string
	timeout time.Duration
}

// Option is a functional option for Provider.
type Option func(*config)

// WithAPIKey sets the bearer token sent on each request. Local servers
// usually accept any value; the default is a placeholder.
func WithAPIKey(key string) Option {
	return func(c *config) {
		c.apiKey = key
	}
}

// WithTimeout sets a per-request HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *config) {
		c.timeout = d
	}
}

// New constructs a Provider talking to the OpenAI-compatible server at
// baseURL (e.g. "http://127.0.0.1:8080/v1").
func New(baseURL string, model string, opts ...Option) (*Provider, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("openai: baseURL must not be empty")
	}
	if model == "" {
		return nil, fmt.Errorf("openai: model must not be empty")
	}

	cfg := &config{apiKey: "local"}
	for _, o := range opts {
		o(cfg)
	}

	clientCfg := oai.DefaultConfig(cfg.apiKey)
	clientCfg.BaseURL = baseURL
	if cfg.timeout > 0 {
		clientCfg.HTTPClient = &http.Client{Timeout: cfg.timeout}
	}

	return &Provider{client: oai.NewClientWithConfig(clientCfg), model: model}, nil
}

// Complete implements llm.Provider.
func (p *Provider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	if req.Prompt == "" {
		return nil, fmt.Errorf("openai: prompt must not be empty")
	}

	var messages []oai.ChatCompletionMessage
	if req.SystemPrompt != "" {
		messages = append(messages, oai.ChatCompletionMessage{
			Role:    oai.ChatMessageRoleSystem,
			Content: req.SystemPrompt,
		})
	}
	messages = append(messages, oai.ChatCompletionMessage{
		Role:    oai.ChatMessageRoleUser,
		Content: req.Prompt,
	})

	resp, err := p.client.CreateChatCompletion(ctx, oai.ChatCompletionRequest{
		Model:       p.model,
		Messages:    messages,
		Temperature: float32(req.Temperature),
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("openai: chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai: response contained no choices")
	}

	return &llm.CompletionResponse{
		Content: resp.Choices[0].Message.Content,
		Usage: llm.Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}, nil
}

// Ensure Provider implements llm.Provider at compile time.
var _ llm.Provider = (*Provider)(nil)
