// Package llm defines the Provider interface for Large Language Model backends.
//
// An LLM provider wraps a local model server (e.g., llama.cpp or Ollama behind
// an OpenAI-compatible endpoint) and exposes a uniform completion interface so
// the note formatter never couples to a specific SDK. The pipeline runs fully
// offline; providers are expected to talk to loopback endpoints only.
//
// Implementors must be safe for concurrent use.
package llm

import "context"

// Usage holds token accounting information returned by the LLM backend.
type Usage struct {
	// PromptTokens is the number of tokens consumed by the prompt and system
	// prompt.
	PromptTokens int

	// CompletionTokens is the number of tokens generated in the response.
	CompletionTokens int

	// TotalTokens is PromptTokens + CompletionTokens.
	TotalTokens int
}

// CompletionRequest carries everything the LLM needs to produce a response.
// Prompt must be non-empty; a zero-value request is invalid.
type CompletionRequest struct {
	// SystemPrompt is an optional high-priority instruction injected before
	// the user prompt. Providers that lack a dedicated system role should
	// prepend it as a "system"-role message.
	SystemPrompt string

	// Prompt is the user-role content driving the response.
	Prompt string

	// Temperature controls output randomness in the range [0.0, 2.0]. The
	// formatter uses low values so section output stays deterministic.
	Temperature float64

	// MaxTokens caps the number of completion tokens the model may generate.
	// Zero means use the provider default.
	MaxTokens int
}

// CompletionResponse is returned by Complete.
type CompletionResponse struct {
	// Content is the full text of the model's reply.
	Content string

	// Usage contains token accounting for this request/response pair.
	Usage Usage
}

// Provider is the abstraction over any LLM backend.
//
// Implementations must be safe for concurrent use from multiple goroutines
// and must propagate context cancellation promptly.
type Provider interface {
	// Complete sends req to the model and waits for the full response.
	// Returns an error if the request fails or if ctx is cancelled before
	// the completion arrives.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
}
