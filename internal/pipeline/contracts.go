package pipeline

import "context"

// LLMClient is the completion capability every stage depends on.
// Implementations must be safe to share between independent runs.
type LLMClient interface {
	Chat(ctx context.Context, request LLMRequest) (LLMResponse, error)
}

type LLMRequest struct {
	SystemPrompt string
	UserPrompt   string
	MaxTokens    int
	Temperature  float64
	Model        string
}

type LLMResponse struct {
	RawText string
}

// ChatFunc adapts a plain function to LLMClient.
type ChatFunc func(ctx context.Context, request LLMRequest) (LLMResponse, error)

func (f ChatFunc) Chat(ctx context.Context, request LLMRequest) (LLMResponse, error) {
	return f(ctx, request)
}
