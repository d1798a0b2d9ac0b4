package llm

import (
	"context"
	"errors"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/temirov/clarify-verify/internal/pipeline"
)

const chatOperation = "chat completion"

// ChatCompleter is the subset of *openai.Client the adapter calls.
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Adapter adapts pipeline.LLMRequest to an OpenAI-compatible chat endpoint.
type Adapter struct {
	Client              ChatCompleter
	DefaultModel        string
	DefaultTemp         float64
	DefaultTokens       int
	SupportsTemperature bool
}

func (a Adapter) Chat(ctx context.Context, req pipeline.LLMRequest) (pipeline.LLMResponse, error) {
	model := req.Model
	if strings.TrimSpace(model) == "" {
		model = a.DefaultModel
	}

	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if system := strings.TrimSpace(req.SystemPrompt); system != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: system})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: strings.TrimSpace(req.UserPrompt)})

	cr := openai.ChatCompletionRequest{
		Model:               model,
		Messages:            messages,
		MaxCompletionTokens: chooseInt(req.MaxTokens, a.DefaultTokens),
	}

	// Reasoning models reject any temperature other than their default, so it
	// is only sent when the model accepts it and differs from the server default.
	resolvedTemp := chooseFloat(req.Temperature, a.DefaultTemp)
	if a.SupportsTemperature && resolvedTemp != 0 && resolvedTemp != 1 {
		cr.Temperature = float32(resolvedTemp)
	}

	out, err := a.Client.CreateChatCompletion(ctx, cr)
	if err != nil {
		return pipeline.LLMResponse{}, &pipeline.BackendError{Operation: chatOperation, Err: describeAPIError(err)}
	}
	if len(out.Choices) == 0 {
		return pipeline.LLMResponse{}, &pipeline.BackendError{Operation: chatOperation, Err: errNoChoices}
	}
	choice := out.Choices[0]
	content := strings.TrimSpace(choice.Message.Content)
	if content == "" && strings.TrimSpace(choice.Message.Refusal) != "" {
		return pipeline.LLMResponse{}, &pipeline.BackendError{Operation: chatOperation, Err: errors.New("refusal: " + choice.Message.Refusal)}
	}
	return pipeline.LLMResponse{RawText: content}, nil
}

var errNoChoices = errors.New("chat completion returned no choices")

func describeAPIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &apiStatusError{status: apiErr.HTTPStatusCode, err: err}
	}
	return err
}

type apiStatusError struct {
	status int
	err    error
}

func (e *apiStatusError) Error() string { return e.err.Error() }
func (e *apiStatusError) Unwrap() error { return e.err }

// StatusCode returns the HTTP status reported by the backend, or 0.
func StatusCode(err error) int {
	var statusErr *apiStatusError
	if errors.As(err, &statusErr) {
		return statusErr.status
	}
	return 0
}

func chooseInt(a, b int) int {
	if a > 0 {
		return a
	}
	return b
}

func chooseFloat(a, b float64) float64 {
	if a > 0 {
		return a
	}
	return b
}
