package llm

import (
	"context"
	"regexp"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/temirov/clarify-verify/internal/pipeline"
)

const rateLimitOperation = "rate limit"

// WithTimeout bounds every call by d. A non-positive d leaves the client as is.
func WithTimeout(client pipeline.LLMClient, d time.Duration) pipeline.LLMClient {
	if d <= 0 {
		return client
	}
	return pipeline.ChatFunc(func(ctx context.Context, req pipeline.LLMRequest) (pipeline.LLMResponse, error) {
		callCtx, cancel := context.WithTimeout(ctx, d)
		defer cancel()
		return client.Chat(callCtx, req)
	})
}

// WithRateLimit makes every call wait on limiter. The limiter may be shared
// between clients used by concurrent runs.
func WithRateLimit(client pipeline.LLMClient, limiter *rate.Limiter) pipeline.LLMClient {
	if limiter == nil {
		return client
	}
	return pipeline.ChatFunc(func(ctx context.Context, req pipeline.LLMRequest) (pipeline.LLMResponse, error) {
		if err := limiter.Wait(ctx); err != nil {
			return pipeline.LLMResponse{}, &pipeline.BackendError{Operation: rateLimitOperation, Err: err}
		}
		return client.Chat(ctx, req)
	})
}

// NewLimiter returns nil for a non-positive rate.
func NewLimiter(requestsPerSecond float64) *rate.Limiter {
	if requestsPerSecond <= 0 {
		return nil
	}
	burst := int(requestsPerSecond)
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(requestsPerSecond), burst)
}

var thinkBlockPattern = regexp.MustCompile(`(?s)<think>.*?</think>`)

// StripThinking removes <think>...</think> reasoning blocks from responses.
func StripThinking(client pipeline.LLMClient) pipeline.LLMClient {
	return pipeline.ChatFunc(func(ctx context.Context, req pipeline.LLMRequest) (pipeline.LLMResponse, error) {
		resp, err := client.Chat(ctx, req)
		if err != nil {
			return resp, err
		}
		resp.RawText = RemoveThinkBlocks(resp.RawText)
		return resp, nil
	})
}

func RemoveThinkBlocks(text string) string {
	return strings.TrimSpace(thinkBlockPattern.ReplaceAllString(text, ""))
}

// Observer receives the duration and error of each call.
type Observer func(duration time.Duration, err error)

// WithObserver reports every call to observe.
func WithObserver(client pipeline.LLMClient, observe Observer) pipeline.LLMClient {
	if observe == nil {
		return client
	}
	return pipeline.ChatFunc(func(ctx context.Context, req pipeline.LLMRequest) (pipeline.LLMResponse, error) {
		started := time.Now()
		resp, err := client.Chat(ctx, req)
		observe(time.Since(started), err)
		return resp, err
	})
}
