package llm

import (
	"errors"
	"fmt"
	"os"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/temirov/clarify-verify/internal/pipeline"
)

const (
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
	ProviderMock   = "mock"

	defaultOllamaBaseURL = "http://localhost:11434/v1"
	ollamaPlaceholderKey = "ollama"

	missingAPIKeyErrorFormat   = "api key environment variable %s is empty"
	unknownProviderErrorFormat = "unknown provider %q"
)

// ClientOptions describes one configured model.
type ClientOptions struct {
	Provider            string
	BaseURL             string
	APIKeyEnv           string
	ModelID             string
	DefaultTemperature  float64
	MaxTokens           int
	SupportsTemperature bool
}

// ErrMissingAPIKey is returned when the OpenAI provider has no credentials.
var ErrMissingAPIKey = errors.New("missing api key")

// NewClient builds the completion client for the configured provider.
// Ollama is reached through its OpenAI-compatible endpoint and has its
// reasoning blocks stripped.
func NewClient(options ClientOptions) (pipeline.LLMClient, error) {
	provider := strings.ToLower(strings.TrimSpace(options.Provider))
	switch provider {
	case ProviderMock:
		return NewMockClient(), nil
	case ProviderOllama:
		baseURL := strings.TrimSpace(options.BaseURL)
		if baseURL == "" {
			baseURL = defaultOllamaBaseURL
		}
		apiKey := ollamaPlaceholderKey
		if options.APIKeyEnv != "" && os.Getenv(options.APIKeyEnv) != "" {
			apiKey = os.Getenv(options.APIKeyEnv)
		}
		return StripThinking(newAdapter(baseURL, apiKey, options)), nil
	case ProviderOpenAI, "":
		apiKey := ""
		if options.APIKeyEnv != "" {
			apiKey = strings.TrimSpace(os.Getenv(options.APIKeyEnv))
		}
		if apiKey == "" {
			return nil, fmt.Errorf("%w: "+missingAPIKeyErrorFormat, ErrMissingAPIKey, options.APIKeyEnv)
		}
		return newAdapter(options.BaseURL, apiKey, options), nil
	default:
		return nil, fmt.Errorf(unknownProviderErrorFormat, options.Provider)
	}
}

func newAdapter(baseURL string, apiKey string, options ClientOptions) Adapter {
	clientConfig := openai.DefaultConfig(apiKey)
	if trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/"); trimmed != "" {
		clientConfig.BaseURL = trimmed
	}
	return Adapter{
		Client:              openai.NewClientWithConfig(clientConfig),
		DefaultModel:        options.ModelID,
		DefaultTemp:         options.DefaultTemperature,
		DefaultTokens:       options.MaxTokens,
		SupportsTemperature: options.SupportsTemperature,
	}
}
