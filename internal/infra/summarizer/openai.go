package summarizer

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	openai "github.com/sashabaranov/go-openai"

	"knowledgebase/internal/resilience/retry"
)

const (
	// DefaultOpenRouterURL is the OpenAI-compatible endpoint of OpenRouter.
	DefaultOpenRouterURL = "https://openrouter.ai/api/v1"
	// DefaultOpenRouterModel is a free model on OpenRouter.
	DefaultOpenRouterModel = "deepseek/deepseek-r1-0528:free"
	DefaultOpenAIModel     = openai.GPT4oMini
)

// OpenAI talks to any OpenAI-compatible chat completion API. OpenRouter is
// the same client with another base URL.
type OpenAI struct {
	client    *openai.Client
	name      string
	model     string
	maxTokens int
}

// NewOpenRouter returns a provider for OpenRouter. An empty baseURL uses
// DefaultOpenRouterURL.
func NewOpenRouter(apiKey, baseURL, model string, maxTokens int) *OpenAI {
	if baseURL == "" {
		baseURL = DefaultOpenRouterURL
	}
	if model == "" {
		model = DefaultOpenRouterModel
	}
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = baseURL
	return newOpenAI("openrouter", cfg, model, maxTokens)
}

// NewOpenAI returns a provider for api.openai.com.
func NewOpenAI(apiKey, model string, maxTokens int) *OpenAI {
	if model == "" {
		model = DefaultOpenAIModel
	}
	return newOpenAI("openai", openai.DefaultConfig(apiKey), model, maxTokens)
}

func newOpenAI(name string, cfg openai.ClientConfig, model string, maxTokens int) *OpenAI {
	cfg.HTTPClient = &http.Client{}
	return &OpenAI{
		client:    openai.NewClientWithConfig(cfg),
		name:      name,
		model:     model,
		maxTokens: maxTokens,
	}
}

func (o *OpenAI) Name() string { return o.name }

// Complete sends prompt as a single user message.
func (o *OpenAI) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     o.model,
		MaxTokens: o.maxTokens,
		Messages: []openai.ChatCompletionMessage{{
			Role:    openai.ChatMessageRoleUser,
			Content: prompt,
		}},
	})
	if err != nil {
		return "", classifyOpenAIError(err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	return resp.Choices[0].Message.Content, nil
}

// classifyOpenAIError turns status-carrying client errors into retry.HTTPError
// so the retry loop can tell transient failures from permanent ones.
func classifyOpenAIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("openai api error: %w", &retry.HTTPError{StatusCode: apiErr.HTTPStatusCode, Message: apiErr.Message})
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode != 0 {
		return fmt.Errorf("openai request error: %w", &retry.HTTPError{StatusCode: reqErr.HTTPStatusCode, Message: reqErr.Error()})
	}
	return fmt.Errorf("openai api error: %w", err)
}
