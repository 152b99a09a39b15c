package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
)

// DefaultOpenRouterURL is the OpenAI-compatible OpenRouter endpoint.
const DefaultOpenRouterURL = "https://openrouter.ai/api/v1"

// OpenRouterConfig configures an OpenRouter completer.
type OpenRouterConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Referer string // sent as HTTP-Referer for OpenRouter app attribution
	Title   string // sent as X-Title
	Timeout time.Duration
}

// OpenRouterCompleter talks to OpenRouter through the go-openai client.
type OpenRouterCompleter struct {
	client *openai.Client
	model  string
}

var _ Completer = (*OpenRouterCompleter)(nil)

// NewOpenRouterCompleter builds a completer for the given model.
func NewOpenRouterCompleter(cfg OpenRouterConfig) (*OpenRouterCompleter, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("NewOpenRouterCompleter: %w: api key is empty", ErrInvalidKey)
	}
	if cfg.Model == "" {
		return nil, errors.New("NewOpenRouterCompleter: model is empty")
	}

	config := openai.DefaultConfig(cfg.APIKey)
	config.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if config.BaseURL == "" {
		config.BaseURL = DefaultOpenRouterURL
	}
	config.HTTPClient = &http.Client{
		Timeout: cfg.Timeout,
		Transport: &headerTransport{
			base: http.DefaultTransport,
			headers: map[string]string{
				"HTTP-Referer": cfg.Referer,
				"X-Title":      cfg.Title,
			},
		},
	}

	return &OpenRouterCompleter{
		client: openai.NewClientWithConfig(config),
		model:  cfg.Model,
	}, nil
}

// Complete sends prompt as a single user message.
func (c *OpenRouterCompleter) Complete(ctx context.Context, prompt string, temperature float32, maxTokens int) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: temperature,
		MaxTokens:   maxTokens,
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("openrouter: create chat completion: %w", mapOpenAIError(err))
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", fmt.Errorf("openrouter: %w", ErrEmptyCompletion)
	}
	return resp.Choices[0].Message.Content, nil
}

func mapOpenAIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &APIError{Provider: "openrouter", StatusCode: apiErr.HTTPStatusCode, Message: apiErr.Message}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		msg := reqErr.HTTPStatus
		if reqErr.Err != nil {
			msg = reqErr.Err.Error()
		}
		return &APIError{Provider: "openrouter", StatusCode: reqErr.HTTPStatusCode, Message: msg}
	}
	return err
}

// headerTransport adds fixed headers to every outgoing request.
type headerTransport struct {
	base    http.RoundTripper
	headers map[string]string
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	for k, v := range t.headers {
		if v != "" {
			req.Header.Set(k, v)
		}
	}
	return t.base.RoundTrip(req)
}
