package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

type openaiClient struct {
	client openai.Client
	model  string
}

// NewOpenAIClient builds an AgentClient backed by the OpenAI chat completions
// API. When req.Schema is set, the call is made with a strict JSON schema
// response format; otherwise it is a plain text completion.
func NewOpenAIClient(cfg Config) (AgentClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai: API key is required")
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	model := cfg.Model
	if model == "" {
		model = "gpt-4o-mini"
	}

	return &openaiClient{
		client: openai.NewClient(opts...),
		model:  model,
	}, nil
}

func (c *openaiClient) Model() string { return c.model }

func (c *openaiClient) Chat(ctx context.Context, req Request) (*Response, error) {
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = 1000
	}

	params := openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(req.SystemPrompt),
			openai.UserMessage(req.UserPrompt),
		},
		MaxTokens: openai.Int(int64(maxTokens)),
	}
	if req.Temperature != nil {
		params.Temperature = openai.Float(*req.Temperature)
	}
	if req.Schema != nil {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
				JSONSchema: openai.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:        req.SchemaName,
					Description: openai.String("structured response schema"),
					Schema:      req.Schema,
					Strict:      openai.Bool(true),
				},
			},
		}
	}

	start := time.Now()
	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai chat: %w", err)
	}

	slog.DebugContext(ctx, "openai chat completed",
		"model", c.model,
		"duration_ms", time.Since(start).Milliseconds(),
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens)

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai chat: no choices in response")
	}

	return &Response{
		Content:          resp.Choices[0].Message.Content,
		PromptTokens:     int(resp.Usage.PromptTokens),
		CompletionTokens: int(resp.Usage.CompletionTokens),
	}, nil
}

// IsRetryable classifies an OpenAI error into the transient/permanent split
// used by the expert-adapter error taxonomy: rate limits and server errors
// are retryable, auth/bad-request errors and cancellation are not.
func IsRetryable(ctx context.Context, err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == 429:
			slog.WarnContext(ctx, "llm rate limited, will retry", "status_code", apiErr.StatusCode)
			return true
		case apiErr.StatusCode >= 500:
			slog.WarnContext(ctx, "llm server error, will retry", "status_code", apiErr.StatusCode)
			return true
		default:
			slog.ErrorContext(ctx, "llm client error, not retryable",
				"status_code", apiErr.StatusCode, "error_type", apiErr.Type, "error_code", apiErr.Code)
			return false
		}
	}

	// Network errors (no API response) are generally retryable.
	slog.WarnContext(ctx, "llm network error, will retry", "error", err)
	return true
}

// StatusCode extracts the HTTP status code from a provider error, if any.
// Returns 0 when the error did not carry one (e.g. a transport failure).
func StatusCode(err error) int {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}
