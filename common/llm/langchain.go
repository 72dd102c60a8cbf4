package llm

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

type langchainClient struct {
	model llms.Model
	name  string
}

// NewLangchainClient builds the moderator's AgentClient via langchaingo's
// provider-agnostic llms.Model interface. It is wired to an OpenAI-compatible
// endpoint here (the moderator doesn't need a distinct "fourth provider" —
// it needs a provider-agnostic structured-output path, which is exactly what
// langchaingo's abstraction gives the rest of the pack), but any llms.Model
// the library supports can be swapped in without touching pkg/moderator.
func NewLangchainClient(cfg Config) (AgentClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("langchain: API key is required")
	}

	model := cfg.Model
	if model == "" {
		model = "gpt-4o"
	}

	opts := []openai.Option{
		openai.WithToken(cfg.APIKey),
		openai.WithModel(model),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}

	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("langchain: new openai model: %w", err)
	}

	return &langchainClient{model: llm, name: model}, nil
}

func (c *langchainClient) Model() string { return c.name }

func (c *langchainClient) Chat(ctx context.Context, req Request) (*Response, error) {
	system := req.SystemPrompt
	if req.Schema != nil {
		system += fmt.Sprintf("\n\nRespond with JSON only, matching this schema exactly: %v", req.Schema)
	}

	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, system),
		llms.TextParts(llms.ChatMessageTypeHuman, req.UserPrompt),
	}

	callOpts := []llms.CallOption{}
	if req.MaxTokens > 0 {
		callOpts = append(callOpts, llms.WithMaxTokens(req.MaxTokens))
	}
	if req.Temperature != nil {
		callOpts = append(callOpts, llms.WithTemperature(*req.Temperature))
	}

	start := time.Now()
	resp, err := c.model.GenerateContent(ctx, messages, callOpts...)
	if err != nil {
		return nil, fmt.Errorf("langchain generate content: %w", err)
	}

	slog.DebugContext(ctx, "langchain generate completed",
		"model", c.name, "duration_ms", time.Since(start).Milliseconds())

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("langchain generate content: no choices in response")
	}

	return &Response{Content: resp.Choices[0].Content}, nil
}
