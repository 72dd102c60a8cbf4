package llm

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// Embedder turns free text into a vector, for the retrieval provider's
// vector-store queries. It is a separate, narrower interface than
// AgentClient since embedding is a distinct OpenAI endpoint, not a chat
// completion.
type Embedder struct {
	client openai.Client
	model  string
}

// NewEmbedder builds an Embedder backed by OpenAI's embeddings endpoint.
func NewEmbedder(cfg Config) (*Embedder, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("embedder: API key is required")
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	model := cfg.Model
	if model == "" {
		model = "text-embedding-3-small"
	}

	return &Embedder{client: openai.NewClient(opts...), model: model}, nil
}

// Embed returns the embedding vector for one piece of text.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float64, error) {
	resp, err := e.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{OfString: openai.String(text)},
		Model: e.model,
	})
	if err != nil {
		return nil, fmt.Errorf("embedder: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("embedder: no embedding returned")
	}
	return resp.Data[0].Embedding, nil
}
