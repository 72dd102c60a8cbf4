package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/typesense/typesense-go/v4/typesense"
	"github.com/typesense/typesense-go/v4/typesense/api"
)

// KeywordStoreConfig holds the Typesense connection settings.
type KeywordStoreConfig struct {
	URL        string
	APIKey     string
	Collection string
}

func (c KeywordStoreConfig) Validate() error {
	if c.URL == "" {
		return fmt.Errorf("typesense URL is required")
	}
	if c.Collection == "" {
		return fmt.Errorf("typesense collection is required")
	}
	return nil
}

// KeywordStore is a full-text keyword search backend over the same corpus of
// issues and procedures the vector store holds embeddings for.
type KeywordStore interface {
	Search(ctx context.Context, query string, limit int) ([]Document, error)
	Close() error
}

type keywordStore struct {
	client *typesense.Client
	cfg    KeywordStoreConfig
}

// NewKeywordStore connects to Typesense. The collection is assumed to exist
// already (created out-of-band by the ingestion job that seeds the corpus);
// this client only queries it.
func NewKeywordStore(cfg KeywordStoreConfig) (KeywordStore, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("keywordstore config: %w", err)
	}

	client := typesense.NewClient(
		typesense.WithServer(cfg.URL),
		typesense.WithAPIKey(cfg.APIKey),
	)

	return &keywordStore{client: client, cfg: cfg}, nil
}

func (s *keywordStore) Search(ctx context.Context, query string, limit int) ([]Document, error) {
	start := time.Now()

	perPage := limit
	searchParams := &api.SearchCollectionParams{
		Q:       query,
		QueryBy: "title,content",
		PerPage: &perPage,
	}

	result, err := s.client.Collection(s.cfg.Collection).Documents().Search(ctx, searchParams)
	if err != nil {
		return nil, fmt.Errorf("keywordstore search: %w", err)
	}

	var docs []Document
	if result.Hits != nil {
		for _, hit := range *result.Hits {
			if hit.Document == nil {
				continue
			}
			doc := *hit.Document
			d := Document{Source: "keyword"}
			if id, ok := doc["id"].(string); ok {
				d.ID = id
			}
			if title, ok := doc["title"].(string); ok {
				d.Title = title
			}
			if content, ok := doc["content"].(string); ok {
				d.Content = content
			}
			if hit.TextMatch != nil {
				d.Score = float64(*hit.TextMatch)
			}
			docs = append(docs, d)
		}
	}

	slog.DebugContext(ctx, "keywordstore search completed",
		"collection", s.cfg.Collection,
		"results", len(docs),
		"duration_ms", time.Since(start).Milliseconds())

	return docs, nil
}

func (s *keywordStore) Close() error {
	return nil
}
