// Package retrieval fetches the supporting context (similar past issues and
// documented procedures) a classified issue is enriched with before experts
// are dispatched. Two independent backends are queried in parallel: an
// embedding similarity store (ArangoDB) and a keyword store (Typesense).
package retrieval

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/arangodb/go-driver/v2/arangodb"
	"github.com/arangodb/go-driver/v2/connection"
)

// Document is one retrieved context item, independent of which backend
// produced it.
type Document struct {
	ID       string
	Title    string
	Content  string
	Score    float64
	Source   string // "vector" or "keyword"
}

// VectorStoreConfig holds the ArangoDB connection settings.
type VectorStoreConfig struct {
	URL        string
	Username   string
	Password   string
	Database   string
	Collection string
}

func (c VectorStoreConfig) Validate() error {
	if c.URL == "" {
		return fmt.Errorf("arangodb URL is required")
	}
	if c.Username == "" {
		return fmt.Errorf("arangodb username is required")
	}
	if c.Database == "" {
		return fmt.Errorf("arangodb database name is required")
	}
	if c.Collection == "" {
		return fmt.Errorf("arangodb collection is required")
	}
	return nil
}

// VectorStore is an embedding similarity search backend over a collection of
// previously diagnosed issues and procedures.
type VectorStore interface {
	Search(ctx context.Context, embedding []float64, limit int) ([]Document, error)
	Upsert(ctx context.Context, doc Document, embedding []float64) error
	Close() error
}

type vectorStore struct {
	conn         connection.Connection
	arangoClient arangodb.Client
	db           arangodb.Database
	cfg          VectorStoreConfig
}

// NewVectorStore connects to ArangoDB and ensures the collection backing
// similarity search exists.
func NewVectorStore(ctx context.Context, cfg VectorStoreConfig) (VectorStore, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("vectorstore config: %w", err)
	}

	endpoint := connection.NewRoundRobinEndpoints([]string{cfg.URL})
	conn := connection.NewHttp2Connection(connection.DefaultHTTP2ConfigurationWrapper(endpoint, true))

	auth := connection.NewBasicAuth(cfg.Username, cfg.Password)
	if err := conn.SetAuthentication(auth); err != nil {
		return nil, fmt.Errorf("vectorstore auth: %w", err)
	}

	arangoClient := arangodb.NewClient(conn)

	s := &vectorStore{conn: conn, arangoClient: arangoClient, cfg: cfg}

	if err := s.ensureDatabase(ctx); err != nil {
		return nil, err
	}
	if err := s.ensureCollection(ctx); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *vectorStore) ensureDatabase(ctx context.Context) error {
	exists, err := s.arangoClient.DatabaseExists(ctx, s.cfg.Database)
	if err != nil {
		return fmt.Errorf("check database exists: %w", err)
	}

	if !exists {
		if _, err := s.arangoClient.CreateDatabase(ctx, s.cfg.Database, nil); err != nil {
			return fmt.Errorf("create database: %w", err)
		}
		slog.InfoContext(ctx, "vectorstore database created", "database", s.cfg.Database)
	}

	db, err := s.arangoClient.GetDatabase(ctx, s.cfg.Database, nil)
	if err != nil {
		return fmt.Errorf("get database: %w", err)
	}
	s.db = db
	return nil
}

func (s *vectorStore) ensureCollection(ctx context.Context) error {
	exists, err := s.db.CollectionExists(ctx, s.cfg.Collection)
	if err != nil {
		return fmt.Errorf("check collection exists: %w", err)
	}
	if exists {
		return nil
	}

	colType := arangodb.CollectionTypeDocument
	_, err = s.db.CreateCollectionV2(ctx, s.cfg.Collection, &arangodb.CreateCollectionPropertiesV2{Type: &colType})
	if err != nil {
		return fmt.Errorf("create collection %s: %w", s.cfg.Collection, err)
	}
	slog.InfoContext(ctx, "vectorstore collection created", "collection", s.cfg.Collection)
	return nil
}

// Upsert stores a document and its embedding, keyed by a hash of its ID so
// repeated upserts of the same document overwrite rather than duplicate.
func (s *vectorStore) Upsert(ctx context.Context, doc Document, embedding []float64) error {
	col, err := s.db.GetCollection(ctx, s.cfg.Collection, nil)
	if err != nil {
		return fmt.Errorf("get collection: %w", err)
	}

	record := map[string]any{
		"_key":      makeKey(doc.ID),
		"title":     doc.Title,
		"content":   doc.Content,
		"embedding": embedding,
	}

	reader, err := col.CreateDocuments(ctx, []map[string]any{record})
	if err != nil {
		return fmt.Errorf("upsert document: %w", err)
	}
	for {
		if _, readErr := reader.Read(); readErr != nil {
			break
		}
	}
	return nil
}

// Search runs a cosine-similarity AQL query over the collection and returns
// the top `limit` documents, nearest first.
func (s *vectorStore) Search(ctx context.Context, embedding []float64, limit int) ([]Document, error) {
	start := time.Now()

	query := fmt.Sprintf(`
		FOR doc IN %s
			LET score = COSINE_SIMILARITY(doc.embedding, @embedding)
			SORT score DESC
			LIMIT @limit
			RETURN { id: doc._key, title: doc.title, content: doc.content, score: score }
	`, s.cfg.Collection)

	cursor, err := s.db.Query(ctx, query, &arangodb.QueryOptions{
		BindVars: map[string]any{"embedding": embedding, "limit": limit},
	})
	if err != nil {
		return nil, fmt.Errorf("vectorstore search query: %w", err)
	}
	defer cursor.Close()

	var docs []Document
	for cursor.HasMore() {
		var row struct {
			ID      string  `json:"id"`
			Title   string  `json:"title"`
			Content string  `json:"content"`
			Score   float64 `json:"score"`
		}
		if _, err := cursor.ReadDocument(ctx, &row); err != nil {
			return nil, fmt.Errorf("read vectorstore row: %w", err)
		}
		docs = append(docs, Document{ID: row.ID, Title: row.Title, Content: row.Content, Score: row.Score, Source: "vector"})
	}

	slog.DebugContext(ctx, "vectorstore search completed",
		"collection", s.cfg.Collection,
		"results", len(docs),
		"duration_ms", time.Since(start).Milliseconds())

	return docs, nil
}

func (s *vectorStore) Close() error {
	return nil
}

func makeKey(id string) string {
	sum := md5.Sum([]byte(id))
	return hex.EncodeToString(sum[:])
}
