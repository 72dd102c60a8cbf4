package retrieval

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"
)

// Context is the merged, de-duplicated retrieval result for one classified
// issue: similar past diagnoses and documented procedures, pulled from
// whichever backends answered before the classifier's retrieval deadline.
type Context struct {
	Documents       []Document
	VectorAvailable bool
	KeywordAvailable bool
}

// Provider fans a single query out to both backends concurrently and merges
// the results. Either backend failing is tolerated: a partial result (or an
// empty one, if both fail) is still returned rather than an error, since a
// diagnosis turn should degrade gracefully rather than abort when retrieval
// context isn't available (see spec's retrieval-context invariant).
type Provider struct {
	vector   VectorStore
	keyword  KeywordStore
	embed    EmbedFunc
}

// EmbedFunc turns free text into the embedding vector the vector store
// indexes on. It's injected rather than hard-coded so the embedding model
// can change without touching the retrieval provider.
type EmbedFunc func(ctx context.Context, text string) ([]float64, error)

func NewProvider(vector VectorStore, keyword KeywordStore, embed EmbedFunc) *Provider {
	return &Provider{vector: vector, keyword: keyword, embed: embed}
}

// Fetch queries both backends in parallel and returns the merged, de-duped
// document set. limit bounds how many documents each backend contributes.
func (p *Provider) Fetch(ctx context.Context, query string, limit int) Context {
	var (
		vectorDocs  []Document
		keywordDocs []Document
	)

	g, gctx := errgroup.WithContext(ctx)

	vectorOK := p.vector != nil && p.embed != nil
	if vectorOK {
		g.Go(func() error {
			embedding, err := p.embed(gctx, query)
			if err != nil {
				slog.WarnContext(gctx, "retrieval: embedding failed", "error", err)
				vectorOK = false
				return nil
			}
			docs, err := p.vector.Search(gctx, embedding, limit)
			if err != nil {
				slog.WarnContext(gctx, "retrieval: vector search failed", "error", err)
				vectorOK = false
				return nil
			}
			vectorDocs = docs
			return nil
		})
	}

	keywordOK := p.keyword != nil
	if keywordOK {
		g.Go(func() error {
			docs, err := p.keyword.Search(gctx, query, limit)
			if err != nil {
				slog.WarnContext(gctx, "retrieval: keyword search failed", "error", err)
				keywordOK = false
				return nil
			}
			keywordDocs = docs
			return nil
		})
	}

	_ = g.Wait() // errors are swallowed per-backend above; g never returns one

	return Context{
		Documents:        mergeDocuments(vectorDocs, keywordDocs, limit),
		VectorAvailable:  vectorOK,
		KeywordAvailable: keywordOK,
	}
}

// mergeDocuments combines both backends' results, de-duping by a content
// hash (the same document can surface from both stores under different
// IDs), preferring the higher-scoring copy on a collision, then sorts
// descending by score and truncates to the top-k.
func mergeDocuments(vectorDocs, keywordDocs []Document, topK int) []Document {
	byHash := make(map[string]Document)
	var order []string

	add := func(d Document) {
		h := contentHash(d.Content)
		existing, ok := byHash[h]
		if !ok {
			byHash[h] = d
			order = append(order, h)
			return
		}
		if d.Score > existing.Score {
			byHash[h] = d
		}
	}

	for _, d := range vectorDocs {
		add(d)
	}
	for _, d := range keywordDocs {
		add(d)
	}

	merged := make([]Document, 0, len(order))
	for _, h := range order {
		merged = append(merged, byHash[h])
	}

	sort.SliceStable(merged, func(i, j int) bool { return merged[i].Score > merged[j].Score })

	if topK > 0 && len(merged) > topK {
		merged = merged[:topK]
	}
	return merged
}

func contentHash(content string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(strings.ToLower(content))))
	return hex.EncodeToString(sum[:])
}
