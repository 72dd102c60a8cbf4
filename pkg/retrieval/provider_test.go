package retrieval

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type fakeVectorStore struct {
	docs []Document
	err  error
}

func (f *fakeVectorStore) Search(ctx context.Context, embedding []float64, limit int) ([]Document, error) {
	return f.docs, f.err
}
func (f *fakeVectorStore) Upsert(ctx context.Context, doc Document, embedding []float64) error {
	return nil
}
func (f *fakeVectorStore) Close() error { return nil }

type fakeKeywordStore struct {
	docs []Document
	err  error
}

func (f *fakeKeywordStore) Search(ctx context.Context, query string, limit int) ([]Document, error) {
	return f.docs, f.err
}
func (f *fakeKeywordStore) Close() error { return nil }

var _ = Describe("mergeDocuments", func() {
	It("dedups by content hash, preferring the higher-scoring copy, and sorts descending by score", func() {
		vector := []Document{{ID: "v1", Title: "from vector", Content: "brake pads worn past spec", Score: 0.9, Source: "vector"}}
		keyword := []Document{
			{ID: "k1", Title: "from keyword", Content: "brake pads worn past spec", Score: 0.5, Source: "keyword"},
			{ID: "k2", Title: "keyword-only", Content: "grille mounting bracket misaligned", Score: 0.95, Source: "keyword"},
		}

		merged := mergeDocuments(vector, keyword, 5)

		Expect(merged).To(HaveLen(2))
		Expect(merged[0].ID).To(Equal("k2"))
		Expect(merged[1].ID).To(Equal("v1"))
		Expect(merged[1].Score).To(Equal(0.9))
	})

	It("truncates to the requested top-k", func() {
		docs := []Document{
			{ID: "1", Content: "a", Score: 0.1},
			{ID: "2", Content: "b", Score: 0.9},
			{ID: "3", Content: "c", Score: 0.5},
		}

		merged := mergeDocuments(docs, nil, 2)

		Expect(merged).To(HaveLen(2))
		Expect(merged[0].ID).To(Equal("2"))
		Expect(merged[1].ID).To(Equal("3"))
	})
})

var _ = Describe("Provider.Fetch", func() {
	It("merges results from both backends when both succeed", func() {
		vector := &fakeVectorStore{docs: []Document{{ID: "1", Title: "v", Content: "vector hit content"}}}
		keyword := &fakeKeywordStore{docs: []Document{{ID: "2", Title: "k", Content: "keyword hit content"}}}
		embed := func(ctx context.Context, text string) ([]float64, error) { return []float64{0.1, 0.2}, nil }

		p := NewProvider(vector, keyword, embed)
		ctx := p.Fetch(context.Background(), "engine noise", 5)

		Expect(ctx.VectorAvailable).To(BeTrue())
		Expect(ctx.KeywordAvailable).To(BeTrue())
		Expect(ctx.Documents).To(HaveLen(2))
	})

	It("returns a partial result when the vector store fails", func() {
		vector := &fakeVectorStore{err: errors.New("connection refused")}
		keyword := &fakeKeywordStore{docs: []Document{{ID: "2", Title: "k", Content: "keyword hit content"}}}
		embed := func(ctx context.Context, text string) ([]float64, error) { return []float64{0.1}, nil }

		p := NewProvider(vector, keyword, embed)
		ctx := p.Fetch(context.Background(), "brake fade", 5)

		Expect(ctx.VectorAvailable).To(BeFalse())
		Expect(ctx.KeywordAvailable).To(BeTrue())
		Expect(ctx.Documents).To(HaveLen(1))
	})

	It("returns an empty result when both backends are absent", func() {
		p := NewProvider(nil, nil, nil)
		ctx := p.Fetch(context.Background(), "paint defect", 5)

		Expect(ctx.VectorAvailable).To(BeFalse())
		Expect(ctx.KeywordAvailable).To(BeFalse())
		Expect(ctx.Documents).To(BeEmpty())
	})
})
