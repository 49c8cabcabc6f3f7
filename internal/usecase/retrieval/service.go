package retrieval

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/ragtutor/internal/domain"
)

// Retriever embeds a query and returns the top_k most similar chunks.
type Retriever struct {
	searcher ChunkSearcher
	embedder domain.Embedder
	topK     int
}

// New creates a Retriever. topK must be positive.
func New(searcher ChunkSearcher, embedder domain.Embedder, topK int) (*Retriever, error) {
	if topK <= 0 {
		return nil, fmt.Errorf("top_k must be positive, got %d: %w", topK, domain.ErrConfiguration)
	}
	return &Retriever{searcher: searcher, embedder: embedder, topK: topK}, nil
}

// WithTopK returns a copy fanning out to n chunks.
func (r *Retriever) WithTopK(n int) (*Retriever, error) {
	return New(r.searcher, r.embedder, n)
}

// TopK returns the configured fan-out.
func (r *Retriever) TopK() int {
	return r.topK
}

// Retrieve returns at most topK chunks ordered by non-increasing score.
// An empty result is not an error.
func (r *Retriever) Retrieve(ctx context.Context, query string) ([]domain.ScoredChunk, error) {
	emb, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w: %w", domain.ErrRetrieval, err)
	}

	hits, err := r.searcher.SearchNearest(ctx, emb.Vector, r.topK)
	if err != nil {
		return nil, fmt.Errorf("search chunks: %w: %w", domain.ErrRetrieval, err)
	}

	domain.SortByScore(hits)
	if len(hits) > r.topK {
		hits = hits[:r.topK]
	}
	return hits, nil
}
