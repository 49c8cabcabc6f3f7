package retrieval

import (
	"context"

	"github.com/kailas-cloud/ragtutor/internal/domain"
)

// ChunkSearcher finds the chunks nearest to a query vector.
type ChunkSearcher interface {
	SearchNearest(ctx context.Context, vector []float32, topK int) ([]domain.ScoredChunk, error)
}
