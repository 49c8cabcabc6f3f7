package ingest

import (
	"context"

	"github.com/kailas-cloud/ragtutor/internal/domain"
)

// ChunkWriter persists embedded chunks.
type ChunkWriter interface {
	Insert(ctx context.Context, chunks []domain.Chunk) error
}

// Recorder counts indexed chunks.
type Recorder interface {
	ChunksIndexed(n int)
}
