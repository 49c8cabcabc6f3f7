package pipeline

import (
	"context"
	"time"

	"github.com/kailas-cloud/ragtutor/internal/domain"
)

// Classifier is the optional relevance gate.
type Classifier interface {
	Classify(ctx context.Context, query string) (domain.Classification, error)
	ModelName() string
}

// Retriever returns ranked chunks for a query.
type Retriever interface {
	Retrieve(ctx context.Context, query string) ([]domain.ScoredChunk, error)
}

// MetadataPolicy marks metadata hidden from the synthesis prompt.
type MetadataPolicy interface {
	Apply(chunks []domain.ScoredChunk)
}

// Synthesizer answers a query from chunks.
type Synthesizer interface {
	Synthesize(ctx context.Context, query string, chunks []domain.ScoredChunk) (string, []domain.Source, error)
}

// Recorder receives query outcomes and stage timings.
type Recorder interface {
	Outcome(outcome string)
	Stage(stage string, d time.Duration)
}
