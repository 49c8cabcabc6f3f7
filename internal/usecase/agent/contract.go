package agent

import (
	"context"

	"github.com/kailas-cloud/ragtutor/internal/domain"
)

// Answerer runs the retrieval pipeline.
type Answerer interface {
	Query(ctx context.Context, query string) (domain.QueryContext, error)
}
