package chunk

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kailas-cloud/ragtutor/internal/db"
	"github.com/kailas-cloud/ragtutor/internal/domain"
)

// HNSW defaults for the chunk vector field.
const (
	defaultHNSWM           = 16
	defaultHNSWEFConstruct = 200
)

// store is the consumer interface for chunks (ISP).
type store interface {
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	IndexExists(ctx context.Context, name string) (bool, error)
	SupportsTextSearch(ctx context.Context) bool
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
}

// Repo stores chunks as hashes under one FT index, partitioned by namespace tag.
type Repo struct {
	store     store
	indexName string
	namespace string
	dim       int
}

// New creates a chunk repository.
func New(s store, indexName, namespace string, dim int) *Repo {
	return &Repo{store: s, indexName: indexName, namespace: namespace, dim: dim}
}

// EnsureIndex creates the FT index unless it already exists.
func (r *Repo) EnsureIndex(ctx context.Context) error {
	exists, err := r.store.IndexExists(ctx, r.indexName)
	if err != nil {
		return fmt.Errorf("check index %s: %w", r.indexName, err)
	}
	if exists {
		return nil
	}

	def, err := buildIndex(r.indexName, r.dim, r.store.SupportsTextSearch(ctx))
	if err != nil {
		return fmt.Errorf("build index: %w: %w", domain.ErrConfiguration, err)
	}

	if err := r.store.CreateIndex(ctx, def); err != nil {
		// lost a race with another replica
		if errors.Is(err, db.ErrIndexExists) {
			return nil
		}
		return fmt.Errorf("create index %s: %w", r.indexName, err)
	}
	return nil
}

// Insert writes chunks with their embeddings in one pipelined batch.
func (r *Repo) Insert(ctx context.Context, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	items := make([]db.HashSetItem, 0, len(chunks))
	for i := range chunks {
		c := &chunks[i]
		if len(c.Embedding) != r.dim {
			return fmt.Errorf("chunk %s: embedding has %d dims, index expects %d: %w",
				c.ID, len(c.Embedding), r.dim, domain.ErrInvalidRequest)
		}
		fields, err := buildHashFields(c, r.namespace)
		if err != nil {
			return fmt.Errorf("encode chunk %s: %w", c.ID, err)
		}
		items = append(items, db.HashSetItem{Key: chunkKey(r.namespace, c.ID), Fields: fields})
	}

	if err := r.store.HSetMulti(ctx, items); err != nil {
		return fmt.Errorf("hset chunks: %w", err)
	}
	return nil
}

// SearchNearest returns up to topK chunks of the namespace closest to vector.
func (r *Repo) SearchNearest(ctx context.Context, vector []float32, topK int) ([]domain.ScoredChunk, error) {
	result, err := r.store.SearchKNN(ctx, &db.KNNQuery{
		IndexName:    r.indexName,
		Vector:       vector,
		K:            topK,
		TagFilters:   map[string]string{fieldNamespace: r.namespace},
		ReturnFields: []string{fieldContent, fieldMetadata},
	})
	if err != nil {
		return nil, fmt.Errorf("knn search %s: %w", r.indexName, err)
	}
	if result == nil {
		return nil, nil
	}

	hits := make([]domain.ScoredChunk, 0, len(result.Entries))
	for _, e := range result.Entries {
		c, err := parseHashFields(idFromKey(e.Key, r.namespace), e.Fields)
		if err != nil {
			return nil, fmt.Errorf("decode chunk %s: %w", e.Key, err)
		}
		hits = append(hits, domain.ScoredChunk{Chunk: c, Score: e.Score})
	}
	return hits, nil
}

func keyPrefix() string {
	return domain.KeyPrefix + "chunk:"
}

func chunkKey(namespace, id string) string {
	return keyPrefix() + namespace + ":" + id
}

func idFromKey(key, namespace string) string {
	return strings.TrimPrefix(key, keyPrefix()+namespace+":")
}
