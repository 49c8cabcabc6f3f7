package pgvector

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/kailas-cloud/ragtutor/internal/domain"
)

// pq error code for a missing relation.
const codeUndefinedTable = "42P01"

// Repo stores chunks in a Postgres table with a pgvector column.
type Repo struct {
	db        *sql.DB
	table     string
	namespace string
	dim       int
}

// Open connects to Postgres through lib/pq and verifies the connection.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

// New creates a pgvector chunk repository. table doubles as the index name.
func New(db *sql.DB, table, namespace string, dim int) *Repo {
	return &Repo{db: db, table: tableName(table), namespace: namespace, dim: dim}
}

// Ping checks connectivity.
func (r *Repo) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping postgres: %w", err)
	}
	return nil
}

// EnsureIndex creates the extension, table and HNSW index if missing.
func (r *Repo) EnsureIndex(ctx context.Context) error {
	if r.dim <= 0 {
		return fmt.Errorf("vector dimension must be positive: %w", domain.ErrConfiguration)
	}
	for _, stmt := range schemaStatements(r.table, r.dim) {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema %s: %w", r.table, err)
		}
	}
	return nil
}

// Insert upserts chunks in one transaction.
func (r *Repo) Insert(ctx context.Context, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, insertSQL(r.table))
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for i := range chunks {
		c := &chunks[i]
		if len(c.Embedding) != r.dim {
			return fmt.Errorf("chunk %s: embedding has %d dims, table expects %d: %w",
				c.ID, len(c.Embedding), r.dim, domain.ErrInvalidRequest)
		}
		meta, err := json.Marshal(nonNil(c.Metadata))
		if err != nil {
			return fmt.Errorf("marshal metadata %s: %w", c.ID, err)
		}
		if _, err := stmt.ExecContext(ctx,
			c.ID, r.namespace, c.Text, c.FileName(), string(meta), vectorToString(c.Embedding),
		); err != nil {
			return fmt.Errorf("insert chunk %s: %w", c.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// SearchNearest returns up to topK chunks ordered by cosine similarity.
func (r *Repo) SearchNearest(ctx context.Context, vector []float32, topK int) ([]domain.ScoredChunk, error) {
	rows, err := r.db.QueryContext(ctx, searchSQL(r.table), vectorToString(vector), r.namespace, topK)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == codeUndefinedTable {
			return nil, fmt.Errorf("table %s does not exist: %w", r.table, err)
		}
		return nil, fmt.Errorf("search similar: %w", err)
	}
	defer rows.Close()

	var hits []domain.ScoredChunk
	for rows.Next() {
		var (
			c    domain.Chunk
			meta []byte
			sim  float64
		)
		if err := rows.Scan(&c.ID, &c.Text, &meta, &sim); err != nil {
			return nil, fmt.Errorf("scan chunk: %w", err)
		}
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &c.Metadata); err != nil {
				return nil, fmt.Errorf("unmarshal metadata %s: %w", c.ID, err)
			}
		}
		hits = append(hits, domain.ScoredChunk{Chunk: c, Score: sim})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return hits, nil
}

// tableName maps an index name like "ragtutor:idx" to a SQL identifier.
func tableName(index string) string {
	return strings.NewReplacer(":", "_", "-", "_").Replace(index) + "_chunks"
}

func schemaStatements(table string, dim int) []string {
	t := pq.QuoteIdentifier(table)
	idx := pq.QuoteIdentifier(table + "_embedding_hnsw")
	return []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		`CREATE TABLE IF NOT EXISTS ` + t + ` (
			id         TEXT NOT NULL,
			namespace  TEXT NOT NULL,
			content    TEXT NOT NULL,
			file_name  TEXT NOT NULL DEFAULT '',
			metadata   JSONB NOT NULL DEFAULT '{}'::jsonb,
			embedding  vector(` + strconv.Itoa(dim) + `) NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (namespace, id)
		)`,
		`CREATE INDEX IF NOT EXISTS ` + idx + ` ON ` + t + ` USING hnsw (embedding vector_cosine_ops)`,
	}
}

func insertSQL(table string) string {
	return `INSERT INTO ` + pq.QuoteIdentifier(table) + ` (id, namespace, content, file_name, metadata, embedding)
		VALUES ($1, $2, $3, $4, $5::jsonb, $6::vector)
		ON CONFLICT (namespace, id) DO UPDATE SET
			content = EXCLUDED.content,
			file_name = EXCLUDED.file_name,
			metadata = EXCLUDED.metadata,
			embedding = EXCLUDED.embedding`
}

func searchSQL(table string) string {
	return `SELECT id, content, metadata, 1 - (embedding <=> $1::vector) AS similarity
		FROM ` + pq.QuoteIdentifier(table) + `
		WHERE namespace = $2
		ORDER BY embedding <=> $1::vector
		LIMIT $3`
}

// vectorToString converts a float32 slice to pgvector text format: [0.1,0.2,0.3].
func vectorToString(v []float32) string {
	parts := make([]string, len(v))
	for i, val := range v {
		parts[i] = strconv.FormatFloat(float64(val), 'g', -1, 32)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

func nonNil(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}
