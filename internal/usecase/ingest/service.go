package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/ragtutor/internal/domain"
	"github.com/kailas-cloud/ragtutor/internal/logger"
)

// Service embeds chunks and writes them to the vector store.
type Service struct {
	embedder domain.Embedder
	writer   ChunkWriter
	splitter *WordSplitter
	recorder Recorder
	now      func() time.Time
	logger   *zap.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithRecorder counts indexed chunks.
func WithRecorder(r Recorder) Option {
	return func(s *Service) { s.recorder = r }
}

// WithClock overrides the clock used for last_accessed_date.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New creates an ingestion service. embedder should be the document-side embedder.
func New(embedder domain.Embedder, writer ChunkWriter, splitter *WordSplitter, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		embedder: embedder,
		writer:   writer,
		splitter: splitter,
		now:      time.Now,
		logger:   logger,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// IndexChunks embeds and stores chunks, returning how many were written.
// Every chunk needs text and a file_name; missing IDs get a fresh UUID.
func (s *Service) IndexChunks(ctx context.Context, chunks []domain.Chunk) (int, error) {
	if len(chunks) == 0 {
		return 0, nil
	}

	texts := make([]string, len(chunks))
	for i := range chunks {
		c := &chunks[i]
		if c.Text == "" {
			return 0, fmt.Errorf("chunk %d: text is required: %w", i, domain.ErrInvalidRequest)
		}
		if c.FileName() == "" {
			return 0, fmt.Errorf("chunk %d: metadata.%s is required: %w", i, domain.MetaFileName, domain.ErrInvalidRequest)
		}
		if c.ID == "" {
			c.ID = uuid.NewString()
		}
		texts[i] = c.Text
	}

	res, err := domain.EmbedAll(ctx, s.embedder, texts)
	if err != nil {
		return 0, fmt.Errorf("embed chunks: %w", err)
	}
	for i := range chunks {
		chunks[i].Embedding = res.Vectors[i]
	}

	if err := s.writer.Insert(ctx, chunks); err != nil {
		return 0, fmt.Errorf("insert chunks: %w", err)
	}

	if s.recorder != nil {
		s.recorder.ChunksIndexed(len(chunks))
	}
	logger.FromContextOr(ctx, s.logger).Info("Chunks indexed",
		zap.Int("count", len(chunks)),
		zap.Int("embedding_tokens", res.Tokens),
	)
	return len(chunks), nil
}

// IndexFiles parses, splits and indexes files. All files are parsed before
// anything is embedded, so an unsupported file aborts the whole call.
func (s *Service) IndexFiles(ctx context.Context, files []File) (int, error) {
	accessed := s.now().UTC().Format(time.RFC3339)

	var chunks []domain.Chunk
	for _, f := range files {
		text, err := extractText(f)
		if err != nil {
			return 0, err
		}
		path := f.Path
		if path == "" {
			path = f.fileName()
		}
		for _, window := range s.splitter.Split(text) {
			chunks = append(chunks, domain.Chunk{
				Text: window,
				Metadata: map[string]string{
					domain.MetaFileName:         f.fileName(),
					domain.MetaFilePath:         path,
					domain.MetaLastAccessedDate: accessed,
				},
			})
		}
	}

	return s.IndexChunks(ctx, chunks)
}
