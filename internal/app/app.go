// Package app is the composition root shared by the API server and the ingestion CLI.
package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ragtutor/internal/config"
	"github.com/kailas-cloud/ragtutor/internal/db"
	dbRedis "github.com/kailas-cloud/ragtutor/internal/db/redis"
	"github.com/kailas-cloud/ragtutor/internal/domain"
	"github.com/kailas-cloud/ragtutor/internal/metrics"
	chunkrepo "github.com/kailas-cloud/ragtutor/internal/repository/chunk"
	"github.com/kailas-cloud/ragtutor/internal/repository/embcache"
	pgrepo "github.com/kailas-cloud/ragtutor/internal/repository/pgvector"
	openaiTransport "github.com/kailas-cloud/ragtutor/internal/transport/openai"
	agentuc "github.com/kailas-cloud/ragtutor/internal/usecase/agent"
	classifyuc "github.com/kailas-cloud/ragtutor/internal/usecase/classify"
	embeddinguc "github.com/kailas-cloud/ragtutor/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/ragtutor/internal/usecase/health"
	ingestuc "github.com/kailas-cloud/ragtutor/internal/usecase/ingest"
	pipelineuc "github.com/kailas-cloud/ragtutor/internal/usecase/pipeline"
	retrievaluc "github.com/kailas-cloud/ragtutor/internal/usecase/retrieval"
	synthesisuc "github.com/kailas-cloud/ragtutor/internal/usecase/synthesis"
)

// ChunkStore is the vector store as the use cases see it.
type ChunkStore interface {
	EnsureIndex(ctx context.Context) error
	Insert(ctx context.Context, chunks []domain.Chunk) error
	SearchNearest(ctx context.Context, vector []float32, topK int) ([]domain.ScoredChunk, error)
}

// App holds the long-lived collaborators built from Config.
type App struct {
	cfg    config.Config
	logger *zap.Logger

	chunks ChunkStore
	pinger healthuc.StorePinger

	queryEmbedder domain.Embedder
	docEmbedder   domain.Embedder
	embedHealth   healthuc.ProviderChecker
	completer     *openaiTransport.Completer

	closers []func()
}

// New connects to the configured store, waits for it and ensures the index exists.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	metrics.RegisterProviderMetrics()
	metrics.RegisterPipelineMetrics()

	a := &App{cfg: cfg, logger: logger}

	var kv db.KVStore
	switch cfg.Database.Driver {
	case config.DriverRedis, config.DriverValkey:
		flavor := dbRedis.FlavorRedis
		if cfg.Database.Driver == config.DriverValkey {
			flavor = dbRedis.FlavorValkey
		}
		store, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Database.Addrs,
			Username: cfg.Database.Username,
			Password: cfg.Database.Password,
			DB:       cfg.Database.DB,
			Flavor:   flavor,
		})
		if err != nil {
			return nil, fmt.Errorf("create database store: %w", err)
		}
		a.closers = append(a.closers, store.Close)

		if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
			a.Close()
			return nil, fmt.Errorf("database not ready: %w", err)
		}
		a.chunks = chunkrepo.New(store, cfg.RAG.IndexName, cfg.RAG.Namespace, cfg.Embedding.Dimensions)
		a.pinger = store
		kv = store

	case config.DriverPostgres:
		readyCtx, cancel := context.WithTimeout(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second)
		defer cancel()
		sqlDB, err := pgrepo.Open(readyCtx, cfg.Database.DSN)
		if err != nil {
			return nil, fmt.Errorf("database not ready: %w", err)
		}
		a.closers = append(a.closers, func() { _ = sqlDB.Close() })

		repo := pgrepo.New(sqlDB, cfg.RAG.IndexName, cfg.RAG.Namespace, cfg.Embedding.Dimensions)
		a.chunks = repo
		a.pinger = repo

	default:
		return nil, fmt.Errorf("unknown database driver %q: %w", cfg.Database.Driver, domain.ErrConfiguration)
	}
	logger.Info("Connected to database", zap.String("driver", cfg.Database.Driver))

	if err := a.chunks.EnsureIndex(ctx); err != nil {
		a.Close()
		return nil, fmt.Errorf("ensure index: %w", err)
	}

	a.buildEmbedders(kv)
	a.completer = openaiTransport.NewCompleter(&openaiTransport.CompletionConfig{
		Config: openaiTransport.Config{
			APIKey:   cfg.LLM.APIKey,
			BaseURL:  cfg.LLM.BaseURL,
			Model:    cfg.LLM.Model,
			Provider: cfg.LLM.Provider,
			Timeout:  time.Duration(cfg.LLM.TimeoutSec) * time.Second,
			Logger:   logger,
		},
		SystemPrompt: synthesisuc.SystemPrompt,
		Temperature:  *cfg.LLM.Temperature,
		MaxTokens:    cfg.LLM.MaxTokens,
	})

	logger.Info("Providers configured",
		zap.String("embedding_model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
		zap.String("llm_model", cfg.LLM.Model),
	)
	return a, nil
}

// buildEmbedders assembles the decorator chains:
// query: OpenAI -> Cached -> Instrumented -> Instruction,
// document: OpenAI -> Instrumented -> Instruction.
func (a *App) buildEmbedders(kv db.KVStore) {
	cfg := a.cfg.Embedding
	base := openaiTransport.NewEmbedder(&openaiTransport.Config{
		APIKey:     cfg.APIKey,
		BaseURL:    cfg.BaseURL,
		Model:      cfg.Model,
		Dimensions: cfg.Dimensions,
		Provider:   cfg.Provider,
		Timeout:    time.Duration(a.cfg.LLM.TimeoutSec) * time.Second,
		Logger:     a.logger,
	})

	var query domain.Embedder = base
	if kv != nil {
		query = embcache.New(base, kv, cfg.Model, a.logger,
			embcache.WithTTL(time.Duration(cfg.CacheTTLSec)*time.Second),
			embcache.WithMetrics(metrics.EmbeddingCacheTotal),
		)
	}
	queryInstrumented := embeddinguc.NewInstrumentedEmbedder(query, cfg.Provider, cfg.Model, a.logger)
	docInstrumented := embeddinguc.NewInstrumentedEmbedder(base, cfg.Provider, cfg.Model, a.logger).
		WithMaxBatchSize(cfg.MaxBatchSize)

	a.queryEmbedder = withInstruction(queryInstrumented, cfg.QueryInstruction)
	a.docEmbedder = withInstruction(docInstrumented, cfg.DocumentInstruction)
	a.embedHealth = docInstrumented
}

func withInstruction(e domain.Embedder, instruction string) domain.Embedder {
	if instruction == "" {
		return e
	}
	return domain.NewInstructionEmbedder(e, instruction)
}

// Pipeline wires classify, retrieve and synthesize.
func (a *App) Pipeline() (*pipelineuc.Pipeline, error) {
	retriever, err := retrievaluc.New(a.chunks, a.queryEmbedder, *a.cfg.RAG.TopK)
	if err != nil {
		return nil, fmt.Errorf("retriever: %w", err)
	}
	longRetriever, err := retriever.WithTopK(*a.cfg.RAG.LongAnswerTopK)
	if err != nil {
		return nil, fmt.Errorf("long answer retriever: %w", err)
	}

	mode, err := domain.ParseResponseMode(a.cfg.RAG.ResponseMode)
	if err != nil {
		return nil, err
	}
	synthesizer, err := synthesisuc.New(a.completer, synthesisuc.Config{
		Mode:          mode,
		ContextWindow: a.cfg.LLM.ContextWindow,
		NumOutput:     a.cfg.LLM.NumOutput,
	}, a.logger)
	if err != nil {
		return nil, fmt.Errorf("synthesizer: %w", err)
	}

	classifier := classifyuc.New(
		a.completer.WithModel(a.cfg.LLM.ClassificationModel).WithSystemPrompt(""),
		a.cfg.LLM.ClassificationModel,
		a.cfg.RAG.ClassificationEnabled,
	)

	p, err := pipelineuc.New(
		classifier,
		retriever,
		synthesisuc.NewMetadataPolicy(a.cfg.RAG.ExcludedMetadataKeys),
		synthesizer,
		a.logger,
		pipelineuc.WithLongAnswerRetriever(longRetriever),
		pipelineuc.WithRecorder(metrics.NewPipeline()),
	)
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}
	return p, nil
}

// Agent wires capability routing in front of p.
func (a *App) Agent(p agentuc.Answerer) *agentuc.Service {
	completer := a.completer.WithModel(a.cfg.LLM.AgentModel).WithSystemPrompt("")
	return agentuc.New(p, completer, a.cfg.Agent.RoutingEnabled, a.logger)
}

// Ingest wires document ingestion.
func (a *App) Ingest() (*ingestuc.Service, error) {
	splitter, err := ingestuc.NewWordSplitter(a.cfg.RAG.ChunkSize, *a.cfg.RAG.ChunkOverlap)
	if err != nil {
		return nil, fmt.Errorf("splitter: %w", err)
	}
	return ingestuc.New(a.docEmbedder, a.chunks, splitter, a.logger,
		ingestuc.WithRecorder(metrics.NewPipeline()),
	), nil
}

// Health wires the store and provider checks.
func (a *App) Health() *healthuc.Service {
	return healthuc.New(a.pinger, a.embedHealth, a.completer)
}

// Close releases connections in reverse order.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
