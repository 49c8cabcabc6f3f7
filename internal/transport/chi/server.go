package chi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	gochi "github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/ragtutor/internal/domain"
	"github.com/kailas-cloud/ragtutor/internal/logger"
	healthuc "github.com/kailas-cloud/ragtutor/internal/usecase/health"
	ingestuc "github.com/kailas-cloud/ragtutor/internal/usecase/ingest"
	pipelineuc "github.com/kailas-cloud/ragtutor/internal/usecase/pipeline"
)

// DefaultMaxUploadBytes caps a multipart upload when Options leaves it unset.
const DefaultMaxUploadBytes = 32 << 20

// Agent answers free-form queries through capability routing.
type Agent interface {
	Handle(ctx context.Context, query string) (string, error)
}

// QueryPipeline runs the retrieval-augmented answer pipeline.
type QueryPipeline interface {
	QueryWith(ctx context.Context, query string, opts pipelineuc.Options) (domain.QueryContext, error)
}

// Indexer ingests uploaded documents.
type Indexer interface {
	IndexFiles(ctx context.Context, files []ingestuc.File) (int, error)
}

// HealthChecker aggregates component checks.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Options tune the HTTP surface.
type Options struct {
	MaxUploadBytes int64
}

// Server serves the ragtutor HTTP API.
type Server struct {
	agent          Agent
	query          QueryPipeline
	indexer        Indexer
	health         HealthChecker
	logger         *zap.Logger
	maxUploadBytes int64
	errorHandlers  []errorHandler
}

// NewServer creates an HTTP API server. indexer may be nil, which disables POST /documents.
func NewServer(
	agent Agent,
	query QueryPipeline,
	indexer Indexer,
	health HealthChecker,
	logger *zap.Logger,
	opts Options,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = DefaultMaxUploadBytes
	}
	s := &Server{
		agent:          agent,
		query:          query,
		indexer:        indexer,
		health:         health,
		logger:         logger,
		maxUploadBytes: opts.MaxUploadBytes,
	}
	// Order matters: a retrieval error caused by the provider reports the provider.
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidRequest, http.StatusBadRequest, ErrorCodeValidationFailed),
		sentinelHandler(domain.ErrUnsupportedFile, http.StatusUnsupportedMediaType, ErrorCodeUnsupportedFile),
		sentinelHandler(domain.ErrRateLimited, http.StatusTooManyRequests, ErrorCodeRateLimited),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, ErrorCodeProviderError),
		sentinelHandler(domain.ErrCompletionProviderError, http.StatusBadGateway, ErrorCodeProviderError),
		sentinelHandler(domain.ErrRetrieval, http.StatusServiceUnavailable, ErrorCodeRetrievalFailed),
		sentinelHandler(domain.ErrSynthesis, http.StatusBadGateway, ErrorCodeSynthesisFailed),
	}
	return s
}

// Register mounts the API routes on r.
func (s *Server) Register(r gochi.Router) {
	r.Get("/", s.Root)
	r.Post("/agent", s.Agent)
	r.Post("/query", s.Query)
	if s.indexer != nil {
		r.Post("/documents", s.UploadDocument)
	}
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
}

// Root handles GET /.
func (s *Server) Root(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, RootResponse{Response: "Success!"})
}

// Agent handles POST /agent. Every failure after decoding is a 500.
func (s *Server) Agent(w http.ResponseWriter, r *http.Request) {
	var req AgentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	answer, err := s.agent.Handle(ctx, queryText(req.Query))
	setUsageHeaders(w, usage)
	if err != nil {
		logger.FromContextOr(r.Context(), s.logger).Error("agent failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, ErrorCodeInternalError, safeDomainMessage(err))
		return
	}

	writeJSON(w, http.StatusOK, AgentResponse{Response: answer})
}

// Query handles POST /query.
func (s *Server) Query(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	qc, err := s.query.QueryWith(ctx, queryText(req.Query), pipelineuc.Options{LongAnswer: req.LongAnswer})
	setUsageHeaders(w, usage)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	sources := qc.Sources
	if sources == nil {
		sources = []domain.Source{}
	}
	writeJSON(w, http.StatusOK, QueryResponse{
		Response:       qc.FinalAnswer,
		IsValid:        qc.IsValid,
		Sources:        sources,
		Classification: string(qc.Classification),
	})
}

// UploadDocument handles POST /documents (multipart field "file", .pdf or .txt).
func (s *Server) UploadDocument(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	if err := r.ParseMultipartForm(s.maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "failed to parse multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "missing file field")
		return
	}
	defer func() { _ = file.Close() }()

	if !ingestuc.Supported(header.Filename) {
		writeError(w, http.StatusUnsupportedMediaType, ErrorCodeUnsupportedFile,
			fmt.Sprintf("unsupported file %q: only .pdf and .txt are accepted", header.Filename))
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "failed to read uploaded file")
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	n, err := s.indexer.IndexFiles(ctx, []ingestuc.File{{Name: header.Filename, Data: data}})
	setUsageHeaders(w, usage)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, UploadResponse{ChunksIndexed: n, FileName: header.Filename})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func setUsageHeaders(w http.ResponseWriter, usage *domain.TokenUsage) {
	if usage == nil {
		return
	}
	if usage.EmbeddingTokens > 0 {
		w.Header().Set("X-Embedding-Tokens", strconv.Itoa(usage.EmbeddingTokens))
	}
	if usage.CompletionCalls > 0 {
		w.Header().Set("X-Completion-Tokens", strconv.Itoa(usage.CompletionTokens))
		w.Header().Set("X-Completion-Calls", strconv.Itoa(usage.CompletionCalls))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, detail string) {
	writeJSON(w, status, ErrorResponse{
		Code:   code,
		Detail: detail,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrInvalidRequest,
		domain.ErrUnsupportedFile,
		domain.ErrRateLimited,
		domain.ErrEmbeddingProviderError,
		domain.ErrCompletionProviderError,
		domain.ErrRetrieval,
		domain.ErrSynthesis,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContextOr(r.Context(), s.logger)
	log.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, ErrorCodeInternalError, "internal error")
}
