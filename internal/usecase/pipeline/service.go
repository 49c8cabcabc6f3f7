package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ragtutor/internal/domain"
	"github.com/kailas-cloud/ragtutor/internal/logger"
)

// Stage names reported to the Recorder.
const (
	StageClassify   = "classify"
	StageRetrieve   = "retrieve"
	StageSynthesize = "synthesize"
)

// Outcome labels reported to the Recorder.
const (
	OutcomeAnswered   = "answered"
	OutcomeEmpty      = "empty"
	OutcomeIrrelevant = "irrelevant"
	OutcomeError      = "error"
)

// Options adjust a single query.
type Options struct {
	// LongAnswer retrieves with the long-answer fan-out when one is configured.
	LongAnswer bool
}

// Pipeline runs classify, retrieve, synthesize and fallback for one query.
// It holds no per-query state and is safe for concurrent use.
type Pipeline struct {
	classifier    Classifier
	retriever     Retriever
	longRetriever Retriever
	policy        MetadataPolicy
	synthesizer   Synthesizer
	recorder      Recorder
	logger        *zap.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLongAnswerRetriever sets the retriever used for Options.LongAnswer.
func WithLongAnswerRetriever(r Retriever) Option {
	return func(p *Pipeline) { p.longRetriever = r }
}

// WithRecorder reports outcomes and stage timings.
func WithRecorder(r Recorder) Option {
	return func(p *Pipeline) { p.recorder = r }
}

// New wires a Pipeline. All collaborators are required.
func New(
	classifier Classifier,
	retriever Retriever,
	policy MetadataPolicy,
	synthesizer Synthesizer,
	logger *zap.Logger,
	opts ...Option,
) (*Pipeline, error) {
	if classifier == nil || retriever == nil || policy == nil || synthesizer == nil {
		return nil, fmt.Errorf("pipeline requires classifier, retriever, policy and synthesizer: %w",
			domain.ErrConfiguration)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Pipeline{
		classifier:  classifier,
		retriever:   retriever,
		policy:      policy,
		synthesizer: synthesizer,
		logger:      logger,
	}
	for _, o := range opts {
		o(p)
	}
	return p, nil
}

// Query answers query with default options.
func (p *Pipeline) Query(ctx context.Context, query string) (domain.QueryContext, error) {
	return p.QueryWith(ctx, query, Options{})
}

// QueryWith answers query. Errors from retrieval or synthesis are returned
// as is; they already carry domain.ErrRetrieval or domain.ErrSynthesis.
func (p *Pipeline) QueryWith(ctx context.Context, query string, opts Options) (domain.QueryContext, error) {
	log := logger.FromContextOr(ctx, p.logger)

	qc := domain.QueryContext{
		Query:               query,
		ClassificationModel: p.classifier.ModelName(),
	}

	start := time.Now()
	cls, err := p.classifier.Classify(ctx, query)
	p.stage(log, StageClassify, start)
	if err != nil {
		p.outcome(OutcomeError)
		return qc, err
	}
	qc.Classification = cls

	if cls == domain.ClassificationIrrelevant {
		qc.FinalAnswer = IrrelevantQueryReply
		qc.IsValid = false
		p.outcome(OutcomeIrrelevant)
		log.Info("Query rejected by classifier", zap.String("model", qc.ClassificationModel))
		return qc, nil
	}

	retriever := p.retriever
	if opts.LongAnswer && p.longRetriever != nil {
		retriever = p.longRetriever
	}

	start = time.Now()
	hits, err := retriever.Retrieve(ctx, query)
	p.stage(log, StageRetrieve, start)
	if err != nil {
		p.outcome(OutcomeError)
		return qc, err
	}
	p.policy.Apply(hits)
	qc.Retrieved = hits

	start = time.Now()
	raw, sources, err := p.synthesizer.Synthesize(ctx, query, hits)
	p.stage(log, StageSynthesize, start)
	if err != nil {
		p.outcome(OutcomeError)
		return qc, err
	}
	qc.RawAnswer = raw
	qc.Sources = sources

	qc.FinalAnswer, qc.IsValid = Fallback(raw)
	if qc.IsValid {
		p.outcome(OutcomeAnswered)
	} else {
		p.outcome(OutcomeEmpty)
	}

	log.Info("Query answered",
		zap.String("classification", string(qc.Classification)),
		zap.Int("retrieved", len(hits)),
		zap.Bool("is_valid", qc.IsValid),
		zap.Bool("long_answer", opts.LongAnswer),
	)
	return qc, nil
}

func (p *Pipeline) stage(log *zap.Logger, name string, start time.Time) {
	d := time.Since(start)
	if p.recorder != nil {
		p.recorder.Stage(name, d)
	}
	log.Debug("Pipeline stage finished", zap.String("stage", name), zap.Duration("duration", d))
}

func (p *Pipeline) outcome(o string) {
	if p.recorder != nil {
		p.recorder.Outcome(o)
	}
}
