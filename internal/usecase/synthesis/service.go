package synthesis

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ragtutor/internal/domain"
)

// Defaults for a 128k-context chat model with 4096 output tokens.
const (
	DefaultContextWindow = 128000
	DefaultNumOutput     = 4096
)

// Config tunes prompt packing.
type Config struct {
	Mode          domain.ResponseMode
	ContextWindow int // model context window in tokens
	NumOutput     int // tokens reserved for the answer
}

// Synthesizer turns a query plus retrieved chunks into one answer.
type Synthesizer struct {
	completer     domain.Completer
	mode          domain.ResponseMode
	contextWindow int
	numOutput     int
	logger        *zap.Logger
}

// New creates a Synthesizer.
func New(completer domain.Completer, cfg Config, logger *zap.Logger) (*Synthesizer, error) {
	mode := cfg.Mode
	if mode == "" {
		mode = domain.ResponseModeCompactAccumulate
	}
	if _, err := domain.ParseResponseMode(string(mode)); err != nil {
		return nil, err
	}
	if cfg.ContextWindow <= 0 {
		cfg.ContextWindow = DefaultContextWindow
	}
	if cfg.NumOutput <= 0 {
		cfg.NumOutput = DefaultNumOutput
	}
	if cfg.NumOutput >= cfg.ContextWindow {
		return nil, fmt.Errorf("num_output %d must be below context_window %d: %w",
			cfg.NumOutput, cfg.ContextWindow, domain.ErrConfiguration)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Synthesizer{
		completer:     completer,
		mode:          mode,
		contextWindow: cfg.ContextWindow,
		numOutput:     cfg.NumOutput,
		logger:        logger,
	}, nil
}

// Mode returns the active response mode.
func (s *Synthesizer) Mode() domain.ResponseMode {
	return s.mode
}

// Synthesize answers query from chunks. With no chunks, or when every
// partial answer comes back blank, the answer is domain.EmptyResponse.
// sources always mirrors chunks one-to-one in order.
func (s *Synthesizer) Synthesize(
	ctx context.Context, query string, chunks []domain.ScoredChunk,
) (string, []domain.Source, error) {
	sources := domain.SourcesOf(chunks)
	if len(chunks) == 0 {
		return domain.EmptyResponse, sources, nil
	}

	texts := make([]string, len(chunks))
	for i := range chunks {
		texts[i] = chunks[i].Chunk.LLMContent()
	}

	budget := s.contextBudget(query)
	texts = splitOversized(texts, budget)

	var groups [][]string
	switch s.mode {
	case domain.ResponseModeAccumulate:
		groups = packOnePerGroup(texts)
	default:
		groups = packGreedy(texts, budget)
	}

	partials := make([]string, 0, len(groups))
	for i, g := range groups {
		prompt := renderQA(strings.Join(g, chunkSeparator), query)
		res, err := s.completer.Complete(ctx, prompt)
		if err != nil {
			return "", nil, fmt.Errorf("complete group %d/%d: %w: %w", i+1, len(groups), domain.ErrSynthesis, err)
		}
		text := strings.TrimSpace(res.Text)
		if text == "" || IsEmptyResponse(text) {
			continue
		}
		partials = append(partials, text)
	}

	s.logger.Debug("Answer synthesized",
		zap.String("mode", string(s.mode)),
		zap.Int("chunks", len(chunks)),
		zap.Int("groups", len(groups)),
		zap.Int("answered_groups", len(partials)),
	)

	return accumulate(partials), sources, nil
}

// contextBudget is the token room left for chunk text in one prompt.
func (s *Synthesizer) contextBudget(query string) int {
	budget := s.contextWindow - s.numOutput - estimateTokens(templateOverhead(query))
	return max(budget, 1)
}

// accumulate merges partial answers. A single answer is returned as is;
// several are numbered "Response N: " and separated by a rule.
func accumulate(partials []string) string {
	switch len(partials) {
	case 0:
		return domain.EmptyResponse
	case 1:
		return partials[0]
	}
	parts := make([]string, len(partials))
	for i, p := range partials {
		parts[i] = fmt.Sprintf("Response %d: %s", i+1, p)
	}
	return strings.Join(parts, responseSeparator)
}

// IsEmptyResponse reports whether text is the no-answer sentinel. The match is literal.
func IsEmptyResponse(text string) bool {
	return text == domain.EmptyResponse
}
