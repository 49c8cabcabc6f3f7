package agent

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ragtutor/internal/domain"
	"github.com/kailas-cloud/ragtutor/internal/logger"
)

// Service routes free-form queries to a capability and runs it.
type Service struct {
	answerer       Answerer
	completer      domain.Completer
	routingEnabled bool
	logger         *zap.Logger
}

// New creates an agent. completer serves both routing and moderation.
// With routing disabled every query goes to VectorQuery.
func New(answerer Answerer, completer domain.Completer, routingEnabled bool, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		answerer:       answerer,
		completer:      completer,
		routingEnabled: routingEnabled,
		logger:         logger,
	}
}

// Route picks the capability for query.
func (s *Service) Route(ctx context.Context, query string) (Capability, error) {
	if !s.routingEnabled || s.completer == nil {
		return VectorQuery, nil
	}
	res, err := s.completer.Complete(ctx, renderRouting(query))
	if err != nil {
		return "", fmt.Errorf("route query: %w: %w", domain.ErrSynthesis, err)
	}
	return ParseCapability(res.Text), nil
}

// Handle routes query and returns the reply text.
func (s *Service) Handle(ctx context.Context, query string) (string, error) {
	capability, err := s.Route(ctx, query)
	if err != nil {
		return "", err
	}
	logger.FromContextOr(ctx, s.logger).Debug("Agent routed query", zap.String("capability", string(capability)))

	switch capability {
	case ContentModeration:
		return s.moderate(ctx, query)
	default:
		return s.vectorQuery(ctx, query)
	}
}

func (s *Service) vectorQuery(ctx context.Context, query string) (string, error) {
	qc, err := s.answerer.Query(ctx, query)
	if err != nil {
		return "", fmt.Errorf("vector query: %w", err)
	}
	if !qc.IsValid {
		return NoRelevantInformation, nil
	}
	return qc.FinalAnswer, nil
}

func (s *Service) moderate(ctx context.Context, query string) (string, error) {
	res, err := s.completer.Complete(ctx, renderModeration(query))
	if err != nil {
		return "", fmt.Errorf("moderate query: %w: %w", domain.ErrSynthesis, err)
	}
	return res.Text, nil
}
