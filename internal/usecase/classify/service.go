package classify

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/kailas-cloud/ragtutor/internal/domain"
)

// Prompt asks whether the corpus can answer a query.
const Prompt = `You are an expert Q&A system for educational topics. Classify the given query as "Yes" if it can be answered based on the provided context. Otherwise, classify it as "No".
Query: {query_str}
Answer: `

// Classifier is the optional relevance gate in front of retrieval.
type Classifier struct {
	completer domain.Completer
	model     string
	enabled   bool
}

// New creates a Classifier. When enabled is false, Classify never calls
// the backend and every query proceeds. model is reported either way.
func New(completer domain.Completer, model string, enabled bool) *Classifier {
	if model == "" && completer != nil {
		model = completer.Model()
	}
	return &Classifier{completer: completer, model: model, enabled: enabled}
}

// Enabled reports whether the gate consults the backend.
func (c *Classifier) Enabled() bool {
	return c.enabled
}

// ModelName returns the classification model identifier.
func (c *Classifier) ModelName() string {
	return c.model
}

// Classify labels query as relevant or irrelevant. An answer whose first
// word is "no" (case-insensitive) rejects the query; anything else lets it through.
func (c *Classifier) Classify(ctx context.Context, query string) (domain.Classification, error) {
	if !c.enabled || c.completer == nil {
		return domain.ClassificationSkipped, nil
	}

	res, err := c.completer.Complete(ctx, strings.ReplaceAll(Prompt, "{query_str}", query))
	if err != nil {
		return "", fmt.Errorf("classify query: %w: %w", domain.ErrSynthesis, err)
	}

	if firstWord(res.Text) == "no" {
		return domain.ClassificationIrrelevant, nil
	}
	return domain.ClassificationRelevant, nil
}

func firstWord(s string) string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
