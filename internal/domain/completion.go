package domain

import "context"

// Completer is the text-generation backend contract: prompt in, text out.
type Completer interface {
	Complete(ctx context.Context, prompt string) (CompletionResult, error)
	Model() string
}

// CompletionResult carries generated text and token usage.
type CompletionResult struct {
	Text   string
	Tokens int
}
