package domain

import "context"

type tokenUsageKey struct{}

// TokenUsage accumulates provider tokens spent on one HTTP request.
// The handler installs it, the use cases add to it, the handler reports it in headers.
// A request is served by a single goroutine, so no locking.
type TokenUsage struct {
	EmbeddingTokens  int
	CompletionTokens int
	CompletionCalls  int
}

// NewContextWithUsage returns a context carrying a fresh usage collector.
func NewContextWithUsage(ctx context.Context) (context.Context, *TokenUsage) {
	u := &TokenUsage{}
	return context.WithValue(ctx, tokenUsageKey{}, u), u
}

// UsageFromContext returns the collector, or nil if none was installed.
func UsageFromContext(ctx context.Context) *TokenUsage {
	u, _ := ctx.Value(tokenUsageKey{}).(*TokenUsage)
	return u
}

// AddEmbedding records embedding tokens. Safe on nil.
func (u *TokenUsage) AddEmbedding(n int) {
	if u != nil {
		u.EmbeddingTokens += n
	}
}

// AddCompletion records one completion call. Safe on nil.
func (u *TokenUsage) AddCompletion(tokens int) {
	if u != nil {
		u.CompletionTokens += tokens
		u.CompletionCalls++
	}
}
