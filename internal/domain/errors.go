package domain

import "errors"

var (
	// ErrRetrieval signals a chunk store or query embedding failure.
	ErrRetrieval = errors.New("retrieval failed")
	// ErrSynthesis signals a completion backend failure while answering.
	ErrSynthesis = errors.New("synthesis failed")
	// ErrConfiguration signals malformed or missing configuration. Fatal at startup.
	ErrConfiguration = errors.New("invalid configuration")

	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrCompletionProviderError signals a completion provider failure.
	ErrCompletionProviderError = errors.New("completion provider error")
	// ErrInvalidRequest signals malformed caller input.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrRateLimited signals a rate limit hit.
	ErrRateLimited = errors.New("rate limited")
	// ErrUnsupportedFile signals a document type ingestion cannot parse.
	ErrUnsupportedFile = errors.New("unsupported file type")
)
