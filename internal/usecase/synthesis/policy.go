package synthesis

import "github.com/kailas-cloud/ragtutor/internal/domain"

// MetadataPolicy hides configured metadata keys from the synthesis prompt.
type MetadataPolicy struct {
	excluded []string
}

// NewMetadataPolicy creates a policy excluding keys. nil excludes nothing.
func NewMetadataPolicy(keys []string) *MetadataPolicy {
	return &MetadataPolicy{excluded: append([]string(nil), keys...)}
}

// Apply sets the excluded key list on every chunk in place. Each chunk gets
// its own copy so later edits to one chunk never leak into another.
func (p *MetadataPolicy) Apply(chunks []domain.ScoredChunk) {
	for i := range chunks {
		chunks[i].Chunk.ExcludedLLMMetadataKeys = append([]string(nil), p.excluded...)
	}
}

// Excluded returns a copy of the configured keys.
func (p *MetadataPolicy) Excluded() []string {
	return append([]string(nil), p.excluded...)
}
