package synthesis

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kailas-cloud/ragtutor/internal/domain"
)

func TestMetadataPolicy_Apply(t *testing.T) {
	chunks := []domain.ScoredChunk{{Chunk: domain.Chunk{ID: "a"}}, {Chunk: domain.Chunk{ID: "b"}}}
	p := NewMetadataPolicy([]string{"file_path", "last_accessed_date"})

	p.Apply(chunks)
	for _, c := range chunks {
		assert.Equal(t, []string{"file_path", "last_accessed_date"}, c.Chunk.ExcludedLLMMetadataKeys)
	}

	chunks[0].Chunk.ExcludedLLMMetadataKeys[0] = "mutated"
	assert.Equal(t, "file_path", chunks[1].Chunk.ExcludedLLMMetadataKeys[0], "each chunk owns its list")
	assert.Equal(t, "file_path", p.Excluded()[0], "policy config is not aliased")
}

func TestMetadataPolicy_Idempotent(t *testing.T) {
	chunks := []domain.ScoredChunk{{Chunk: domain.Chunk{ID: "a"}}}
	p := NewMetadataPolicy([]string{"file_path"})

	p.Apply(chunks)
	once := append([]string(nil), chunks[0].Chunk.ExcludedLLMMetadataKeys...)
	p.Apply(chunks)
	assert.Equal(t, once, chunks[0].Chunk.ExcludedLLMMetadataKeys)
}

func TestMetadataPolicy_DefaultExcludesNothing(t *testing.T) {
	chunks := []domain.ScoredChunk{{Chunk: domain.Chunk{
		Text:     "t",
		Metadata: map[string]string{"file_name": "x.pdf"},
	}}}
	NewMetadataPolicy(nil).Apply(chunks)

	assert.Empty(t, chunks[0].Chunk.ExcludedLLMMetadataKeys)
	assert.Equal(t, "file_name: x.pdf\n\nt", chunks[0].Chunk.LLMContent())
}

func TestPackGreedy(t *testing.T) {
	groups := packGreedy([]string{"aaaa", "bbbb", "cccc"}, 3) // 1 token each + 1 per separator
	assert.Equal(t, [][]string{{"aaaa", "bbbb"}, {"cccc"}}, groups)

	assert.Nil(t, packGreedy(nil, 10))
}
