package domain

import (
	"slices"
	"sort"
	"strings"
)

// Well-known chunk metadata keys stamped at ingestion time.
const (
	MetaFileName         = "file_name"
	MetaFilePath         = "file_path"
	MetaLastAccessedDate = "last_accessed_date"
)

// Chunk is a unit of indexed content.
type Chunk struct {
	ID        string
	Text      string
	Metadata  map[string]string
	Embedding []float32 // owned by the store

	// ExcludedLLMMetadataKeys lists metadata keys hidden from the synthesis prompt.
	ExcludedLLMMetadataKeys []string
}

// FileName returns the file_name metadata value, or "" when absent.
func (c *Chunk) FileName() string {
	return c.Metadata[MetaFileName]
}

// LLMContent renders the chunk the way the completion backend sees it:
// visible metadata as "key: value" lines, a blank line, then the text.
func (c *Chunk) LLMContent() string {
	keys := make([]string, 0, len(c.Metadata))
	for k := range c.Metadata {
		if slices.Contains(c.ExcludedLLMMetadataKeys, k) {
			continue
		}
		keys = append(keys, k)
	}
	if len(keys) == 0 {
		return c.Text
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k)
		b.WriteString(": ")
		b.WriteString(c.Metadata[k])
		b.WriteByte('\n')
	}
	b.WriteByte('\n')
	b.WriteString(c.Text)
	return b.String()
}

// ScoredChunk is a retrieval hit. Produced per query, never persisted.
type ScoredChunk struct {
	Chunk Chunk
	Score float64
}

// SortByScore orders hits by descending score, keeping the store order on ties.
func SortByScore(hits []ScoredChunk) {
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})
}
