package chunk

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"

	"github.com/kailas-cloud/ragtutor/internal/db"
	"github.com/kailas-cloud/ragtutor/internal/domain"
)

const (
	fieldContent   = "__content"
	fieldVector    = "__vector"
	fieldNamespace = "__namespace"
	fieldMetadata  = "__metadata"
)

// buildIndex describes the chunk index. textSearchEnabled adds a TEXT field
// over __content; valkey-search rejects TEXT so it is optional.
func buildIndex(name string, dim int, textSearchEnabled bool) (*db.IndexDefinition, error) {
	b := db.NewIndex(name).
		Prefix(keyPrefix()).
		Tag(fieldNamespace).
		Tag(domain.MetaFileName)
	if textSearchEnabled {
		b = b.Text(fieldContent)
	}
	return b.Vector(fieldVector, "vector", dim, db.DistanceCosine, defaultHNSWM, defaultHNSWEFConstruct).Build()
}

// buildHashFields flattens a chunk into HSET fields. Metadata travels as one
// JSON blob; file_name is duplicated as a tag for filtering.
func buildHashFields(c *domain.Chunk, namespace string) (map[string]string, error) {
	meta := c.Metadata
	if meta == nil {
		meta = map[string]string{}
	}
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("marshal metadata: %w", err)
	}

	return map[string]string{
		fieldContent:        c.Text,
		fieldVector:         vectorToBytes(c.Embedding),
		fieldNamespace:      namespace,
		fieldMetadata:       string(metaJSON),
		domain.MetaFileName: c.FileName(),
	}, nil
}

// parseHashFields rebuilds a chunk from returned search fields.
func parseHashFields(id string, m map[string]string) (domain.Chunk, error) {
	c := domain.Chunk{ID: id, Text: m[fieldContent]}
	if raw := m[fieldMetadata]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &c.Metadata); err != nil {
			return domain.Chunk{}, fmt.Errorf("unmarshal metadata: %w", err)
		}
	}
	if c.Metadata == nil {
		c.Metadata = map[string]string{}
	}
	if fn, ok := m[domain.MetaFileName]; ok && c.Metadata[domain.MetaFileName] == "" {
		c.Metadata[domain.MetaFileName] = fn
	}
	return c, nil
}

// vectorToBytes serializes []float32 to a binary string (4 bytes per float, little-endian).
func vectorToBytes(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}
