package ingest

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/ragtutor/internal/domain"
)

// Default window sizes, in words.
const (
	DefaultChunkSize    = 1024
	DefaultChunkOverlap = 20
)

// WordSplitter cuts text into overlapping windows of whitespace-separated words.
type WordSplitter struct {
	size    int
	overlap int
}

// NewWordSplitter requires 0 <= overlap < size.
func NewWordSplitter(size, overlap int) (*WordSplitter, error) {
	if size <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d: %w", size, domain.ErrConfiguration)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("chunk overlap %d must be in [0, %d): %w", overlap, size, domain.ErrConfiguration)
	}
	return &WordSplitter{size: size, overlap: overlap}, nil
}

// Split returns the windows in document order. Blank text yields none.
func (s *WordSplitter) Split(text string) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	var out []string
	step := s.size - s.overlap
	for start := 0; start < len(words); start += step {
		end := min(start+s.size, len(words))
		out = append(out, strings.Join(words[start:end], " "))
		if end == len(words) {
			break
		}
	}
	return out
}
