package domain

// Classification is the outcome of the optional relevance gate.
type Classification string

const (
	// ClassificationRelevant means the query can be answered from the corpus.
	ClassificationRelevant Classification = "relevant"
	// ClassificationIrrelevant means the gate rejected the query.
	ClassificationIrrelevant Classification = "irrelevant"
	// ClassificationSkipped means the gate is disabled and the query proceeds.
	ClassificationSkipped Classification = "skipped"
)

// Source identifies a chunk that contributed to an answer.
type Source struct {
	FileName string  `json:"file_name"`
	Score    float64 `json:"score"`
}

// QueryContext is the per-query record populated stage by stage.
type QueryContext struct {
	Query               string
	Classification      Classification
	ClassificationModel string
	Retrieved           []ScoredChunk
	Sources             []Source
	RawAnswer           string
	FinalAnswer         string
	IsValid             bool
}

// SourcesOf extracts (file_name, score) pairs in retrieval order.
func SourcesOf(hits []ScoredChunk) []Source {
	sources := make([]Source, len(hits))
	for i := range hits {
		sources[i] = Source{FileName: hits[i].Chunk.FileName(), Score: hits[i].Score}
	}
	return sources
}
