package domain

// KeyPrefix namespaces every key this service writes to the key-value store.
const KeyPrefix = "ragtutor:"

// EmptyResponse is the literal the synthesizer yields when no answer was produced.
const EmptyResponse = "Empty Response"

// EmbeddingDefaults holds vectorization settings used when config leaves them empty.
type EmbeddingDefaults struct {
	Model          string
	Dimensions     int
	DistanceMetric string
}

// DefaultEmbedding returns defaults matching text-embedding-3-large.
func DefaultEmbedding() EmbeddingDefaults {
	return EmbeddingDefaults{
		Model:          "text-embedding-3-large",
		Dimensions:     3072,
		DistanceMetric: "cosine",
	}
}
