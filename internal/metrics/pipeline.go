package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Query outcomes.
const (
	OutcomeAnswered   = "answered"
	OutcomeEmpty      = "empty"
	OutcomeIrrelevant = "irrelevant"
	OutcomeError      = "error"
)

var (
	queryOutcomesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "query_outcomes_total",
			Help:      "Answered, empty, irrelevant and failed queries",
		},
		[]string{"outcome"},
	)

	queryStageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "query_stage_duration_seconds",
			Help:      "Duration of each query pipeline stage",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"stage"},
	)

	chunksIndexedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunks_indexed_total",
			Help:      "Chunks written to the vector store",
		},
	)
)

var registerPipelineOnce sync.Once

// RegisterPipelineMetrics registers query and ingestion metrics.
func RegisterPipelineMetrics() {
	registerPipelineOnce.Do(func() {
		prometheus.MustRegister(queryOutcomesTotal, queryStageDuration, chunksIndexedTotal)
	})
}

// Pipeline records query pipeline activity against the package collectors.
type Pipeline struct{}

// NewPipeline returns a recorder backed by the package collectors.
func NewPipeline() *Pipeline {
	return &Pipeline{}
}

// Outcome counts one finished query.
func (*Pipeline) Outcome(outcome string) {
	queryOutcomesTotal.WithLabelValues(outcome).Inc()
}

// Stage observes the duration of one pipeline stage.
func (*Pipeline) Stage(stage string, d time.Duration) {
	queryStageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// ChunksIndexed adds n freshly indexed chunks.
func (*Pipeline) ChunksIndexed(n int) {
	chunksIndexedTotal.Add(float64(n))
}
