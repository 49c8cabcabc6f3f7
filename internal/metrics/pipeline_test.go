package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestPipeline_Outcome(t *testing.T) {
	p := NewPipeline()
	before := testutil.ToFloat64(queryOutcomesTotal.WithLabelValues(OutcomeEmpty))

	p.Outcome(OutcomeEmpty)

	if got := testutil.ToFloat64(queryOutcomesTotal.WithLabelValues(OutcomeEmpty)); got != before+1 {
		t.Errorf("expected %v, got %v", before+1, got)
	}
}

func TestPipeline_StageAndChunks(t *testing.T) {
	p := NewPipeline()
	p.Stage("retrieve", 20*time.Millisecond)
	if testutil.CollectAndCount(queryStageDuration) == 0 {
		t.Error("expected stage histogram observations")
	}

	before := testutil.ToFloat64(chunksIndexedTotal)
	p.ChunksIndexed(3)
	if got := testutil.ToFloat64(chunksIndexedTotal); got != before+3 {
		t.Errorf("expected %v, got %v", before+3, got)
	}
}

func TestRegister_Idempotent(t *testing.T) {
	RegisterProviderMetrics()
	RegisterProviderMetrics()
	RegisterPipelineMetrics()
	RegisterPipelineMetrics()
}
