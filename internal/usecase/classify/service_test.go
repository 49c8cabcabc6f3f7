package classify

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/ragtutor/internal/domain"
)

type fakeCompleter struct {
	reply  string
	err    error
	prompt string
	calls  int
}

func (f *fakeCompleter) Complete(_ context.Context, prompt string) (domain.CompletionResult, error) {
	f.calls++
	f.prompt = prompt
	return domain.CompletionResult{Text: f.reply}, f.err
}

func (f *fakeCompleter) Model() string { return "gpt-4o-mini" }

func TestClassify_DisabledSkipsBackend(t *testing.T) {
	fc := &fakeCompleter{reply: "No"}
	c := New(fc, "", false)

	got, err := c.Classify(context.Background(), "what is a tiger?")
	require.NoError(t, err)
	assert.Equal(t, domain.ClassificationSkipped, got)
	assert.Zero(t, fc.calls)
	assert.Equal(t, "gpt-4o-mini", c.ModelName(), "model reported even when disabled")
}

func TestClassify_Enabled(t *testing.T) {
	tests := []struct {
		reply string
		want  domain.Classification
	}{
		{"Yes", domain.ClassificationRelevant},
		{"yes.", domain.ClassificationRelevant},
		{"No", domain.ClassificationIrrelevant},
		{"  no, this is unrelated", domain.ClassificationIrrelevant},
		{`"No"`, domain.ClassificationIrrelevant},
		{"", domain.ClassificationRelevant},
		{"Not sure", domain.ClassificationRelevant},
		{"**No**", domain.ClassificationIrrelevant},
	}
	for _, tc := range tests {
		t.Run(tc.reply, func(t *testing.T) {
			fc := &fakeCompleter{reply: tc.reply}
			got, err := New(fc, "clf-model", true).Classify(context.Background(), "why is the sky blue?")
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
			assert.Contains(t, fc.prompt, "Query: why is the sky blue?\nAnswer: ")
		})
	}
}

func TestClassify_ErrorWrapped(t *testing.T) {
	backendErr := errors.New("timeout")
	_, err := New(&fakeCompleter{err: backendErr}, "m", true).Classify(context.Background(), "q")
	assert.ErrorIs(t, err, domain.ErrSynthesis)
	assert.ErrorIs(t, err, backendErr)
}
