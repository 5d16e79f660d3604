package vectorstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMetric(t *testing.T) {
	for in, want := range map[string]Metric{"": Cosine, "Cosine": Cosine, "dot": Dot, "l2": Euclidean, "euclidean": Euclidean} {
		got, err := ParseMetric(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseMetric("manhattan")
	assert.Error(t, err)
}

func TestMetricScore(t *testing.T) {
	a := []float64{1, 0}
	b := []float64{0, 2}
	c := []float64{3, 0}

	assert.InDelta(t, 1.0, Cosine.Score(a, c), 1e-12)
	assert.InDelta(t, 0.0, Cosine.Score(a, b), 1e-12)
	assert.Zero(t, Cosine.Score(a, []float64{0, 0}))

	assert.InDelta(t, 3.0, Dot.Score(a, c), 1e-12)
	assert.InDelta(t, -2.0, Euclidean.Score(a, c), 1e-12)
	assert.Greater(t, Euclidean.Score(a, a), Euclidean.Score(a, b))
}
