package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompareProportionsIdenticalGroups(t *testing.T) {
	cmp := TwoSample{}.CompareProportions(
		Proportion{Successes: 40, Trials: 100},
		Proportion{Successes: 40, Trials: 100},
	)

	assert.Equal(t, 0.0, cmp.EffectSize)
	assert.InDelta(t, 1.0, cmp.PValue, 1e-9)
}

func TestCompareProportionsLargeLift(t *testing.T) {
	cmp := TwoSample{}.CompareProportions(
		Proportion{Successes: 200, Trials: 500},
		Proportion{Successes: 300, Trials: 500},
	)

	assert.InDelta(t, 0.5, cmp.EffectSize, 1e-9) // (0.6-0.4)/0.4
	assert.Less(t, cmp.PValue, 0.001)
}

func TestCompareProportionsNoTrials(t *testing.T) {
	cmp := TwoSample{}.CompareProportions(Proportion{}, Proportion{Successes: 5, Trials: 10})

	assert.Equal(t, 1.0, cmp.PValue)
}

func TestCompareProportionsZeroControlRate(t *testing.T) {
	cmp := TwoSample{}.CompareProportions(
		Proportion{Successes: 0, Trials: 50},
		Proportion{Successes: 25, Trials: 50},
	)

	assert.Equal(t, 1.0, cmp.EffectSize)
	assert.Less(t, cmp.PValue, 0.001)
}

func TestCompareMeansWelch(t *testing.T) {
	control := Sample{N: 50, Mean: 10, Variance: 4}
	treatment := Sample{N: 50, Mean: 12, Variance: 4}

	cmp := TwoSample{}.CompareMeans(control, treatment)

	assert.InDelta(t, 0.2, cmp.EffectSize, 1e-9)
	assert.Less(t, cmp.PValue, 0.001)
}

func TestCompareMeansEqualMeans(t *testing.T) {
	sample := Sample{N: 30, Mean: 5, Variance: 2}

	cmp := TwoSample{}.CompareMeans(sample, sample)

	assert.Equal(t, 0.0, cmp.EffectSize)
	assert.InDelta(t, 1.0, cmp.PValue, 1e-9)
}

func TestCompareMeansTinySamples(t *testing.T) {
	cmp := TwoSample{}.CompareMeans(Sample{N: 1, Mean: 10}, Sample{N: 50, Mean: 20, Variance: 4})

	assert.Equal(t, 1.0, cmp.PValue)
}

func TestSummarize(t *testing.T) {
	s := Summarize([]float64{1, 2, 3})

	assert.Equal(t, 3, s.N)
	assert.InDelta(t, 2.0, s.Mean, 1e-9)
	assert.InDelta(t, 1.0, s.Variance, 1e-9)

	assert.Equal(t, Sample{}, Summarize(nil))
}
