// Package stats provides the two-sample comparisons the validation system
// uses to judge experiments. The method sits behind Comparator so it can be
// swapped without touching any orchestration logic.
package stats

import (
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Proportion is a success count over a trial count (e.g. contacted sessions
// over all sessions).
type Proportion struct {
	Successes int
	Trials    int
}

// Rate returns successes/trials, 0 for an empty proportion.
func (p Proportion) Rate() float64 {
	if p.Trials == 0 {
		return 0
	}
	return float64(p.Successes) / float64(p.Trials)
}

// Sample is a summarized continuous sample.
type Sample struct {
	N        int
	Mean     float64
	Variance float64 // unbiased sample variance
}

// Summarize builds a Sample from raw observations.
func Summarize(values []float64) Sample {
	if len(values) == 0 {
		return Sample{}
	}
	mean, variance := stat.MeanVariance(values, nil)
	if math.IsNaN(variance) {
		variance = 0
	}
	return Sample{N: len(values), Mean: mean, Variance: variance}
}

// Comparison is the outcome of one two-sample test. EffectSize is the raw
// relative difference (treatment-control)/control, not a standardized effect
// size; downstream thresholds were tuned against the relative form.
type Comparison struct {
	ControlValue   float64
	TreatmentValue float64
	EffectSize     float64
	PValue         float64
}

// Comparator compares a control and a treatment group on one metric.
type Comparator interface {
	CompareProportions(control, treatment Proportion) Comparison
	CompareMeans(control, treatment Sample) Comparison
}

// TwoSample is the default Comparator: a pooled two-proportion z-test for
// rates and Welch's t-test for continuous metrics.
type TwoSample struct{}

var _ Comparator = TwoSample{}

// CompareProportions runs a pooled two-proportion z-test. Degenerate inputs
// (no trials, zero pooled variance) report p=1 unless the rates genuinely
// differ with no sampling noise, which reports p=0.
func (TwoSample) CompareProportions(control, treatment Proportion) Comparison {
	cmp := Comparison{
		ControlValue:   control.Rate(),
		TreatmentValue: treatment.Rate(),
		EffectSize:     relativeDiff(control.Rate(), treatment.Rate()),
		PValue:         1,
	}
	if control.Trials == 0 || treatment.Trials == 0 {
		return cmp
	}

	n1 := float64(control.Trials)
	n2 := float64(treatment.Trials)
	pooled := float64(control.Successes+treatment.Successes) / (n1 + n2)
	se := math.Sqrt(pooled * (1 - pooled) * (1/n1 + 1/n2))
	if se == 0 {
		if cmp.ControlValue != cmp.TreatmentValue {
			cmp.PValue = 0
		}
		return cmp
	}

	z := (cmp.TreatmentValue - cmp.ControlValue) / se
	normal := distuv.Normal{Mu: 0, Sigma: 1}
	cmp.PValue = 2 * normal.CDF(-math.Abs(z))

	return cmp
}

// CompareMeans runs Welch's t-test with the Welch-Satterthwaite degrees of
// freedom. Groups with fewer than two observations cannot be tested and
// report p=1.
func (TwoSample) CompareMeans(control, treatment Sample) Comparison {
	cmp := Comparison{
		ControlValue:   control.Mean,
		TreatmentValue: treatment.Mean,
		EffectSize:     relativeDiff(control.Mean, treatment.Mean),
		PValue:         1,
	}
	if control.N < 2 || treatment.N < 2 {
		return cmp
	}

	v1 := control.Variance / float64(control.N)
	v2 := treatment.Variance / float64(treatment.N)
	se := math.Sqrt(v1 + v2)
	if se == 0 {
		if control.Mean != treatment.Mean {
			cmp.PValue = 0
		}
		return cmp
	}

	t := (treatment.Mean - control.Mean) / se
	df := (v1 + v2) * (v1 + v2) /
		(v1*v1/float64(control.N-1) + v2*v2/float64(treatment.N-1))

	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	cmp.PValue = 2 * dist.CDF(-math.Abs(t))

	return cmp
}

func relativeDiff(control, treatment float64) float64 {
	if control == 0 {
		if treatment == 0 {
			return 0
		}
		return 1
	}
	return (treatment - control) / control
}
