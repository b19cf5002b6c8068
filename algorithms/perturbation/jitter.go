// Package perturbation measures cycle-to-cycle irregularity of the voice:
// jitter (frequency perturbation) and shimmer (amplitude perturbation). Both
// are fractional measures: 0.01 means 1% average cycle deviation.
package perturbation

import (
	"math"

	"github.com/heartvoice/voicebio/algorithms/common"
	"github.com/heartvoice/voicebio/algorithms/signal"
)

// JitterResult contains frequency perturbation measures.
//
// References:
// - Farrús, M., Hernando, J. (2009). "Using jitter and shimmer in speaker verification"
// - Teixeira, J.P. et al. (2013). "Vocal acoustic analysis - jitter, shimmer and HNR parameters"
type JitterResult struct {
	Local float64 `json:"local"` // Mean absolute period difference / mean period
	RAP   float64 `json:"rap"`   // Relative average perturbation (3-point)
	PPQ5  float64 `json:"ppq5"`  // 5-point period perturbation quotient
}

// JitterAnalyzer computes jitter from a pitch contour.
type JitterAnalyzer struct{}

// NewJitterAnalyzer creates a jitter analyzer.
func NewJitterAnalyzer() *JitterAnalyzer {
	return &JitterAnalyzer{}
}

// Analyze converts voiced F0 estimates to periods and measures their
// cycle-to-cycle perturbation. Fewer than 2 voiced frames yields all zeros,
// never NaN or Inf.
func (ja *JitterAnalyzer) Analyze(contour signal.PitchContour) *JitterResult {
	periods := contourToPeriods(contour)

	return &JitterResult{
		Local: relativePerturbation(periods, 1),
		RAP:   relativePerturbation(periods, 3),
		PPQ5:  relativePerturbation(periods, 5),
	}
}

// contourToPeriods converts voiced F0 values (Hz) to pitch periods (seconds).
func contourToPeriods(contour signal.PitchContour) []float64 {
	voiced := contour.Voiced()
	periods := make([]float64, len(voiced))
	for i, f0 := range voiced {
		periods[i] = 1.0 / f0
	}
	return periods
}

// relativePerturbation computes the mean absolute deviation of each value
// from the moving average over window points, normalized by the overall mean.
// window 1 degenerates to the classic local measure (successive differences).
func relativePerturbation(values []float64, window int) float64 {
	if len(values) < 2 || len(values) < window {
		return 0.0
	}

	mean := common.Mean(values)
	if mean == 0 {
		return 0.0
	}

	if window <= 1 {
		sum := 0.0
		for i := 1; i < len(values); i++ {
			sum += math.Abs(values[i] - values[i-1])
		}
		return (sum / float64(len(values)-1)) / mean
	}

	half := window / 2
	sum := 0.0
	count := 0

	for i := half; i < len(values)-half; i++ {
		avg := 0.0
		for j := i - half; j <= i+half; j++ {
			avg += values[j]
		}
		avg /= float64(window)
		sum += math.Abs(values[i] - avg)
		count++
	}

	if count == 0 {
		return 0.0
	}

	return (sum / float64(count)) / mean
}
