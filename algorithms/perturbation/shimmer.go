package perturbation

// ShimmerResult contains amplitude perturbation measures.
type ShimmerResult struct {
	Local float64 `json:"local"` // Mean absolute amplitude difference / mean amplitude
	APQ3  float64 `json:"apq3"`  // 3-point amplitude perturbation quotient
	APQ5  float64 `json:"apq5"`  // 5-point amplitude perturbation quotient
}

// ShimmerAnalyzer computes shimmer from a per-frame amplitude series.
type ShimmerAnalyzer struct{}

// NewShimmerAnalyzer creates a shimmer analyzer.
func NewShimmerAnalyzer() *ShimmerAnalyzer {
	return &ShimmerAnalyzer{}
}

// Analyze measures cycle-to-cycle amplitude perturbation over the voiced
// portion of the amplitude series. Frames with negligible energy are treated
// as unvoiced and excluded. Fewer than 2 voiced frames yields all zeros.
func (sa *ShimmerAnalyzer) Analyze(amplitudes []float64) *ShimmerResult {
	voiced := make([]float64, 0, len(amplitudes))
	for _, a := range amplitudes {
		if a > 1e-6 {
			voiced = append(voiced, a)
		}
	}

	return &ShimmerResult{
		Local: relativePerturbation(voiced, 1),
		APQ3:  relativePerturbation(voiced, 3),
		APQ5:  relativePerturbation(voiced, 5),
	}
}
