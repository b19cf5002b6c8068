package perturbation

import (
	"math"
	"testing"

	"github.com/heartvoice/voicebio/algorithms/signal"
)

func TestJitterConstantContour(t *testing.T) {
	t.Parallel()

	contour := make(signal.PitchContour, 50)
	for i := range contour {
		contour[i] = 150.0
	}

	result := NewJitterAnalyzer().Analyze(contour)
	if result.Local != 0 || result.RAP != 0 || result.PPQ5 != 0 {
		t.Errorf("jitter of perfectly steady voice = %+v, want all zero", result)
	}
}

func TestJitterTooFewVoicedFrames(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		contour signal.PitchContour
	}{
		{name: "empty", contour: signal.PitchContour{}},
		{name: "all unvoiced", contour: signal.PitchContour{0, 0, 0, 0}},
		{name: "one voiced", contour: signal.PitchContour{0, 150, 0}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			result := NewJitterAnalyzer().Analyze(tt.contour)
			if result.Local != 0 || result.RAP != 0 || result.PPQ5 != 0 {
				t.Errorf("jitter = %+v, want all zero", result)
			}
		})
	}
}

func TestJitterIncreasesWithPerturbation(t *testing.T) {
	t.Parallel()

	steady := make(signal.PitchContour, 40)
	wobbly := make(signal.PitchContour, 40)
	for i := range steady {
		steady[i] = 150.0 + 0.5*float64(i%2)
		wobbly[i] = 150.0 + 8.0*float64(i%2)
	}

	analyzer := NewJitterAnalyzer()
	low := analyzer.Analyze(steady)
	high := analyzer.Analyze(wobbly)

	if high.Local <= low.Local {
		t.Errorf("jitter local: wobbly %v <= steady %v", high.Local, low.Local)
	}
	if high.RAP <= low.RAP {
		t.Errorf("jitter RAP: wobbly %v <= steady %v", high.RAP, low.RAP)
	}
}

func TestJitterNeverNaN(t *testing.T) {
	t.Parallel()

	contour := signal.PitchContour{0, 110, 0, 0, 95, 480, 52, 0, 330}
	result := NewJitterAnalyzer().Analyze(contour)

	for name, v := range map[string]float64{"Local": result.Local, "RAP": result.RAP, "PPQ5": result.PPQ5} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Errorf("jitter %s = %v, want finite", name, v)
		}
	}
}

func TestShimmerConstantAmplitudes(t *testing.T) {
	t.Parallel()

	amplitudes := make([]float64, 50)
	for i := range amplitudes {
		amplitudes[i] = 0.3
	}

	result := NewShimmerAnalyzer().Analyze(amplitudes)
	if result.Local != 0 || result.APQ3 != 0 || result.APQ5 != 0 {
		t.Errorf("shimmer of constant amplitudes = %+v, want all zero", result)
	}
}

func TestShimmerIgnoresSilentFrames(t *testing.T) {
	t.Parallel()

	// Silence interleaved with constant voiced frames must not register as
	// amplitude perturbation.
	amplitudes := []float64{0.3, 0, 0.3, 0, 0.3, 0, 0.3}

	result := NewShimmerAnalyzer().Analyze(amplitudes)
	if result.Local != 0 {
		t.Errorf("shimmer local = %v, want 0 after excluding silent frames", result.Local)
	}
}

func TestShimmerIncreasesWithPerturbation(t *testing.T) {
	t.Parallel()

	steady := make([]float64, 40)
	varying := make([]float64, 40)
	for i := range steady {
		steady[i] = 0.3
		varying[i] = 0.3 + 0.1*float64(i%2)
	}

	analyzer := NewShimmerAnalyzer()
	if low, high := analyzer.Analyze(steady), analyzer.Analyze(varying); high.Local <= low.Local {
		t.Errorf("shimmer local: varying %v <= steady %v", high.Local, low.Local)
	}
}

func TestShimmerAllSilent(t *testing.T) {
	t.Parallel()

	result := NewShimmerAnalyzer().Analyze(make([]float64, 20))
	if result.Local != 0 || result.APQ3 != 0 || result.APQ5 != 0 {
		t.Errorf("shimmer of silence = %+v, want all zero", result)
	}
}
