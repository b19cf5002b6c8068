package quality

import (
	"math"
	"math/cmplx"

	"github.com/heartvoice/voicebio/algorithms/common"
	"github.com/heartvoice/voicebio/algorithms/signal"
)

// FormantStats holds mean and standard deviation of one formant track.
type FormantStats struct {
	Mean float64 `json:"mean"`
	Std  float64 `json:"std"`
}

// FormantResult contains the first three vocal tract resonances. Values are
// derived from per-frame LPC analysis, not fixed vowel-chart constants.
type FormantResult struct {
	F1 FormantStats `json:"f1"`
	F2 FormantStats `json:"f2"`
	F3 FormantStats `json:"f3"`
}

// FormantAnalyzer estimates formant frequencies via Linear Predictive Coding.
// LPC models the vocal tract as an all-pole filter; peaks of the LPC spectral
// envelope correspond to formants.
//
// References:
// - Makhoul, J. (1975). "Linear prediction: A tutorial review"
// - Snell, R.C., Milinazzo, F. (1993). "Formant location from LPC analysis data"
type FormantAnalyzer struct {
	sampleRate int
	order      int
	frameSize  int
	hopSize    int
	window     []float64
}

// NewFormantAnalyzer creates a formant analyzer with the standard speech LPC
// order of 12 + fs/1000.
func NewFormantAnalyzer(sampleRate int) *FormantAnalyzer {
	frameSize := sampleRate / 40 // align with pitch frames
	window := make([]float64, frameSize)
	for i := range window {
		window[i] = 0.5 * (1.0 - math.Cos(2.0*math.Pi*float64(i)/float64(frameSize-1)))
	}

	return &FormantAnalyzer{
		sampleRate: sampleRate,
		order:      12 + sampleRate/1000,
		frameSize:  frameSize,
		hopSize:    frameSize / 2,
		window:     window,
	}
}

// Analyze estimates F1-F3 across the voiced frames identified by the contour.
// Frames where LPC fails or yields fewer than three envelope peaks are
// skipped; no usable frames yields a zero result.
func (fa *FormantAnalyzer) Analyze(samples []float64, contour signal.PitchContour) *FormantResult {
	var f1s, f2s, f3s []float64

	frameBuffer := make([]float64, fa.frameSize)

	frameIdx := 0
	for i := 0; i+fa.frameSize <= len(samples) && frameIdx < len(contour); i += fa.hopSize {
		f0 := contour[frameIdx]
		frameIdx++
		if f0 <= 0 {
			continue
		}

		copy(frameBuffer, samples[i:i+fa.frameSize])

		// Pre-emphasis flattens the glottal spectral tilt before windowing
		for j := len(frameBuffer) - 1; j >= 1; j-- {
			frameBuffer[j] -= 0.97 * frameBuffer[j-1]
		}
		for j := range frameBuffer {
			frameBuffer[j] *= fa.window[j]
		}

		coeffs, ok := fa.lpcCoefficients(frameBuffer)
		if !ok {
			continue
		}

		formants := fa.envelopePeaks(coeffs)
		if len(formants) < 3 {
			continue
		}

		f1s = append(f1s, formants[0])
		f2s = append(f2s, formants[1])
		f3s = append(f3s, formants[2])
	}

	return &FormantResult{
		F1: FormantStats{Mean: common.Mean(f1s), Std: common.StandardDeviation(f1s)},
		F2: FormantStats{Mean: common.Mean(f2s), Std: common.StandardDeviation(f2s)},
		F3: FormantStats{Mean: common.Mean(f3s), Std: common.StandardDeviation(f3s)},
	}
}

// lpcCoefficients computes LPC coefficients via Levinson-Durbin recursion
// over the frame autocorrelation sequence.
func (fa *FormantAnalyzer) lpcCoefficients(frame []float64) ([]float64, bool) {
	p := fa.order
	if len(frame) < p*2 {
		return nil, false
	}

	R := make([]float64, p+1)
	for lag := 0; lag <= p; lag++ {
		sum := 0.0
		for j := 0; j < len(frame)-lag; j++ {
			sum += frame[j] * frame[j+lag]
		}
		R[lag] = sum
	}

	if R[0] == 0 {
		return nil, false
	}

	a := make([]float64, p+1)
	a[0] = 1.0
	E := R[0]

	for i := 1; i <= p; i++ {
		numerator := R[i]
		for j := 1; j < i; j++ {
			numerator -= a[j] * R[i-j]
		}

		if E == 0 {
			return nil, false
		}

		k := numerator / E
		a[i] = k
		for j := 1; j <= i/2; j++ {
			tmp := a[j] - k*a[i-j]
			a[i-j] = a[i-j] - k*a[j]
			a[j] = tmp
		}

		E *= 1 - k*k
		if E <= 0 {
			return nil, false
		}
	}

	return a, true
}

// envelopePeaks evaluates the LPC envelope 1/|A(e^jw)| over a frequency grid
// and returns peak frequencies in the 90-4000 Hz formant band, ascending.
func (fa *FormantAnalyzer) envelopePeaks(coeffs []float64) []float64 {
	const gridSize = 256

	nyquist := float64(fa.sampleRate) / 2.0
	envelope := make([]float64, gridSize)

	for g := 0; g < gridSize; g++ {
		omega := math.Pi * float64(g) / float64(gridSize)

		// A(e^jw) = 1 - sum a_k e^{-jkw}; a[0]=1 and the predictor
		// coefficients carry positive sign in a[1..p].
		A := complex(1, 0)
		for k := 1; k < len(coeffs); k++ {
			A -= complex(coeffs[k], 0) * cmplx.Exp(complex(0, -omega*float64(k)))
		}

		mag := cmplx.Abs(A)
		if mag < 1e-10 {
			mag = 1e-10
		}
		envelope[g] = 1.0 / mag
	}

	peakBins := common.FindPeaks(envelope, 0, 2)

	var formants []float64
	for _, bin := range peakBins {
		freq := float64(bin) / float64(gridSize) * nyquist
		if freq >= 90 && freq <= 4000 {
			formants = append(formants, freq)
		}
	}

	return formants
}
