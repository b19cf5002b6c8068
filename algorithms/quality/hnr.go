// Package quality analyzes voice quality: harmonics-to-noise ratio, spectral
// shape, and LPC-based formant structure.
package quality

import (
	"math"

	"github.com/heartvoice/voicebio/algorithms/common"
	"github.com/heartvoice/voicebio/algorithms/signal"
)

// HNR estimates below this floor or above this ceiling are treated as
// analysis artifacts and excluded from the aggregate statistics.
const (
	hnrFloorDB   = -10.0
	hnrCeilingDB = 40.0
)

// HNRResult contains harmonics-to-noise ratio statistics in dB across voiced
// frames. Lower values indicate a breathier, noisier voice.
type HNRResult struct {
	Mean float64 `json:"mean"`
	Std  float64 `json:"std"`
}

// HNRAnalyzer computes per-frame autocorrelation-based HNR.
//
// Reference:
// - Boersma, P. (1993). "Accurate short-term analysis of the fundamental
//   frequency and the harmonics-to-noise ratio of a sampled sound"
type HNRAnalyzer struct {
	sampleRate int
	frameSize  int
	hopSize    int
}

// NewHNRAnalyzer creates an HNR analyzer with the same 25ms/50% framing the
// pitch tracker uses, so contour entries align with analysis frames.
func NewHNRAnalyzer(sampleRate int) *HNRAnalyzer {
	frameSize := sampleRate / 40
	return &HNRAnalyzer{
		sampleRate: sampleRate,
		frameSize:  frameSize,
		hopSize:    frameSize / 2,
	}
}

// Analyze computes HNR statistics over the voiced frames identified by the
// contour. Unvoiced frames and out-of-range estimates are excluded; an input
// with no usable frames yields {0, 0}.
func (ha *HNRAnalyzer) Analyze(samples []float64, contour signal.PitchContour) *HNRResult {
	var values []float64

	frameIdx := 0
	for i := 0; i+ha.frameSize <= len(samples) && frameIdx < len(contour); i += ha.hopSize {
		f0 := contour[frameIdx]
		frameIdx++
		if f0 <= 0 {
			continue
		}

		hnr, ok := ha.frameHNR(samples[i:i+ha.frameSize], f0)
		if !ok || hnr < hnrFloorDB || hnr > hnrCeilingDB {
			continue
		}
		values = append(values, hnr)
	}

	if len(values) == 0 {
		return &HNRResult{}
	}

	return &HNRResult{
		Mean: common.Mean(values),
		Std:  common.StandardDeviation(values),
	}
}

// frameHNR estimates harmonicity from the normalized autocorrelation peak at
// the pitch period: HNR = 10*log10(r / (1 - r)).
func (ha *HNRAnalyzer) frameHNR(frame []float64, f0 float64) (float64, bool) {
	r0 := 0.0
	for _, s := range frame {
		r0 += s * s
	}
	if r0 == 0 {
		return 0, false
	}

	expectedLag := int(float64(ha.sampleRate) / f0)
	if expectedLag < 1 || expectedLag >= len(frame) {
		return 0, false
	}

	// Search +/-25% around the expected lag for the harmonic peak.
	searchRange := expectedLag / 4
	startLag := expectedLag - searchRange
	if startLag < 1 {
		startLag = 1
	}
	endLag := expectedLag + searchRange
	if endLag >= len(frame) {
		endLag = len(frame) - 1
	}

	maxCorr := 0.0
	for lag := startLag; lag <= endLag; lag++ {
		sum := 0.0
		for j := 0; j < len(frame)-lag; j++ {
			sum += frame[j] * frame[j+lag]
		}
		// Normalize for the shrinking overlap at higher lags
		corr := sum / float64(len(frame)-lag) * float64(len(frame)) / r0
		if corr > maxCorr {
			maxCorr = corr
		}
	}

	if maxCorr <= 0 || maxCorr >= 1 {
		return 0, false
	}

	return 10.0 * math.Log10(maxCorr/(1.0-maxCorr)), true
}
