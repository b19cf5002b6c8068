package signal

import (
	"math"

	"github.com/heartvoice/voicebio/algorithms/common"
)

// FrameRMS computes per-frame RMS energy over consecutive non-overlapping
// frames. A trailing partial frame is dropped. Silence yields low or zero
// values, never NaN.
func FrameRMS(samples []float64, frameSize int) []float64 {
	if frameSize <= 0 || len(samples) < frameSize {
		return []float64{}
	}

	numFrames := len(samples) / frameSize
	energies := make([]float64, numFrames)

	for i := 0; i < numFrames; i++ {
		frame := samples[i*frameSize : (i+1)*frameSize]
		energies[i] = common.RMS(frame)
	}

	return energies
}

// RMS computes whole-signal root mean square energy.
func RMS(samples []float64) float64 {
	return common.RMS(samples)
}

// ZCR computes the whole-signal zero-crossing rate as crossings per sample.
func ZCR(samples []float64) float64 {
	if len(samples) < 2 {
		return 0.0
	}

	crossings := 0
	for i := 1; i < len(samples); i++ {
		if (samples[i] > 0 && samples[i-1] <= 0) || (samples[i] <= 0 && samples[i-1] > 0) {
			crossings++
		}
	}

	return float64(crossings) / float64(len(samples)-1)
}

// DynamicRange computes the dB span between the strongest and weakest
// non-silent frames of the per-frame energy series.
func DynamicRange(frameEnergies []float64) float64 {
	maxE := 0.0
	minE := math.Inf(1)

	for _, e := range frameEnergies {
		if e <= 1e-10 {
			continue
		}
		if e > maxE {
			maxE = e
		}
		if e < minE {
			minE = e
		}
	}

	if maxE == 0 || math.IsInf(minE, 1) || minE == 0 {
		return 0.0
	}

	return 20.0 * math.Log10(maxE/minE)
}
