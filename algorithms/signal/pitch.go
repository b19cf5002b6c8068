package signal

import (
	"github.com/heartvoice/voicebio/logging"
)

// PitchContour is an ordered sequence of per-frame fundamental frequency
// estimates in Hz, one entry per analysis frame. A value of 0 marks an
// unvoiced or undetected frame; entries are never negative. Downstream
// analyzers must exclude zero entries from voiced statistics.
type PitchContour []float64

// Voiced returns only the voiced (nonzero) entries of the contour.
func (c PitchContour) Voiced() []float64 {
	voiced := make([]float64, 0, len(c))
	for _, f0 := range c {
		if f0 > 0 {
			voiced = append(voiced, f0)
		}
	}
	return voiced
}

// VoicedRatio returns the fraction of frames with detected pitch.
func (c PitchContour) VoicedRatio() float64 {
	if len(c) == 0 {
		return 0.0
	}
	voiced := 0
	for _, f0 := range c {
		if f0 > 0 {
			voiced++
		}
	}
	return float64(voiced) / float64(len(c))
}

// PitchTracker estimates a fundamental frequency contour using time-domain
// autocorrelation.
//
// References:
// - Rabiner, L.R. (1977). "On the use of autocorrelation analysis for pitch detection"
// - Boersma, P. (1993). "Accurate short-term analysis of the fundamental frequency"
//
// Each ~25ms frame is scanned over candidate periods corresponding to the
// configured frequency band; the lag maximizing the raw autocorrelation sum
// wins. No window function is applied (rectangular), a known limitation of
// this tracker that slightly widens autocorrelation peaks.
type PitchTracker struct {
	sampleRate int
	frameSize  int
	hopSize    int
	minFreq    float64
	maxFreq    float64
	logger     logging.Logger
}

// NewPitchTracker creates a pitch tracker for the human voice band (50-500 Hz)
// with 25ms frames and 50% hop.
func NewPitchTracker(sampleRate int) *PitchTracker {
	frameSize := sampleRate / 40 // 25ms
	return &PitchTracker{
		sampleRate: sampleRate,
		frameSize:  frameSize,
		hopSize:    frameSize / 2,
		minFreq:    50.0,
		maxFreq:    500.0,
		logger: logging.WithFields(logging.Fields{
			"component":   "pitch_tracker",
			"sample_rate": sampleRate,
		}),
	}
}

// Track computes the pitch contour of the signal. Empty or silent input
// yields an empty or all-zero contour; callers treat zero as unvoiced.
func (pt *PitchTracker) Track(samples []float64) PitchContour {
	if len(samples) < pt.frameSize {
		return PitchContour{}
	}

	numFrames := (len(samples)-pt.frameSize)/pt.hopSize + 1
	contour := make(PitchContour, 0, numFrames)

	for i := 0; i+pt.frameSize <= len(samples); i += pt.hopSize {
		frame := samples[i : i+pt.frameSize]
		contour = append(contour, pt.trackFrame(frame))
	}

	pt.logger.Debug("pitch tracking completed", logging.Fields{
		"frames":       len(contour),
		"voiced_ratio": contour.VoicedRatio(),
	})

	return contour
}

// trackFrame returns the frame F0 in Hz, or 0 when no candidate lag has
// positive correlation.
func (pt *PitchTracker) trackFrame(frame []float64) float64 {
	minLag := int(float64(pt.sampleRate) / pt.maxFreq)
	maxLag := int(float64(pt.sampleRate) / pt.minFreq)
	if maxLag >= len(frame) {
		maxLag = len(frame) - 1
	}
	if minLag < 1 {
		minLag = 1
	}

	bestLag := 0
	bestCorr := 0.0

	for lag := minLag; lag <= maxLag; lag++ {
		sum := 0.0
		for j := 0; j < len(frame)-lag; j++ {
			sum += frame[j] * frame[j+lag]
		}
		if sum > bestCorr {
			bestCorr = sum
			bestLag = lag
		}
	}

	if bestLag == 0 {
		return 0.0
	}

	return float64(pt.sampleRate) / float64(bestLag)
}

// FrameSize returns the analysis frame length in samples.
func (pt *PitchTracker) FrameSize() int {
	return pt.frameSize
}

// HopSize returns the analysis hop length in samples.
func (pt *PitchTracker) HopSize() int {
	return pt.hopSize
}
