package quality

import (
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"

	"github.com/heartvoice/voicebio/algorithms/common"
	"github.com/heartvoice/voicebio/logging"
)

// SpectralResult contains spectral shape statistics averaged across frames.
type SpectralResult struct {
	Centroid float64 `json:"centroid"` // Energy-weighted mean frequency (Hz)
	Rolloff  float64 `json:"rolloff"`  // Frequency below which 85% of energy lies (Hz)
	Flux     float64 `json:"flux"`     // Mean frame-to-frame positive spectral change
	Slope    float64 `json:"slope"`    // Log-log regression slope of the magnitude spectrum
	Spread   float64 `json:"spread"`   // Energy-weighted std dev around the centroid (Hz)
}

// SpectralAnalyzer computes framed spectral shape features over a Hann-windowed
// STFT. The FFT comes from mjibson/go-dsp, which handles arbitrary frame sizes.
type SpectralAnalyzer struct {
	sampleRate int
	windowSize int
	hopSize    int
	window     []float64
	rolloffPct float64
	logger     logging.Logger
}

// NewSpectralAnalyzer creates a spectral analyzer with a 512-sample window
// and 50% overlap.
func NewSpectralAnalyzer(sampleRate int) *SpectralAnalyzer {
	windowSize := 512
	window := make([]float64, windowSize)
	for i := range window {
		window[i] = 0.5 * (1.0 - math.Cos(2.0*math.Pi*float64(i)/float64(windowSize-1)))
	}

	return &SpectralAnalyzer{
		sampleRate: sampleRate,
		windowSize: windowSize,
		hopSize:    windowSize / 2,
		window:     window,
		rolloffPct: 0.85,
		logger: logging.WithFields(logging.Fields{
			"component":   "spectral_analyzer",
			"sample_rate": sampleRate,
		}),
	}
}

// Analyze computes spectral features for every frame and averages them.
// Flux is a true frame-to-frame measure: it compares each magnitude spectrum
// against the previous frame's, so a single-frame signal reports zero flux.
// Empty or too-short input yields a zero result.
func (sa *SpectralAnalyzer) Analyze(samples []float64) *SpectralResult {
	if len(samples) < sa.windowSize {
		return &SpectralResult{}
	}

	var centroids, rolloffs, slopes, spreads, fluxes []float64
	var prevMagnitude []float64

	frameBuffer := make([]float64, sa.windowSize)

	for i := 0; i+sa.windowSize <= len(samples); i += sa.hopSize {
		copy(frameBuffer, samples[i:i+sa.windowSize])
		for j := range frameBuffer {
			frameBuffer[j] *= sa.window[j]
		}

		magnitude := sa.magnitudeSpectrum(frameBuffer)

		energy := 0.0
		for _, m := range magnitude {
			energy += m * m
		}
		if energy < 1e-12 {
			// Silent frame: contributes nothing to the shape statistics
			prevMagnitude = nil
			continue
		}

		centroid := sa.centroid(magnitude)
		centroids = append(centroids, centroid)
		rolloffs = append(rolloffs, sa.rolloff(magnitude))
		slopes = append(slopes, sa.slope(magnitude))
		spreads = append(spreads, sa.spread(magnitude, centroid))

		if prevMagnitude != nil {
			fluxes = append(fluxes, sa.flux(magnitude, prevMagnitude))
		}
		prevMagnitude = magnitude
	}

	sa.logger.Debug("spectral analysis completed", logging.Fields{
		"voiced_frames": len(centroids),
		"flux_frames":   len(fluxes),
	})

	return &SpectralResult{
		Centroid: common.Mean(centroids),
		Rolloff:  common.Mean(rolloffs),
		Flux:     common.Mean(fluxes),
		Slope:    common.Mean(slopes),
		Spread:   common.Mean(spreads),
	}
}

// magnitudeSpectrum returns the positive-frequency magnitude spectrum.
func (sa *SpectralAnalyzer) magnitudeSpectrum(frame []float64) []float64 {
	spectrum := fft.FFTReal(frame)
	bins := len(spectrum)/2 + 1

	magnitude := make([]float64, bins)
	for i := 0; i < bins; i++ {
		magnitude[i] = cmplx.Abs(spectrum[i])
	}
	return magnitude
}

// binFreq converts a bin index to Hz.
func (sa *SpectralAnalyzer) binFreq(bin int) float64 {
	return float64(bin) * float64(sa.sampleRate) / float64(sa.windowSize)
}

func (sa *SpectralAnalyzer) centroid(magnitude []float64) float64 {
	numerator := 0.0
	denominator := 0.0
	for i, m := range magnitude {
		numerator += sa.binFreq(i) * m
		denominator += m
	}
	if denominator == 0 {
		return 0.0
	}
	return numerator / denominator
}

func (sa *SpectralAnalyzer) rolloff(magnitude []float64) float64 {
	totalEnergy := 0.0
	for _, m := range magnitude {
		totalEnergy += m * m
	}
	if totalEnergy == 0 {
		return 0.0
	}

	target := sa.rolloffPct * totalEnergy
	cumulative := 0.0
	for i, m := range magnitude {
		cumulative += m * m
		if cumulative >= target {
			return sa.binFreq(i)
		}
	}
	return sa.binFreq(len(magnitude) - 1)
}

// flux sums positive magnitude increases between consecutive frames.
func (sa *SpectralAnalyzer) flux(magnitude, previous []float64) float64 {
	sum := 0.0
	for i := range magnitude {
		diff := magnitude[i] - previous[i]
		if diff > 0 {
			sum += diff * diff
		}
	}
	return math.Sqrt(sum)
}

// slope fits log magnitude against log frequency; a steeply negative slope
// indicates weak high-frequency energy.
func (sa *SpectralAnalyzer) slope(magnitude []float64) float64 {
	var x, y []float64
	for i := 1; i < len(magnitude); i++ {
		if magnitude[i] > 1e-10 {
			x = append(x, math.Log10(sa.binFreq(i)))
			y = append(y, math.Log10(magnitude[i]))
		}
	}

	beta, _ := common.LinRegression(x, y)
	return beta
}

func (sa *SpectralAnalyzer) spread(magnitude []float64, centroid float64) float64 {
	numerator := 0.0
	denominator := 0.0
	for i, m := range magnitude {
		diff := sa.binFreq(i) - centroid
		numerator += diff * diff * m
		denominator += m
	}
	if denominator == 0 {
		return 0.0
	}
	return math.Sqrt(numerator / denominator)
}
