package prosody

import (
	"math"

	"github.com/heartvoice/voicebio/algorithms/common"
	"github.com/heartvoice/voicebio/algorithms/signal"
)

// Plausible adult breathing band used when searching the envelope for a
// respiratory cycle, in breaths per minute.
const (
	minBreathsPerMin = 8.0
	maxBreathsPerMin = 30.0

	// Resting default reported when the recording is too short or too
	// irregular to expose a breathing cycle.
	defaultBreathsPerMin = 16.0
)

// RespiratoryResult contains respiration-linked measures derived from the
// speech signal.
type RespiratoryResult struct {
	BreathingRate     float64 `json:"breathing_rate"`     // Breaths per minute
	InspiratoryTime   float64 `json:"inspiratory_time"`   // Estimated inhale phase (seconds)
	ExpiratoryTime    float64 `json:"expiratory_time"`    // Estimated exhale phase (seconds)
	DyspneaIndicators float64 `json:"dyspnea_indicators"` // Breathing-effort score in [0, 1]
}

// RespiratoryAnalyzer estimates breathing rate from the periodicity of the
// low-rate energy envelope and scores dyspnea from low-frequency signal
// energy combined with pause frequency. Phone-call speech only weakly
// encodes respiration, so these are trend indicators, not vital signs.
type RespiratoryAnalyzer struct {
	sampleRate int
	frameSize  int
}

// NewRespiratoryAnalyzer creates a respiratory analyzer.
func NewRespiratoryAnalyzer(sampleRate int) *RespiratoryAnalyzer {
	return &RespiratoryAnalyzer{
		sampleRate: sampleRate,
		frameSize:  sampleRate / 40,
	}
}

// Analyze computes respiratory measures. Short or silent input falls back to
// the resting-rate default with a zero dyspnea score.
func (ra *RespiratoryAnalyzer) Analyze(samples []float64, prosody *ProsodyResult) *RespiratoryResult {
	envelope := signal.FrameRMS(samples, ra.frameSize)

	rate := ra.estimateBreathingRate(envelope)

	// Split the breathing period with a typical resting I:E ratio of 1:1.5
	period := 60.0 / rate
	result := &RespiratoryResult{
		BreathingRate:   rate,
		InspiratoryTime: period * 0.4,
		ExpiratoryTime:  period * 0.6,
	}

	if len(samples) > 0 {
		result.DyspneaIndicators = ra.dyspneaScore(samples, prosody)
	}

	return result
}

// estimateBreathingRate autocorrelates the mean-removed energy envelope and
// looks for a peak inside the breathing band.
func (ra *RespiratoryAnalyzer) estimateBreathingRate(envelope []float64) float64 {
	frameRate := float64(ra.sampleRate) / float64(ra.frameSize)

	minLag := int(60.0 / maxBreathsPerMin * frameRate)
	maxLag := int(60.0 / minBreathsPerMin * frameRate)

	// Need at least two full cycles of the slowest plausible breath
	if len(envelope) < maxLag*2 || minLag < 1 {
		return defaultBreathsPerMin
	}

	mean := common.Mean(envelope)
	centered := make([]float64, len(envelope))
	for i, e := range envelope {
		centered[i] = e - mean
	}

	r0 := 0.0
	for _, c := range centered {
		r0 += c * c
	}
	if r0 == 0 {
		return defaultBreathsPerMin
	}

	bestLag := 0
	bestCorr := 0.0
	for lag := minLag; lag <= maxLag; lag++ {
		sum := 0.0
		for j := 0; j < len(centered)-lag; j++ {
			sum += centered[j] * centered[j+lag]
		}
		corr := sum / r0
		if corr > bestCorr {
			bestCorr = corr
			bestLag = lag
		}
	}

	// Weak periodicity means the envelope is dominated by speech, not breath
	if bestLag == 0 || bestCorr < 0.2 {
		return defaultBreathsPerMin
	}

	return 60.0 * frameRate / float64(bestLag)
}

// dyspneaScore combines the low-frequency energy heuristic with pause
// frequency: labored breathing shows up as near-DC energy between words and
// as frequent pausing for breath.
func (ra *RespiratoryAnalyzer) dyspneaScore(samples []float64, prosody *ProsodyResult) float64 {
	lowFreqEnergy := 0.0
	for i := 1; i < len(samples); i++ {
		if math.Abs(samples[i]-samples[i-1]) < 0.005 {
			lowFreqEnergy += samples[i] * samples[i]
		}
	}
	energyScore := common.ClampUnit(lowFreqEnergy / (0.1 * float64(len(samples))))

	pauseScore := 0.0
	if prosody != nil {
		// 12+ pauses per minute reads as maximal breathing effort
		pauseScore = common.ClampUnit(prosody.PauseRate / 12.0)
	}

	return common.ClampUnit(0.6*energyScore + 0.4*pauseScore)
}
