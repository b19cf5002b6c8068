// Package prosody analyzes the rhythm and pacing of speech along with
// respiration-linked characteristics of the recording.
package prosody

import (
	"github.com/heartvoice/voicebio/algorithms/common"
	"github.com/heartvoice/voicebio/algorithms/signal"
	"github.com/heartvoice/voicebio/logging"
)

// Frames below this RMS energy are treated as non-speech.
const voicedEnergyThreshold = 0.001

// ProsodyResult contains speech pacing measures.
type ProsodyResult struct {
	SpeechRate    float64 `json:"speech_rate"`    // Syllable-rate estimate (per second)
	PauseRate     float64 `json:"pause_rate"`     // Pauses per minute
	PauseDuration float64 `json:"pause_duration"` // Mean pause length (seconds)
	VoicedRatio   float64 `json:"voiced_ratio"`   // Fraction of frames above the energy threshold
}

// ProsodyAnalyzer measures speech rate and pause structure from the
// short-time energy series. Pauses are runs of sub-threshold frames lasting
// at least minPauseSec; the syllable-rate estimate counts energy-envelope
// peaks, which approximates syllable nuclei well enough for trend tracking.
type ProsodyAnalyzer struct {
	sampleRate  int
	frameSize   int
	minPauseSec float64
	logger      logging.Logger
}

// NewProsodyAnalyzer creates a prosody analyzer using 25ms non-overlapping
// energy frames.
func NewProsodyAnalyzer(sampleRate int) *ProsodyAnalyzer {
	return &ProsodyAnalyzer{
		sampleRate:  sampleRate,
		frameSize:   sampleRate / 40,
		minPauseSec: 0.3,
		logger: logging.WithFields(logging.Fields{
			"component":   "prosody_analyzer",
			"sample_rate": sampleRate,
		}),
	}
}

// Analyze computes prosody measures. Silent or empty input yields zeros.
func (pa *ProsodyAnalyzer) Analyze(samples []float64) *ProsodyResult {
	energies := signal.FrameRMS(samples, pa.frameSize)
	if len(energies) == 0 {
		return &ProsodyResult{}
	}

	frameDur := float64(pa.frameSize) / float64(pa.sampleRate)
	totalDur := float64(len(energies)) * frameDur

	voiced := 0
	for _, e := range energies {
		if e > voicedEnergyThreshold {
			voiced++
		}
	}
	voicedRatio := float64(voiced) / float64(len(energies))

	pauses := pa.detectPauses(energies, frameDur)

	pauseRate := 0.0
	pauseDuration := 0.0
	if totalDur > 0 {
		pauseRate = float64(len(pauses)) / totalDur * 60.0
	}
	if len(pauses) > 0 {
		pauseDuration = common.Mean(pauses)
	}

	result := &ProsodyResult{
		SpeechRate:    pa.estimateSpeechRate(energies, totalDur),
		PauseRate:     pauseRate,
		PauseDuration: pauseDuration,
		VoicedRatio:   voicedRatio,
	}

	pa.logger.Debug("prosody analysis completed", logging.Fields{
		"voiced_ratio": result.VoicedRatio,
		"pauses":       len(pauses),
		"speech_rate":  result.SpeechRate,
	})

	return result
}

// detectPauses groups consecutive sub-threshold frames into pause segments
// and returns their durations in seconds. Leading and trailing silence count
// as pauses only when they meet the minimum duration.
func (pa *ProsodyAnalyzer) detectPauses(energies []float64, frameDur float64) []float64 {
	minFrames := int(pa.minPauseSec / frameDur)
	if minFrames < 1 {
		minFrames = 1
	}

	var pauses []float64
	runStart := -1

	for i, e := range energies {
		if e <= voicedEnergyThreshold {
			if runStart == -1 {
				runStart = i
			}
			continue
		}
		if runStart != -1 {
			if run := i - runStart; run >= minFrames {
				pauses = append(pauses, float64(run)*frameDur)
			}
			runStart = -1
		}
	}

	if runStart != -1 {
		if run := len(energies) - runStart; run >= minFrames {
			pauses = append(pauses, float64(run)*frameDur)
		}
	}

	return pauses
}

// estimateSpeechRate counts envelope peaks as syllable nuclei. Peaks must
// exceed half the mean voiced energy and be at least 100ms apart.
func (pa *ProsodyAnalyzer) estimateSpeechRate(energies []float64, totalDur float64) float64 {
	if totalDur <= 0 {
		return 0.0
	}

	var voicedEnergies []float64
	for _, e := range energies {
		if e > voicedEnergyThreshold {
			voicedEnergies = append(voicedEnergies, e)
		}
	}
	if len(voicedEnergies) == 0 {
		return 0.0
	}

	minHeight := common.Mean(voicedEnergies) * 0.5
	minDistance := 4 // frames, 100ms at 25ms/frame

	peaks := common.FindPeaks(energies, minHeight, minDistance)
	return float64(len(peaks)) / totalDur
}
