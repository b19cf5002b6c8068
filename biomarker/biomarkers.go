// Package biomarker assembles the voice biomarker record used by the risk
// scoring and clinical alerting layers. One VoiceBiomarkers value is produced
// per call recording and treated as immutable once returned.
package biomarker

import (
	"github.com/heartvoice/voicebio/algorithms/perturbation"
	"github.com/heartvoice/voicebio/algorithms/prosody"
	"github.com/heartvoice/voicebio/algorithms/quality"
)

// F0Stats contains pitch statistics over the voiced portion of a recording.
type F0Stats struct {
	Mean    float64   `json:"mean"`  // Hz
	Std     float64   `json:"std"`   // Hz
	Range   float64   `json:"range"` // Hz, max - min of voiced frames
	Contour []float64 `json:"contour,omitempty"`
}

// EnergyStats contains whole-signal energy features.
type EnergyStats struct {
	RMS          float64 `json:"rms"`
	ZCR          float64 `json:"zcr"`
	DynamicRange float64 `json:"dynamic_range"` // dB
}

// VoiceBiomarkers is the canonical aggregate record of one recording's
// acoustic features. Jitter and shimmer are fractional (0.01 == 1%)
// throughout this module; clinical literature values quoted in percent are
// stored divided by 100.
type VoiceBiomarkers struct {
	F0          F0Stats                    `json:"f0"`
	Jitter      perturbation.JitterResult  `json:"jitter"`
	Shimmer     perturbation.ShimmerResult `json:"shimmer"`
	HNR         quality.HNRResult          `json:"hnr"`
	Spectral    quality.SpectralResult     `json:"spectral"`
	Formants    quality.FormantResult      `json:"formants"`
	Prosody     prosody.ProsodyResult      `json:"prosody"`
	Respiratory prosody.RespiratoryResult  `json:"respiratory"`
	Energy      EnergyStats                `json:"energy"`
}

// ZeroBiomarkers returns the sentinel record the ingestion layer substitutes
// when a recording cannot be analyzed at all. Paired with a risk score of 0.
func ZeroBiomarkers() *VoiceBiomarkers {
	return &VoiceBiomarkers{}
}
