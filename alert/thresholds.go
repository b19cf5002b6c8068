// Package alert evaluates voice biomarkers against clinical thresholds and
// manages the resulting alerts for clinician review.
package alert

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// JitterThresholds tier the fractional jitter measure.
type JitterThresholds struct {
	Normal       float64 `json:"normal" yaml:"normal"`
	Pathological float64 `json:"pathological" yaml:"pathological"`
}

// ShimmerThresholds tier the fractional shimmer measure.
type ShimmerThresholds struct {
	Normal       float64 `json:"normal" yaml:"normal"`
	Elevated     float64 `json:"elevated" yaml:"elevated"`
	Pathological float64 `json:"pathological" yaml:"pathological"`
}

// HNRThresholds tier the harmonics-to-noise ratio in dB.
type HNRThresholds struct {
	Healthy      float64 `json:"healthy" yaml:"healthy"`
	Low          float64 `json:"low" yaml:"low"`
	Pathological float64 `json:"pathological" yaml:"pathological"`
}

// F0Thresholds bound the expected adult speaking pitch in Hz.
type F0Thresholds struct {
	Min float64 `json:"min" yaml:"min"`
	Max float64 `json:"max" yaml:"max"`
}

// ProsodyThresholds bound speech pacing measures.
type ProsodyThresholds struct {
	MaxPauseRate     float64 `json:"max_pause_rate" yaml:"max_pause_rate"`         // pauses/min
	MaxPauseDuration float64 `json:"max_pause_duration" yaml:"max_pause_duration"` // seconds
	MinSpeechRate    float64 `json:"min_speech_rate" yaml:"min_speech_rate"`       // syllables/sec
}

// RespiratoryThresholds bound respiration-linked measures.
type RespiratoryThresholds struct {
	MaxBreathingRate float64 `json:"max_breathing_rate" yaml:"max_breathing_rate"` // breaths/min
	DyspneaScore     float64 `json:"dyspnea_score" yaml:"dyspnea_score"`           // 0-1
}

// RiskBands partition the canonical [0,1] composite risk score.
type RiskBands struct {
	Moderate float64 `json:"moderate" yaml:"moderate"`
	High     float64 `json:"high" yaml:"high"`
	Critical float64 `json:"critical" yaml:"critical"`
}

// ClinicalThresholds is the full cutoff configuration the alert engine reads
// on every evaluation. The engine owns the active copy; defaults apply on
// process start and are not persisted.
type ClinicalThresholds struct {
	Jitter      JitterThresholds      `json:"jitter" yaml:"jitter"`
	Shimmer     ShimmerThresholds     `json:"shimmer" yaml:"shimmer"`
	HNR         HNRThresholds         `json:"hnr" yaml:"hnr"`
	F0          F0Thresholds          `json:"f0" yaml:"f0"`
	Prosody     ProsodyThresholds     `json:"prosody" yaml:"prosody"`
	Respiratory RespiratoryThresholds `json:"respiratory" yaml:"respiratory"`
	Risk        RiskBands             `json:"risk" yaml:"risk"`
}

// DefaultThresholds returns the hard-coded clinical defaults. Jitter 1.04%
// and shimmer 3.8% are the usual perturbation normal limits; the 75-300 Hz
// F0 band covers adult speakers of both sexes.
func DefaultThresholds() ClinicalThresholds {
	return ClinicalThresholds{
		Jitter:  JitterThresholds{Normal: 0.0104, Pathological: 0.025},
		Shimmer: ShimmerThresholds{Normal: 0.038, Elevated: 0.065, Pathological: 0.10},
		HNR:     HNRThresholds{Healthy: 20.0, Low: 15.0, Pathological: 7.0},
		F0:      F0Thresholds{Min: 75.0, Max: 300.0},
		Prosody: ProsodyThresholds{
			MaxPauseRate:     10.0,
			MaxPauseDuration: 1.5,
			MinSpeechRate:    1.5,
		},
		Respiratory: RespiratoryThresholds{
			MaxBreathingRate: 24.0,
			DyspneaScore:     0.6,
		},
		Risk: RiskBands{Moderate: 0.5, High: 0.65, Critical: 0.80},
	}
}

// ThresholdPatch is a partial threshold update. A non-nil section replaces
// the corresponding section of the active thresholds WHOLESALE; fields
// omitted inside a provided section reset to that section's zero values.
// This shallow-merge-by-top-level-key semantic is a deliberate, tested
// contract: send complete sections.
type ThresholdPatch struct {
	Jitter      *JitterThresholds      `json:"jitter,omitempty" yaml:"jitter,omitempty"`
	Shimmer     *ShimmerThresholds     `json:"shimmer,omitempty" yaml:"shimmer,omitempty"`
	HNR         *HNRThresholds         `json:"hnr,omitempty" yaml:"hnr,omitempty"`
	F0          *F0Thresholds          `json:"f0,omitempty" yaml:"f0,omitempty"`
	Prosody     *ProsodyThresholds     `json:"prosody,omitempty" yaml:"prosody,omitempty"`
	Respiratory *RespiratoryThresholds `json:"respiratory,omitempty" yaml:"respiratory,omitempty"`
	Risk        *RiskBands             `json:"risk,omitempty" yaml:"risk,omitempty"`
}

// apply merges the patch onto t, section by section.
func (p *ThresholdPatch) apply(t *ClinicalThresholds) {
	if p.Jitter != nil {
		t.Jitter = *p.Jitter
	}
	if p.Shimmer != nil {
		t.Shimmer = *p.Shimmer
	}
	if p.HNR != nil {
		t.HNR = *p.HNR
	}
	if p.F0 != nil {
		t.F0 = *p.F0
	}
	if p.Prosody != nil {
		t.Prosody = *p.Prosody
	}
	if p.Respiratory != nil {
		t.Respiratory = *p.Respiratory
	}
	if p.Risk != nil {
		t.Risk = *p.Risk
	}
}

// LoadThresholds reads a YAML threshold file as a patch over the defaults,
// so deployments override only the sections they care about.
func LoadThresholds(path string) (ClinicalThresholds, error) {
	thresholds := DefaultThresholds()

	data, err := os.ReadFile(path)
	if err != nil {
		return thresholds, fmt.Errorf("reading threshold file: %w", err)
	}

	var patch ThresholdPatch
	if err := yaml.Unmarshal(data, &patch); err != nil {
		return thresholds, fmt.Errorf("parsing threshold file %s: %w", path, err)
	}

	patch.apply(&thresholds)
	return thresholds, nil
}
