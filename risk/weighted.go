// Package risk maps a VoiceBiomarkers record to clinical risk scores. Two
// deliberately distinct algorithms live here: WeightedCompositeRisk, the
// canonical [0,1] scorer, and RuleBasedPointRisk, a 0-100 bucketed point
// score used for per-question triage. They are not equivalent and are never
// merged; callers pick one and say which.
package risk

import (
	"github.com/heartvoice/voicebio/algorithms/common"
	"github.com/heartvoice/voicebio/biomarker"
)

// Clinical cutoffs for perturbation and voice-quality measures. Jitter and
// shimmer are fractional; the literature values of 1.04% / 3.81% map to
// 0.0104 / 0.0381.
const (
	JitterNormal       = 0.0104
	JitterPathological = 0.025

	ShimmerNormal       = 0.038
	ShimmerElevated     = 0.065
	ShimmerPathological = 0.10

	HNRHealthyDB      = 20.0
	HNRLowDB          = 15.0
	HNRPathologicalDB = 7.0
)

// Below this voiced ratio a recording carries no usable speech; deficit-style
// sub-scores (fatigue, cognitive load, emotional state) report neutral zero
// instead of maxing out on missing data.
const minUsableVoicedRatio = 0.05

// Sub-score weights. They sum to 1.0; the composite is still re-clamped to
// guarantee the [0,1] invariant against future weight edits.
const (
	weightFluidRetention = 0.30
	weightBreathlessness = 0.25
	weightFatigueLevel   = 0.20
	weightVocalEffort    = 0.15
	weightCognitiveLoad  = 0.05
	weightEmotionalState = 0.05
)

// Assessment contains the six clinical sub-scores and the weighted composite,
// all in [0,1]. It is a pure function of one VoiceBiomarkers record.
type Assessment struct {
	FluidRetention float64 `json:"fluid_retention"`
	Breathlessness float64 `json:"breathlessness"`
	FatigueLevel   float64 `json:"fatigue_level"`
	VocalEffort    float64 `json:"vocal_effort"`
	CognitiveLoad  float64 `json:"cognitive_load"`
	EmotionalState float64 `json:"emotional_state"`

	OverallRiskScore float64 `json:"overall_risk_score"`
}

// WeightedCompositeRisk is the canonical heart-failure risk scorer. Each
// sub-score is a clamped linear function of one to three biomarkers against
// the clinical cutoffs above; the composite is their weighted sum.
type WeightedCompositeRisk struct{}

// NewWeightedCompositeRisk creates the canonical scorer.
func NewWeightedCompositeRisk() *WeightedCompositeRisk {
	return &WeightedCompositeRisk{}
}

// Evaluate scores one biomarker record. Stateless and deterministic: the
// same record always yields the same assessment.
func (w *WeightedCompositeRisk) Evaluate(b *biomarker.VoiceBiomarkers) *Assessment {
	a := &Assessment{
		FluidRetention: w.fluidRetention(b),
		Breathlessness: w.breathlessness(b),
		FatigueLevel:   w.fatigueLevel(b),
		VocalEffort:    w.vocalEffort(b),
		CognitiveLoad:  w.cognitiveLoad(b),
		EmotionalState: w.emotionalState(b),
	}

	a.OverallRiskScore = common.ClampUnit(
		weightFluidRetention*a.FluidRetention +
			weightBreathlessness*a.Breathlessness +
			weightFatigueLevel*a.FatigueLevel +
			weightVocalEffort*a.VocalEffort +
			weightCognitiveLoad*a.CognitiveLoad +
			weightEmotionalState*a.EmotionalState)

	return a
}

// jitterSeverity scales jitter linearly from 0 at the normal cutoff to 1 at
// the pathological cutoff.
func jitterSeverity(local float64) float64 {
	return common.ClampUnit((local - JitterNormal) / (JitterPathological - JitterNormal))
}

func shimmerSeverity(local float64) float64 {
	return common.ClampUnit((local - ShimmerNormal) / (ShimmerPathological - ShimmerNormal))
}

// hnrDeficit scales from 0 at healthy HNR to 1 at the pathological floor.
func hnrDeficit(mean float64) float64 {
	if mean == 0 {
		// No voiced frames measured: neutral, not pathological
		return 0.0
	}
	return common.ClampUnit((HNRHealthyDB - mean) / (HNRHealthyDB - HNRPathologicalDB))
}

// fluidRetention: laryngeal edema roughens the voice (shimmer up, HNR down)
// and lowers the habitual pitch.
func (w *WeightedCompositeRisk) fluidRetention(b *biomarker.VoiceBiomarkers) float64 {
	f0Lowering := 0.0
	if b.F0.Mean > 0 {
		f0Lowering = common.ClampUnit((140.0 - b.F0.Mean) / 70.0)
	}

	return common.ClampUnit(
		0.4*shimmerSeverity(b.Shimmer.Local) +
			0.4*hnrDeficit(b.HNR.Mean) +
			0.2*f0Lowering)
}

// breathlessness: elevated breathing rate, dyspnea indicators, frequent
// pausing for breath.
func (w *WeightedCompositeRisk) breathlessness(b *biomarker.VoiceBiomarkers) float64 {
	rateScore := common.ClampUnit((b.Respiratory.BreathingRate - 16.0) / 14.0)
	pauseScore := common.ClampUnit(b.Prosody.PauseRate / 12.0)

	return common.ClampUnit(
		0.4*b.Respiratory.DyspneaIndicators +
			0.35*rateScore +
			0.25*pauseScore)
}

// fatigueLevel: slow, quiet, monotone speech.
func (w *WeightedCompositeRisk) fatigueLevel(b *biomarker.VoiceBiomarkers) float64 {
	if b.Prosody.VoicedRatio < minUsableVoicedRatio {
		return 0.0
	}

	speechRateDeficit := common.ClampUnit((3.0 - b.Prosody.SpeechRate) / 3.0)
	energyDeficit := common.ClampUnit((0.05 - b.Energy.RMS) / 0.05)
	rangeDeficit := common.ClampUnit((40.0 - b.F0.Range) / 40.0)

	return common.ClampUnit(0.4*speechRateDeficit + 0.3*energyDeficit + 0.3*rangeDeficit)
}

// vocalEffort: perturbation-driven strain. Monotone nondecreasing in
// Jitter.Local by construction.
func (w *WeightedCompositeRisk) vocalEffort(b *biomarker.VoiceBiomarkers) float64 {
	return common.ClampUnit(
		0.5*jitterSeverity(b.Jitter.Local) +
			0.3*shimmerSeverity(b.Shimmer.Local) +
			0.2*hnrDeficit(b.HNR.Mean))
}

// cognitiveLoad: long word-finding pauses and slowed delivery.
func (w *WeightedCompositeRisk) cognitiveLoad(b *biomarker.VoiceBiomarkers) float64 {
	if b.Prosody.VoicedRatio < minUsableVoicedRatio {
		return 0.0
	}

	pauseDurScore := common.ClampUnit((b.Prosody.PauseDuration - 0.5) / 1.5)
	speechRateDeficit := common.ClampUnit((3.0 - b.Prosody.SpeechRate) / 3.0)

	return common.ClampUnit(0.6*pauseDurScore + 0.4*speechRateDeficit)
}

// emotionalState: flat affect (collapsed pitch variability) or agitation
// (excessive variability), whichever dominates.
func (w *WeightedCompositeRisk) emotionalState(b *biomarker.VoiceBiomarkers) float64 {
	if b.Prosody.VoicedRatio < minUsableVoicedRatio {
		return 0.0
	}

	flatAffect := common.ClampUnit((10.0 - b.F0.Std) / 10.0)
	agitation := common.ClampUnit((b.F0.Std - 45.0) / 45.0)

	if flatAffect > agitation {
		return flatAffect
	}
	return agitation
}
