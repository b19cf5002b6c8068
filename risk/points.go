package risk

import "github.com/heartvoice/voicebio/biomarker"

// QuestionType labels the scripted prompt a recording answered. Counting
// tasks (sustained "1, 2, 3, ...") expose perturbation more reliably than
// free speech, so their points carry a multiplier.
type QuestionType string

const (
	QuestionFreeSpeech QuestionType = "free_speech"
	QuestionCounting   QuestionType = "counting"
	QuestionSustained  QuestionType = "sustained_vowel"
)

const countingMultiplier = 1.2

// PointScore is a 0-100 rule-based triage score.
type PointScore struct {
	Total        float64      `json:"total"` // 0-100, clamped
	QuestionType QuestionType `json:"question_type"`
}

// Normalized maps the point score onto the canonical [0,1] risk scale used
// by the alert engine.
func (p *PointScore) Normalized() float64 {
	return p.Total / 100.0
}

// RuleBasedPointRisk is the alternate per-question scorer: fixed point values
// accumulate per threshold bucket, with a question-type multiplier, clamped
// to 100. Coarser than WeightedCompositeRisk and kept as a distinct named
// algorithm; the two must not be conflated as "the risk score".
type RuleBasedPointRisk struct{}

// NewRuleBasedPointRisk creates the point-based scorer.
func NewRuleBasedPointRisk() *RuleBasedPointRisk {
	return &RuleBasedPointRisk{}
}

// Evaluate scores one biomarker record for the given question type.
func (r *RuleBasedPointRisk) Evaluate(b *biomarker.VoiceBiomarkers, question QuestionType) *PointScore {
	points := 0.0

	switch {
	case b.Jitter.Local > JitterPathological:
		points += 25
	case b.Jitter.Local > 0.015:
		points += 15
	case b.Jitter.Local > JitterNormal:
		points += 8
	}

	switch {
	case b.Shimmer.Local > ShimmerPathological:
		points += 25
	case b.Shimmer.Local > ShimmerElevated:
		points += 15
	case b.Shimmer.Local > ShimmerNormal:
		points += 8
	}

	if b.HNR.Mean != 0 {
		switch {
		case b.HNR.Mean < HNRPathologicalDB:
			points += 20
		case b.HNR.Mean < HNRLowDB:
			points += 10
		}
	}

	// Habitual pitch outside the adult speaking band
	if b.F0.Mean > 0 && (b.F0.Mean < 75 || b.F0.Mean > 300) {
		points += 10
	}

	if b.Prosody.PauseRate > 8 {
		points += 10
	}
	if b.Prosody.VoicedRatio >= minUsableVoicedRatio && b.Prosody.SpeechRate < 2.0 {
		points += 10
	}

	if question == QuestionCounting {
		points *= countingMultiplier
	}

	if points > 100 {
		points = 100
	}

	return &PointScore{
		Total:        points,
		QuestionType: question,
	}
}
