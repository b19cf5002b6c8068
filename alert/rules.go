package alert

import (
	"time"

	"github.com/heartvoice/voicebio/biomarker"
)

// AlertType orders alerts by clinical urgency.
type AlertType string

const (
	AlertCritical AlertType = "CRITICAL"
	AlertHigh     AlertType = "HIGH"
	AlertModerate AlertType = "MODERATE"
	AlertInfo     AlertType = "INFO"
)

// severityRank maps alert types to sort order, most urgent first.
func severityRank(t AlertType) int {
	switch t {
	case AlertCritical:
		return 0
	case AlertHigh:
		return 1
	case AlertModerate:
		return 2
	default:
		return 3
	}
}

// Category groups alerts by the physiological system they point at.
type Category string

const (
	CategoryVoiceQuality Category = "VOICE_QUALITY"
	CategoryRespiratory  Category = "RESPIRATORY"
	CategoryCardiac      Category = "CARDIAC"
	CategoryCognitive    Category = "COGNITIVE"
)

// ClinicalAlert is one finding surfaced to the care team. The engine owns
// the alert; callers mutate it only through Acknowledge and Escalate.
type ClinicalAlert struct {
	ID          string    `json:"id"`
	PatientID   string    `json:"patient_id"`
	PatientName string    `json:"patient_name"`
	CallSID     string    `json:"call_sid,omitempty"`
	Rule        string    `json:"rule"`
	Type        AlertType `json:"type"`
	Category    Category  `json:"category"`
	Message     string    `json:"message"`
	RiskScore   float64   `json:"risk_score"` // canonical [0,1]
	Timestamp   time.Time `json:"timestamp"`

	// Biomarker values relevant to the alert category, for display in the
	// clinician dashboard without refetching the full record.
	BiomarkerValues map[string]float64 `json:"biomarker_values"`

	// Suggested next steps for the care team, from the firing rule.
	Recommendations []string `json:"recommendations,omitempty"`

	Acknowledged     bool   `json:"acknowledged"`
	Escalated        bool   `json:"escalated"`
	AckedBy          string `json:"acked_by,omitempty"`
	EscalationReason string `json:"escalation_reason,omitempty"`
}

// Rule is one static clinical detection rule. Conditions are evaluated
// independently against the biomarker record; a recording can fire any
// number of rules.
type Rule struct {
	Name            string
	Type            AlertType
	Category        Category
	Message         string
	Recommendations []string
	Condition       func(b *biomarker.VoiceBiomarkers, t *ClinicalThresholds) bool
}

// defaultRules returns the built-in rule battery. Rules read the engine's
// current thresholds at evaluation time, so threshold updates take effect
// on the next call without rebuilding the rules.
func defaultRules() []Rule {
	return []Rule{
		{
			Name:     "critical_jitter",
			Type:     AlertCritical,
			Category: CategoryVoiceQuality,
			Message:  "Severe pitch instability detected; possible acute laryngeal or neurological change",
			Recommendations: []string{
				"Contact patient within 2 hours",
				"Review recent medication changes",
			},
			Condition: func(b *biomarker.VoiceBiomarkers, t *ClinicalThresholds) bool {
				return b.Jitter.Local > t.Jitter.Pathological
			},
		},
		{
			Name:     "critical_shimmer",
			Type:     AlertCritical,
			Category: CategoryVoiceQuality,
			Message:  "Severe amplitude instability detected; consistent with significant laryngeal edema",
			Recommendations: []string{
				"Contact patient within 2 hours",
				"Assess for fluid retention and weight gain",
			},
			Condition: func(b *biomarker.VoiceBiomarkers, t *ClinicalThresholds) bool {
				return b.Shimmer.Local > t.Shimmer.Pathological
			},
		},
		{
			Name:     "pathological_hnr",
			Type:     AlertHigh,
			Category: CategoryVoiceQuality,
			Message:  "Harmonics-to-noise ratio in the pathological range; marked voice quality degradation",
			Recommendations: []string{
				"Schedule follow-up call within 24 hours",
				"Compare against patient baseline trend",
			},
			Condition: func(b *biomarker.VoiceBiomarkers, t *ClinicalThresholds) bool {
				return b.HNR.Mean != 0 && b.HNR.Mean < t.HNR.Pathological
			},
		},
		{
			Name:     "moderate_voice_changes",
			Type:     AlertModerate,
			Category: CategoryVoiceQuality,
			Message:  "Jitter or shimmer elevated above the normal range; monitor voice quality trend",
			Recommendations: []string{
				"Flag for trend review at next scheduled check-in",
			},
			Condition: func(b *biomarker.VoiceBiomarkers, t *ClinicalThresholds) bool {
				jitterElevated := b.Jitter.Local > t.Jitter.Normal && b.Jitter.Local <= t.Jitter.Pathological
				shimmerElevated := b.Shimmer.Local > t.Shimmer.Normal && b.Shimmer.Local <= t.Shimmer.Pathological
				return jitterElevated || shimmerElevated
			},
		},
		{
			Name:     "low_hnr",
			Type:     AlertModerate,
			Category: CategoryVoiceQuality,
			Message:  "Harmonics-to-noise ratio below the healthy range",
			Recommendations: []string{
				"Monitor voice quality over the next several calls",
			},
			Condition: func(b *biomarker.VoiceBiomarkers, t *ClinicalThresholds) bool {
				return b.HNR.Mean != 0 && b.HNR.Mean >= t.HNR.Pathological && b.HNR.Mean < t.HNR.Low
			},
		},
		{
			Name:     "elevated_breathing_rate",
			Type:     AlertHigh,
			Category: CategoryRespiratory,
			Message:  "Breathing rate elevated above the tachypnea threshold",
			Recommendations: []string{
				"Contact patient to assess breathing comfort",
				"Check for orthopnea and nocturnal symptoms",
			},
			Condition: func(b *biomarker.VoiceBiomarkers, t *ClinicalThresholds) bool {
				return b.Respiratory.BreathingRate > t.Respiratory.MaxBreathingRate
			},
		},
		{
			Name:     "dyspnea_indicators",
			Type:     AlertHigh,
			Category: CategoryRespiratory,
			Message:  "Speech pattern consistent with shortness of breath",
			Recommendations: []string{
				"Contact patient to assess dyspnea severity",
				"Review diuretic adherence",
			},
			Condition: func(b *biomarker.VoiceBiomarkers, t *ClinicalThresholds) bool {
				return b.Respiratory.DyspneaIndicators > t.Respiratory.DyspneaScore
			},
		},
		{
			Name:     "frequent_pauses",
			Type:     AlertModerate,
			Category: CategoryRespiratory,
			Message:  "Frequent pausing during speech; possible breath-catching",
			Recommendations: []string{
				"Monitor pause frequency trend",
			},
			Condition: func(b *biomarker.VoiceBiomarkers, t *ClinicalThresholds) bool {
				return b.Prosody.PauseRate > t.Prosody.MaxPauseRate
			},
		},
		{
			Name:     "prolonged_pauses",
			Type:     AlertModerate,
			Category: CategoryCognitive,
			Message:  "Prolonged pauses suggest word-finding difficulty",
			Recommendations: []string{
				"Screen for cognitive changes at next contact",
			},
			Condition: func(b *biomarker.VoiceBiomarkers, t *ClinicalThresholds) bool {
				return b.Prosody.PauseDuration > t.Prosody.MaxPauseDuration
			},
		},
		{
			Name:     "slow_speech",
			Type:     AlertModerate,
			Category: CategoryCognitive,
			Message:  "Speech rate below the expected range",
			Recommendations: []string{
				"Assess for fatigue and cognitive changes",
			},
			Condition: func(b *biomarker.VoiceBiomarkers, t *ClinicalThresholds) bool {
				return b.Prosody.VoicedRatio >= 0.05 &&
					b.Prosody.SpeechRate > 0 &&
					b.Prosody.SpeechRate < t.Prosody.MinSpeechRate
			},
		},
		{
			Name:     "f0_out_of_band",
			Type:     AlertInfo,
			Category: CategoryVoiceQuality,
			Message:  "Habitual pitch outside the expected adult speaking band",
			Recommendations: []string{
				"Verify recording quality before clinical interpretation",
			},
			Condition: func(b *biomarker.VoiceBiomarkers, t *ClinicalThresholds) bool {
				return b.F0.Mean > 0 && (b.F0.Mean < t.F0.Min || b.F0.Mean > t.F0.Max)
			},
		},
	}
}

// biomarkerValues projects the biomarker fields relevant to one alert
// category into a flat display map.
func biomarkerValues(category Category, b *biomarker.VoiceBiomarkers) map[string]float64 {
	switch category {
	case CategoryVoiceQuality:
		return map[string]float64{
			"jitter_local":  b.Jitter.Local,
			"shimmer_local": b.Shimmer.Local,
			"hnr_mean":      b.HNR.Mean,
			"f0_mean":       b.F0.Mean,
		}
	case CategoryRespiratory:
		return map[string]float64{
			"breathing_rate":     b.Respiratory.BreathingRate,
			"dyspnea_indicators": b.Respiratory.DyspneaIndicators,
			"pause_rate":         b.Prosody.PauseRate,
			"voiced_ratio":       b.Prosody.VoicedRatio,
		}
	case CategoryCognitive:
		return map[string]float64{
			"speech_rate":    b.Prosody.SpeechRate,
			"pause_duration": b.Prosody.PauseDuration,
			"pause_rate":     b.Prosody.PauseRate,
		}
	default: // CategoryCardiac
		return map[string]float64{
			"f0_mean":       b.F0.Mean,
			"f0_std":        b.F0.Std,
			"energy_rms":    b.Energy.RMS,
			"dynamic_range": b.Energy.DynamicRange,
		}
	}
}
