package alert

import (
	"testing"

	"github.com/heartvoice/voicebio/algorithms/perturbation"
	"github.com/heartvoice/voicebio/algorithms/prosody"
	"github.com/heartvoice/voicebio/algorithms/quality"
	"github.com/heartvoice/voicebio/biomarker"
)

func normalBiomarkers() *biomarker.VoiceBiomarkers {
	return &biomarker.VoiceBiomarkers{
		F0:      biomarker.F0Stats{Mean: 180, Std: 25, Range: 80},
		Jitter:  perturbation.JitterResult{Local: 0.005},
		Shimmer: perturbation.ShimmerResult{Local: 0.02},
		HNR:     quality.HNRResult{Mean: 22},
		Prosody: prosody.ProsodyResult{
			SpeechRate:    4.0,
			PauseRate:     3.0,
			PauseDuration: 0.4,
			VoicedRatio:   0.7,
		},
		Respiratory: prosody.RespiratoryResult{BreathingRate: 14, DyspneaIndicators: 0.1},
	}
}

func ruleNames(alerts []*ClinicalAlert) map[string]bool {
	names := make(map[string]bool, len(alerts))
	for _, a := range alerts {
		names[a.Rule] = true
	}
	return names
}

func TestEvaluateNormalRecordRaisesNothing(t *testing.T) {
	t.Parallel()

	engine := NewEngine(DefaultThresholds())

	alerts := engine.EvaluateBiomarkers("p1", "Ada Smith", "call-1", normalBiomarkers(), 0.1)
	if len(alerts) != 0 {
		t.Errorf("normal record raised %d alerts: %v", len(alerts), ruleNames(alerts))
	}
	if active := engine.ActiveAlerts(""); len(active) != 0 {
		t.Errorf("ActiveAlerts = %d, want 0", len(active))
	}
}

func TestEvaluateCriticalRecord(t *testing.T) {
	t.Parallel()

	engine := NewEngine(DefaultThresholds())

	b := normalBiomarkers()
	b.Jitter.Local = 0.03
	b.Shimmer.Local = 0.12
	b.HNR.Mean = 5

	alerts := engine.EvaluateBiomarkers("p1", "Ada Smith", "call-1", b, 0.85)
	names := ruleNames(alerts)

	for _, want := range []string{"critical_jitter", "critical_shimmer", "pathological_hnr", "critical_risk_score"} {
		if !names[want] {
			t.Errorf("missing expected alert %q, got %v", want, names)
		}
	}
	// Jitter and shimmer are past pathological, not in the elevated band
	if names["moderate_voice_changes"] {
		t.Error("moderate_voice_changes fired alongside pathological values")
	}

	for _, a := range alerts {
		if a.ID == "" {
			t.Error("alert without ID")
		}
		if a.PatientID != "p1" || a.CallSID != "call-1" {
			t.Errorf("alert identity = %s/%s, want p1/call-1", a.PatientID, a.CallSID)
		}
		if len(a.BiomarkerValues) == 0 {
			t.Errorf("alert %s has no biomarker values", a.Rule)
		}
		if a.Rule == "critical_jitter" {
			if got := a.BiomarkerValues["jitter_local"]; got != 0.03 {
				t.Errorf("critical_jitter biomarker value = %v, want 0.03", got)
			}
			if len(a.Recommendations) == 0 {
				t.Error("critical_jitter alert carries no recommendations")
			}
		}
	}
}

func TestEvaluateElevatedButNotCritical(t *testing.T) {
	t.Parallel()

	engine := NewEngine(DefaultThresholds())

	b := normalBiomarkers()
	b.Jitter.Local = 0.012 // elevated, below pathological
	b.Shimmer.Local = 0.11 // past pathological

	alerts := engine.EvaluateBiomarkers("p1", "Ada Smith", "call-2", b, 0.55)
	names := ruleNames(alerts)

	if !names["critical_shimmer"] {
		t.Errorf("critical_shimmer missing, got %v", names)
	}
	if names["critical_jitter"] {
		t.Error("critical_jitter fired for elevated-only jitter")
	}
	if !names["moderate_voice_changes"] {
		t.Errorf("moderate_voice_changes missing for elevated jitter, got %v", names)
	}
	if names["critical_risk_score"] {
		t.Error("critical_risk_score fired below the critical band")
	}
}

func TestEvaluateDeterministic(t *testing.T) {
	t.Parallel()

	b := normalBiomarkers()
	b.Jitter.Local = 0.03

	first := ruleNames(NewEngine(DefaultThresholds()).EvaluateBiomarkers("p1", "", "", b, 0.3))
	second := ruleNames(NewEngine(DefaultThresholds()).EvaluateBiomarkers("p1", "", "", b, 0.3))

	if len(first) != len(second) {
		t.Fatalf("rule sets differ: %v vs %v", first, second)
	}
	for name := range first {
		if !second[name] {
			t.Errorf("rule %q fired only once across identical evaluations", name)
		}
	}
}

func TestActiveAlertsOrdering(t *testing.T) {
	t.Parallel()

	engine := NewEngine(DefaultThresholds())

	// Moderate alert first, then critical for the same patient
	moderate := normalBiomarkers()
	moderate.Jitter.Local = 0.012
	engine.EvaluateBiomarkers("p1", "", "call-1", moderate, 0.3)

	critical := normalBiomarkers()
	critical.Jitter.Local = 0.03
	engine.EvaluateBiomarkers("p1", "", "call-2", critical, 0.3)

	active := engine.ActiveAlerts("p1")
	if len(active) < 2 {
		t.Fatalf("ActiveAlerts = %d, want at least 2", len(active))
	}

	for i := 1; i < len(active); i++ {
		prev, cur := active[i-1], active[i]
		if severityRank(prev.Type) > severityRank(cur.Type) {
			t.Errorf("alert %d (%s) sorted after less severe %s", i-1, prev.Type, cur.Type)
		}
		if severityRank(prev.Type) == severityRank(cur.Type) && prev.Timestamp.Before(cur.Timestamp) {
			t.Errorf("equal-severity alerts not newest-first at index %d", i)
		}
	}
	if active[0].Type != AlertCritical {
		t.Errorf("first active alert = %s, want CRITICAL", active[0].Type)
	}
}

func TestActiveAlertsFiltersByPatient(t *testing.T) {
	t.Parallel()

	engine := NewEngine(DefaultThresholds())

	b := normalBiomarkers()
	b.Jitter.Local = 0.03
	engine.EvaluateBiomarkers("p1", "", "", b, 0.3)
	engine.EvaluateBiomarkers("p2", "", "", b, 0.3)

	for _, a := range engine.ActiveAlerts("p2") {
		if a.PatientID != "p2" {
			t.Errorf("alert for patient %s in p2 filter", a.PatientID)
		}
	}
	if all := engine.ActiveAlerts(""); len(all) != len(engine.ActiveAlerts("p1"))+len(engine.ActiveAlerts("p2")) {
		t.Errorf("unfiltered count %d != sum of per-patient counts", len(all))
	}
}

func TestAcknowledge(t *testing.T) {
	t.Parallel()

	engine := NewEngine(DefaultThresholds())

	b := normalBiomarkers()
	b.Jitter.Local = 0.03
	raised := engine.EvaluateBiomarkers("p1", "", "", b, 0.3)
	if len(raised) == 0 {
		t.Fatal("no alerts raised")
	}

	id := raised[0].ID
	if !engine.Acknowledge(id, "dr-lee") {
		t.Fatalf("Acknowledge(%s) = false, want true", id)
	}
	for _, a := range engine.ActiveAlerts("p1") {
		if a.ID == id {
			t.Error("acknowledged alert still active")
		}
	}
	if raised[0].AckedBy != "dr-lee" {
		t.Errorf("AckedBy = %q, want dr-lee", raised[0].AckedBy)
	}

	// Idempotent, and unknown IDs are rejected
	if !engine.Acknowledge(id, "dr-lee") {
		t.Error("second Acknowledge = false, want true")
	}
	if engine.Acknowledge("no-such-id", "dr-lee") {
		t.Error("Acknowledge of unknown ID = true, want false")
	}
}

func TestEscalateKeepsAlertActive(t *testing.T) {
	t.Parallel()

	engine := NewEngine(DefaultThresholds())

	b := normalBiomarkers()
	b.Jitter.Local = 0.03
	raised := engine.EvaluateBiomarkers("p1", "", "", b, 0.3)
	if len(raised) == 0 {
		t.Fatal("no alerts raised")
	}

	id := raised[0].ID
	if !engine.Escalate(id, "no answer on callback") {
		t.Fatalf("Escalate(%s) = false, want true", id)
	}
	if engine.Escalate("no-such-id", "x") {
		t.Error("Escalate of unknown ID = true, want false")
	}

	found := false
	for _, a := range engine.ActiveAlerts("p1") {
		if a.ID == id {
			found = true
			if !a.Escalated {
				t.Error("alert not flagged escalated")
			}
			if a.EscalationReason != "no answer on callback" {
				t.Errorf("EscalationReason = %q", a.EscalationReason)
			}
		}
	}
	if !found {
		t.Error("escalated alert dropped from active list")
	}
}

func TestUpdateThresholdsShallowMerge(t *testing.T) {
	t.Parallel()

	engine := NewEngine(DefaultThresholds())

	// Patch only the jitter section, omitting Normal inside it
	engine.UpdateThresholds(&ThresholdPatch{
		Jitter: &JitterThresholds{Pathological: 0.05},
	})

	got := engine.Thresholds()
	if got.Jitter.Pathological != 0.05 {
		t.Errorf("Jitter.Pathological = %v, want 0.05", got.Jitter.Pathological)
	}
	// Provided sections replace wholesale: the omitted field resets
	if got.Jitter.Normal != 0 {
		t.Errorf("Jitter.Normal = %v, want 0 after wholesale section replace", got.Jitter.Normal)
	}
	// Untouched sections keep their defaults
	if want := DefaultThresholds().Shimmer; got.Shimmer != want {
		t.Errorf("Shimmer = %+v, want untouched defaults %+v", got.Shimmer, want)
	}

	// The raised jitter cutoff changes rule behavior
	b := normalBiomarkers()
	b.Jitter.Local = 0.03
	names := ruleNames(engine.EvaluateBiomarkers("p1", "", "", b, 0.3))
	if names["critical_jitter"] {
		t.Error("critical_jitter fired below the updated cutoff")
	}

	engine.UpdateThresholds(nil) // no-op, must not panic
}
