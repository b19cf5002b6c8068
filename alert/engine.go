package alert

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/heartvoice/voicebio/biomarker"
	"github.com/heartvoice/voicebio/logging"
)

// Engine evaluates biomarker records against the rule battery and manages
// the resulting alerts. Construct one per deployment with NewEngine and
// share it; all methods are safe for concurrent use.
type Engine struct {
	mu         sync.Mutex
	thresholds ClinicalThresholds
	rules      []Rule
	alerts     []*ClinicalAlert

	logger logging.Logger
}

// NewEngine creates an alert engine with the given thresholds and the
// built-in rule battery.
func NewEngine(thresholds ClinicalThresholds) *Engine {
	return &Engine{
		thresholds: thresholds,
		rules:      defaultRules(),
		logger:     logging.WithFields(logging.Fields{"component": "alert_engine"}),
	}
}

// Thresholds returns a copy of the active thresholds.
func (e *Engine) Thresholds() ClinicalThresholds {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.thresholds
}

// UpdateThresholds shallow-merges the patch onto the active thresholds. Each
// non-nil section of the patch replaces the corresponding section wholesale;
// omitted sections keep their current values. The update affects subsequent
// evaluations only, never alerts already raised.
func (e *Engine) UpdateThresholds(patch *ThresholdPatch) {
	if patch == nil {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	patch.apply(&e.thresholds)

	e.logger.Info("clinical thresholds updated")
}

// EvaluateBiomarkers runs every rule independently against the record, raises
// an alert per fired rule, and additionally raises the always-on critical
// composite-risk alert when riskScore reaches the critical band. riskScore is
// the canonical [0,1] composite. Raised alerts are stored active and also
// returned, in rule-battery order.
func (e *Engine) EvaluateBiomarkers(patientID, patientName, callSID string, b *biomarker.VoiceBiomarkers, riskScore float64) []*ClinicalAlert {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := time.Now()
	var raised []*ClinicalAlert

	for _, rule := range e.rules {
		if !rule.Condition(b, &e.thresholds) {
			continue
		}
		raised = append(raised, e.raise(rule, patientID, patientName, callSID, b, riskScore, now))
	}

	if riskScore >= e.thresholds.Risk.Critical {
		raised = append(raised, e.raise(Rule{
			Name:     "critical_risk_score",
			Type:     AlertCritical,
			Category: CategoryCardiac,
			Message:  "Composite risk score in the critical band; immediate clinical review recommended",
			Recommendations: []string{
				"Contact patient immediately",
				"Consider same-day clinical assessment",
			},
		}, patientID, patientName, callSID, b, riskScore, now))
	}

	if len(raised) > 0 {
		e.logger.Warn("clinical alerts raised", logging.Fields{
			"patient_id": patientID,
			"count":      len(raised),
			"risk_score": riskScore,
		})
	}

	return raised
}

// raise builds, stores, and returns one alert. Caller holds e.mu.
func (e *Engine) raise(rule Rule, patientID, patientName, callSID string,
	b *biomarker.VoiceBiomarkers, riskScore float64, at time.Time) *ClinicalAlert {

	a := &ClinicalAlert{
		ID:              uuid.New().String(),
		PatientID:       patientID,
		PatientName:     patientName,
		CallSID:         callSID,
		Rule:            rule.Name,
		Type:            rule.Type,
		Category:        rule.Category,
		Message:         rule.Message,
		RiskScore:       riskScore,
		Timestamp:       at,
		BiomarkerValues: biomarkerValues(rule.Category, b),
		Recommendations: rule.Recommendations,
	}
	e.alerts = append(e.alerts, a)
	return a
}

// ActiveAlerts returns the unacknowledged alerts, optionally filtered to one
// patient, ordered by severity (critical first), then timestamp (newest
// first), then insertion order. Escalated alerts remain active until
// acknowledged.
func (e *Engine) ActiveAlerts(patientID string) []*ClinicalAlert {
	e.mu.Lock()
	defer e.mu.Unlock()

	var active []*ClinicalAlert
	for _, a := range e.alerts {
		if a.Acknowledged {
			continue
		}
		if patientID != "" && a.PatientID != patientID {
			continue
		}
		active = append(active, a)
	}

	// Stable sort keeps insertion order for equal severity and timestamp.
	sort.SliceStable(active, func(i, j int) bool {
		ri, rj := severityRank(active[i].Type), severityRank(active[j].Type)
		if ri != rj {
			return ri < rj
		}
		return active[i].Timestamp.After(active[j].Timestamp)
	})

	return active
}

// Acknowledge marks the alert reviewed and removes it from the active list.
// Returns false if no alert has the given ID. Acknowledging twice is a no-op
// that still returns true.
func (e *Engine) Acknowledge(alertID, clinician string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, a := range e.alerts {
		if a.ID != alertID {
			continue
		}
		a.Acknowledged = true
		a.AckedBy = clinician
		e.logger.Info("alert acknowledged", logging.Fields{
			"alert_id":  alertID,
			"clinician": clinician,
		})
		return true
	}
	return false
}

// Escalate flags the alert for urgent follow-up. Escalation is orthogonal to
// acknowledgement: an escalated alert stays active until acknowledged.
// Returns false if no alert has the given ID.
func (e *Engine) Escalate(alertID, reason string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, a := range e.alerts {
		if a.ID != alertID {
			continue
		}
		a.Escalated = true
		a.EscalationReason = reason
		e.logger.Warn("alert escalated", logging.Fields{
			"alert_id": alertID,
			"reason":   reason,
		})
		return true
	}
	return false
}
