package workflow

import (
	"context"
	"strings"
	"time"

	"github.com/yusufekamaulana/rsua-akreditasi/core/classify"
	"github.com/yusufekamaulana/rsua-akreditasi/core/engine"
	"github.com/yusufekamaulana/rsua-akreditasi/core/store"
	"github.com/yusufekamaulana/rsua-akreditasi/core/utils"
)

// MinNarrativeLen is the minimum trimmed length of the free-text
// description accepted at submit.
const MinNarrativeLen = 10

// Machine drives an incident record through the review workflow:
// DRAFT -> SUBMITTED -> PJ_REVIEWED -> MUTU_REVIEWED -> CLOSED.
// It mutates records in memory only; persistence (and version
// conflict detection) stays with the store.
type Machine struct {
	classifier classify.Classifier
	clock      func() time.Time
}

func NewMachine(classifier classify.Classifier) *Machine {
	return &Machine{classifier: classifier, clock: utils.NowUTC}
}

// Review carries a reviewer's decision. All fields are optional; empty
// fields leave the lower classification layers in force.
type Review struct {
	Decision string
	Notes    string
	SKPCode  string
	MDPCode  string
}

// CanEdit reports whether the record still accepts draft edits.
func (m *Machine) CanEdit(rec *store.Incident) error {
	if rec.Status != engine.StatusDraft {
		return &IllegalStateError{Op: "edit", From: rec.Status}
	}
	return nil
}

// Submit validates the draft, runs the classifier, grades the incident
// and moves it to SUBMITTED. On any failure the record is left
// untouched, so a failed submit keeps the report editable.
// Re-submitting an already submitted record is a no-op: it returns
// changed=false and the record must not be persisted again.
func (m *Machine) Submit(ctx context.Context, rec *store.Incident, monthlyUnitCount int) (changed bool, err error) {
	if rec.Status == engine.StatusSubmitted {
		return false, nil
	}
	if rec.Status != engine.StatusDraft {
		return false, &IllegalStateError{Op: "submit", From: rec.Status}
	}
	now := m.clock()
	if len(strings.TrimSpace(rec.Description)) < MinNarrativeLen {
		return false, &ValidationError{Field: "free_text_description", Reason: "must be at least 10 characters"}
	}
	if rec.OccurredAt == nil || rec.OccurredAt.IsZero() {
		return false, &ValidationError{Field: "occurred_at", Reason: "is required"}
	}
	if rec.OccurredAt.After(now) {
		return false, &ValidationError{Field: "occurred_at", Reason: "cannot be in the future"}
	}
	if rec.AdmissionAt != nil && rec.AdmissionAt.After(*rec.OccurredAt) {
		return false, &ValidationError{Field: "admission_at", Reason: "cannot be after occurred_at"}
	}

	prediction, err := m.classifier.Classify(ctx, rec.Description, map[string]string{"department": rec.Unit})
	if err != nil {
		return false, &ClassifierError{Err: err}
	}

	rec.PredictedCategory = prediction.Category
	rec.PredictedConfidence = prediction.Confidence
	rec.ModelVersion = prediction.ModelVersion
	rec.PredictedSKP = prediction.SKPCode
	rec.PredictedMDP = prediction.MDPCode

	probability := engine.FrequencyToProbability(monthlyUnitCount)
	severity := engine.HarmToSeverity(rec.HarmIndicator)
	rec.Grading = engine.MatrixGrade(probability, severity)

	rec.Status = engine.StatusSubmitted
	rec.UpdatedAt = now
	m.applyReconciliation(rec)
	return true, nil
}

// ReviewByUnit records the department supervisor's decision and moves
// the record to PJ_REVIEWED.
func (m *Machine) ReviewByUnit(rec *store.Incident, review Review) error {
	if rec.Status != engine.StatusSubmitted {
		return &IllegalStateError{Op: "review by unit", From: rec.Status}
	}
	if err := validateReview(review); err != nil {
		return err
	}
	rec.PJDecision = strings.TrimSpace(review.Decision)
	rec.PJNotes = review.Notes
	rec.PJSKP = strings.TrimSpace(review.SKPCode)
	rec.PJMDP = strings.TrimSpace(review.MDPCode)
	rec.Status = engine.StatusPJReviewed
	rec.UpdatedAt = m.clock()
	m.applyReconciliation(rec)
	return nil
}

// ReviewByQuality records the quality committee's decision. The
// committee may review directly after submission or after the unit
// review; its decision outranks both lower layers.
func (m *Machine) ReviewByQuality(rec *store.Incident, review Review) error {
	if rec.Status != engine.StatusSubmitted && rec.Status != engine.StatusPJReviewed {
		return &IllegalStateError{Op: "review by quality", From: rec.Status}
	}
	if err := validateReview(review); err != nil {
		return err
	}
	rec.MutuDecision = strings.TrimSpace(review.Decision)
	rec.MutuNotes = review.Notes
	rec.MutuSKP = strings.TrimSpace(review.SKPCode)
	rec.MutuMDP = strings.TrimSpace(review.MDPCode)
	rec.Status = engine.StatusMutuReviewed
	rec.UpdatedAt = m.clock()
	m.applyReconciliation(rec)
	return nil
}

// Close archives a quality-reviewed record. CLOSED is terminal.
func (m *Machine) Close(rec *store.Incident) error {
	if rec.Status != engine.StatusMutuReviewed {
		return &IllegalStateError{Op: "close", From: rec.Status}
	}
	rec.Status = engine.StatusClosed
	rec.UpdatedAt = m.clock()
	m.applyReconciliation(rec)
	return nil
}

func validateReview(review Review) error {
	if d := strings.TrimSpace(review.Decision); d != "" {
		if _, ok := engine.ParseCategory(d); !ok {
			return &ValidationError{Field: "decision", Reason: "unknown category " + d}
		}
	}
	return nil
}

func (m *Machine) applyReconciliation(rec *store.Incident) {
	r := engine.Reconcile(rec.EngineView())
	rec.FinalCategory = ""
	if r.HasFinal {
		rec.FinalCategory = string(r.FinalCategory)
	}
	rec.SKPLabel = r.SKPLabel
	rec.SKPUnclassified = r.SKPUnclassified
	rec.MDPLabel = r.MDPLabel
	rec.MDPUnclassified = r.MDPUnclassified
}
