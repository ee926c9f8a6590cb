package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/yusufekamaulana/rsua-akreditasi/core/auth"
	"github.com/yusufekamaulana/rsua-akreditasi/core/engine"
	"github.com/yusufekamaulana/rsua-akreditasi/core/store"
	"github.com/yusufekamaulana/rsua-akreditasi/core/workflow"
)

type incidentPayload struct {
	PatientName       string     `json:"patient_name"`
	PatientIdentifier string     `json:"patient_identifier"`
	Age               *int       `json:"age"`
	Gender            string     `json:"gender"`
	PayerType         string     `json:"payer_type"`
	Unit              string     `json:"unit"`
	IncidentPlace     string     `json:"incident_place"`
	HarmIndicator     string     `json:"harm_indicator"`
	AdmissionAt       *time.Time `json:"admission_at"`
	OccurredAt        *time.Time `json:"occurred_at"`
	Description       string     `json:"free_text_description"`
	Version           int        `json:"version"`
}

type reviewPayload struct {
	Decision string `json:"decision"`
	Notes    string `json:"notes"`
	SKPCode  string `json:"skp_code"`
	MDPCode  string `json:"mdp_code"`
	Version  int    `json:"version"`
}

func sessionFrom(r *http.Request) *store.SessionRecord {
	return r.Context().Value(auth.SessionContextKey).(*store.SessionRecord)
}

func hasRole(roles []string, want string) bool {
	for _, role := range roles {
		if role == want {
			return true
		}
	}
	return false
}

func idParam(r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// ageGroup maps an age in years to the reporting band used on the
// incident form.
func ageGroup(age *int) string {
	if age == nil {
		return ""
	}
	switch v := *age; {
	case v < 1:
		return "bayi"
	case v <= 4:
		return "balita"
	case v <= 10:
		return "anak"
	case v <= 18:
		return "remaja"
	case v <= 59:
		return "dewasa"
	default:
		return "lansia"
	}
}

func (p *incidentPayload) applyTo(rec *store.Incident) {
	rec.PatientName = strings.TrimSpace(p.PatientName)
	rec.PatientIdentifier = strings.TrimSpace(p.PatientIdentifier)
	rec.Age = p.Age
	rec.AgeGroup = ageGroup(p.Age)
	rec.Gender = strings.TrimSpace(p.Gender)
	rec.PayerType = strings.TrimSpace(p.PayerType)
	rec.Unit = strings.TrimSpace(p.Unit)
	rec.IncidentPlace = strings.TrimSpace(p.IncidentPlace)
	rec.HarmIndicator = strings.TrimSpace(p.HarmIndicator)
	rec.AdmissionAt = p.AdmissionAt
	rec.OccurredAt = p.OccurredAt
	rec.Description = p.Description
}

// writeWorkflowError maps the workflow error taxonomy onto HTTP
// statuses. Validation problems carry the offending field back so the
// form can highlight it.
func (s *Server) writeWorkflowError(w http.ResponseWriter, err error) {
	var vErr *workflow.ValidationError
	var stateErr *workflow.IllegalStateError
	var clsErr *workflow.ClassifierError
	switch {
	case errors.As(err, &vErr):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{
			"error":  "incidents.validation",
			"field":  vErr.Field,
			"reason": vErr.Reason,
		})
	case errors.As(err, &stateErr):
		writeJSON(w, http.StatusConflict, map[string]string{
			"error":  "incidents.illegalState",
			"op":     stateErr.Op,
			"status": string(stateErr.From),
		})
	case errors.As(err, &clsErr):
		s.logger.Errorf("classifier: %v", clsErr.Err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "incidents.classifierUnavailable"})
	case errors.Is(err, store.ErrConflict):
		writeJSON(w, http.StatusConflict, map[string]string{"error": "incidents.conflictVersion"})
	default:
		s.logger.Errorf("incidents: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "incidents.internal"})
	}
}

// canAccessIncident applies the role-based read scope: perawat sees
// only their own reports, pj only their department, mutu and admin
// everything.
func (s *Server) canAccessIncident(r *http.Request, rec *store.Incident) bool {
	sess := sessionFrom(r)
	if hasRole(sess.Roles, "admin") || hasRole(sess.Roles, "mutu") {
		return true
	}
	if hasRole(sess.Roles, "pj") {
		user, err := s.users.GetUser(r.Context(), sess.UserID)
		if err == nil && user != nil && strings.EqualFold(user.Department, rec.Unit) {
			return true
		}
	}
	if hasRole(sess.Roles, "perawat") && rec.ReporterID == sess.UserID {
		return true
	}
	return false
}

func (s *Server) handleCreateIncident(w http.ResponseWriter, r *http.Request) {
	var payload incidentPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "incidents.invalidPayload"})
		return
	}
	sess := sessionFrom(r)
	rec := &store.Incident{ReporterID: sess.UserID, Status: engine.StatusDraft}
	payload.applyTo(rec)
	if rec.Unit == "" {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{
			"error": "incidents.validation", "field": "unit", "reason": "is required",
		})
		return
	}
	id, err := s.incidents.CreateIncident(r.Context(), rec)
	if err != nil {
		s.writeWorkflowError(w, err)
		return
	}
	_ = s.audits.Append(r.Context(), &store.AuditEntry{
		IncidentID: &id,
		ActorID:    sess.UserID,
		Actor:      sess.Username,
		Action:     "incidents.create",
		ToStatus:   string(engine.StatusDraft),
	})
	writeJSON(w, http.StatusCreated, rec)
}

func (s *Server) handleUpdateIncident(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "incidents.invalidID"})
		return
	}
	var payload incidentPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "incidents.invalidPayload"})
		return
	}
	rec, err := s.incidents.GetIncident(r.Context(), id)
	if err != nil {
		s.writeWorkflowError(w, err)
		return
	}
	if rec == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "incidents.notFound"})
		return
	}
	sess := sessionFrom(r)
	if rec.ReporterID != sess.UserID && !hasRole(sess.Roles, "admin") {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "incidents.forbidden"})
		return
	}
	if err := s.machine.CanEdit(rec); err != nil {
		s.writeWorkflowError(w, err)
		return
	}
	expected := payload.Version
	if expected <= 0 {
		expected = rec.Version
	}
	payload.applyTo(rec)
	if err := s.incidents.UpdateIncident(r.Context(), rec, expected); err != nil {
		s.writeWorkflowError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleListIncidents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.IncidentFilter{
		Unit:   q.Get("unit"),
		Status: q.Get("status"),
		Search: q.Get("q"),
	}
	if v, err := strconv.Atoi(q.Get("limit")); err == nil && v > 0 {
		filter.Limit = v
	}
	if v, err := strconv.Atoi(q.Get("offset")); err == nil && v > 0 {
		filter.Offset = v
	}

	sess := sessionFrom(r)
	switch {
	case hasRole(sess.Roles, "admin") || hasRole(sess.Roles, "mutu"):
		// no extra scope
	case hasRole(sess.Roles, "pj"):
		user, err := s.users.GetUser(r.Context(), sess.UserID)
		if err != nil || user == nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "incidents.internal"})
			return
		}
		filter.Unit = user.Department
	default:
		filter.ReporterID = sess.UserID
	}

	list, err := s.incidents.ListIncidents(r.Context(), filter)
	if err != nil {
		s.writeWorkflowError(w, err)
		return
	}
	if list == nil {
		list = []store.Incident{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"incidents": list, "count": len(list)})
}

func (s *Server) handleGetIncident(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "incidents.invalidID"})
		return
	}
	rec, err := s.incidents.GetIncident(r.Context(), id)
	if err != nil {
		s.writeWorkflowError(w, err)
		return
	}
	if rec == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "incidents.notFound"})
		return
	}
	if !s.canAccessIncident(r, rec) {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "incidents.forbidden"})
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleListUnits(w http.ResponseWriter, r *http.Request) {
	units, err := s.incidents.ListUnits(r.Context())
	if err != nil {
		s.writeWorkflowError(w, err)
		return
	}
	if units == nil {
		units = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"units": units})
}

func (s *Server) handleSubmitIncident(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "incidents.invalidID"})
		return
	}
	rec, err := s.incidents.GetIncident(r.Context(), id)
	if err != nil {
		s.writeWorkflowError(w, err)
		return
	}
	if rec == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "incidents.notFound"})
		return
	}
	sess := sessionFrom(r)
	if rec.ReporterID != sess.UserID && !hasRole(sess.Roles, "admin") {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "incidents.forbidden"})
		return
	}
	from := rec.Status
	version := rec.Version

	monthly := 0
	if rec.OccurredAt != nil {
		if count, err := s.incidents.CountUnitInMonth(r.Context(), rec.Unit, *rec.OccurredAt); err == nil {
			monthly = count
		} else {
			s.logger.Warnf("submit: count unit %s: %v", rec.Unit, err)
		}
	}
	changed, err := s.machine.Submit(r.Context(), rec, monthly)
	if err != nil {
		s.writeWorkflowError(w, err)
		return
	}
	if !changed {
		writeJSON(w, http.StatusOK, rec)
		return
	}
	if err := s.incidents.UpdateIncident(r.Context(), rec, version); err != nil {
		s.writeWorkflowError(w, err)
		return
	}
	_ = s.audits.Append(r.Context(), &store.AuditEntry{
		IncidentID: &id,
		ActorID:    sess.UserID,
		Actor:      sess.Username,
		Action:     "incidents.submit",
		FromStatus: string(from),
		ToStatus:   string(rec.Status),
		Payload: map[string]any{
			"predicted_category": rec.PredictedCategory,
			"grading":            string(rec.Grading),
			"model_version":      rec.ModelVersion,
		},
	})
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleReviewByUnit(w http.ResponseWriter, r *http.Request) {
	s.handleReview(w, r, "incidents.review.unit", func(rec *store.Incident, review workflow.Review) error {
		return s.machine.ReviewByUnit(rec, review)
	}, func(r *http.Request, rec *store.Incident) bool {
		sess := sessionFrom(r)
		if hasRole(sess.Roles, "admin") {
			return true
		}
		user, err := s.users.GetUser(r.Context(), sess.UserID)
		return err == nil && user != nil && strings.EqualFold(user.Department, rec.Unit)
	})
}

func (s *Server) handleReviewByQuality(w http.ResponseWriter, r *http.Request) {
	s.handleReview(w, r, "incidents.review.quality", func(rec *store.Incident, review workflow.Review) error {
		return s.machine.ReviewByQuality(rec, review)
	}, nil)
}

func (s *Server) handleReview(w http.ResponseWriter, r *http.Request, action string, apply func(*store.Incident, workflow.Review) error, scope func(*http.Request, *store.Incident) bool) {
	id, ok := idParam(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "incidents.invalidID"})
		return
	}
	var payload reviewPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "incidents.invalidPayload"})
		return
	}
	rec, err := s.incidents.GetIncident(r.Context(), id)
	if err != nil {
		s.writeWorkflowError(w, err)
		return
	}
	if rec == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "incidents.notFound"})
		return
	}
	if scope != nil && !scope(r, rec) {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "incidents.forbidden"})
		return
	}
	from := rec.Status
	version := rec.Version
	review := workflow.Review{
		Decision: payload.Decision,
		Notes:    payload.Notes,
		SKPCode:  payload.SKPCode,
		MDPCode:  payload.MDPCode,
	}
	if err := apply(rec, review); err != nil {
		s.writeWorkflowError(w, err)
		return
	}
	if err := s.incidents.UpdateIncident(r.Context(), rec, version); err != nil {
		s.writeWorkflowError(w, err)
		return
	}
	sess := sessionFrom(r)
	_ = s.audits.Append(r.Context(), &store.AuditEntry{
		IncidentID: &id,
		ActorID:    sess.UserID,
		Actor:      sess.Username,
		Action:     action,
		FromStatus: string(from),
		ToStatus:   string(rec.Status),
		Payload: map[string]any{
			"decision":       review.Decision,
			"final_category": rec.FinalCategory,
		},
	})
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleCloseIncident(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "incidents.invalidID"})
		return
	}
	rec, err := s.incidents.GetIncident(r.Context(), id)
	if err != nil {
		s.writeWorkflowError(w, err)
		return
	}
	if rec == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "incidents.notFound"})
		return
	}
	from := rec.Status
	version := rec.Version
	if err := s.machine.Close(rec); err != nil {
		s.writeWorkflowError(w, err)
		return
	}
	if err := s.incidents.UpdateIncident(r.Context(), rec, version); err != nil {
		s.writeWorkflowError(w, err)
		return
	}
	sess := sessionFrom(r)
	_ = s.audits.Append(r.Context(), &store.AuditEntry{
		IncidentID: &id,
		ActorID:    sess.UserID,
		Actor:      sess.Username,
		Action:     "incidents.close",
		FromStatus: string(from),
		ToStatus:   string(rec.Status),
	})
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleIncidentAudit(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "incidents.invalidID"})
		return
	}
	rec, err := s.incidents.GetIncident(r.Context(), id)
	if err != nil {
		s.writeWorkflowError(w, err)
		return
	}
	if rec == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "incidents.notFound"})
		return
	}
	if !s.canAccessIncident(r, rec) {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "incidents.forbidden"})
		return
	}
	entries, err := s.audits.ListByIncident(r.Context(), id)
	if err != nil {
		s.writeWorkflowError(w, err)
		return
	}
	if entries == nil {
		entries = []store.AuditEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}
