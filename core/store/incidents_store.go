package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/yusufekamaulana/rsua-akreditasi/core/engine"
)

// Incident is the persisted patient safety incident report. The three
// classification layers (prediction, unit review, quality review) are
// stored side by side; the final_* columns cache the reconciled view.
type Incident struct {
	ID                int64          `json:"id"`
	ReporterID        int64          `json:"reporter_id"`
	PatientName       string         `json:"patient_name,omitempty"`
	PatientIdentifier string         `json:"patient_identifier,omitempty"`
	Age               *int           `json:"age,omitempty"`
	AgeGroup          string         `json:"age_group,omitempty"`
	Gender            string         `json:"gender,omitempty"`
	PayerType         string         `json:"payer_type,omitempty"`
	Unit              string         `json:"unit"`
	IncidentPlace     string         `json:"incident_place,omitempty"`
	HarmIndicator     string         `json:"harm_indicator,omitempty"`
	AdmissionAt       *time.Time     `json:"admission_at,omitempty"`
	OccurredAt        *time.Time     `json:"occurred_at,omitempty"`
	Description       string         `json:"free_text_description"`
	Status            engine.Status  `json:"status"`

	PredictedCategory   string  `json:"predicted_category,omitempty"`
	PredictedConfidence float64 `json:"predicted_confidence,omitempty"`
	ModelVersion        string  `json:"model_version,omitempty"`
	PredictedSKP        string  `json:"predicted_skp,omitempty"`
	PredictedMDP        string  `json:"predicted_mdp,omitempty"`

	PJDecision string `json:"pj_decision,omitempty"`
	PJNotes    string `json:"pj_notes,omitempty"`
	PJSKP      string `json:"pj_skp,omitempty"`
	PJMDP      string `json:"pj_mdp,omitempty"`

	MutuDecision string `json:"mutu_decision,omitempty"`
	MutuNotes    string `json:"mutu_notes,omitempty"`
	MutuSKP      string `json:"mutu_skp,omitempty"`
	MutuMDP      string `json:"mutu_mdp,omitempty"`

	FinalCategory   string         `json:"final_category,omitempty"`
	SKPLabel        string         `json:"skp_output,omitempty"`
	SKPUnclassified bool           `json:"skp_unclassified"`
	MDPLabel        string         `json:"mdp_output,omitempty"`
	MDPUnclassified bool           `json:"mdp_unclassified"`
	Grading         engine.Grading `json:"grading,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Version   int       `json:"version"`
}

// EngineView projects the record into the aggregation engine's read model.
func (i *Incident) EngineView() engine.Incident {
	var occurred time.Time
	if i.OccurredAt != nil {
		occurred = *i.OccurredAt
	}
	return engine.Incident{
		ID:         i.ID,
		Unit:       i.Unit,
		Status:     i.Status,
		OccurredAt: occurred,
		Grading:    i.Grading,
		Predicted:  engine.Classification{Category: i.PredictedCategory, SKPCode: i.PredictedSKP, MDPCode: i.PredictedMDP},
		PJ:         engine.Classification{Category: i.PJDecision, SKPCode: i.PJSKP, MDPCode: i.PJMDP},
		Mutu:       engine.Classification{Category: i.MutuDecision, SKPCode: i.MutuSKP, MDPCode: i.MutuMDP},
	}
}

type IncidentFilter struct {
	Unit       string
	Status     string
	ReporterID int64
	Search     string
	Limit      int
	Offset     int
}

type IncidentsStore interface {
	CreateIncident(ctx context.Context, incident *Incident) (int64, error)
	UpdateIncident(ctx context.Context, incident *Incident, expectedVersion int) error
	GetIncident(ctx context.Context, id int64) (*Incident, error)
	ListIncidents(ctx context.Context, filter IncidentFilter) ([]Incident, error)
	CountUnitInMonth(ctx context.Context, unit string, at time.Time) (int, error)
	ListUnits(ctx context.Context) ([]string, error)
}

type incidentsStore struct {
	db *sql.DB
}

func NewIncidentsStore(db *sql.DB) IncidentsStore {
	return &incidentsStore{db: db}
}

const incidentColumns = `id, reporter_id, patient_name, patient_identifier, age, age_group, gender, payer_type, unit, incident_place, harm_indicator, admission_at, occurred_at, description, status, predicted_category, predicted_confidence, model_version, predicted_skp, predicted_mdp, pj_decision, pj_notes, pj_skp, pj_mdp, mutu_decision, mutu_notes, mutu_skp, mutu_mdp, final_category, skp_label, skp_unclassified, mdp_label, mdp_unclassified, grading, created_at, updated_at, version`

func (s *incidentsStore) CreateIncident(ctx context.Context, incident *Incident) (int64, error) {
	if incident.Version <= 0 {
		incident.Version = 1
	}
	if incident.Status == "" {
		incident.Status = engine.StatusDraft
	}
	now := time.Now().UTC()
	incident.CreatedAt = now
	incident.UpdatedAt = now
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO incidents(reporter_id, patient_name, patient_identifier, age, age_group, gender, payer_type, unit, incident_place, harm_indicator, admission_at, occurred_at, description, status, predicted_category, predicted_confidence, model_version, predicted_skp, predicted_mdp, pj_decision, pj_notes, pj_skp, pj_mdp, mutu_decision, mutu_notes, mutu_skp, mutu_mdp, final_category, skp_label, skp_unclassified, mdp_label, mdp_unclassified, grading, created_at, updated_at, version)
		VALUES(?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		incident.ReporterID, incident.PatientName, incident.PatientIdentifier, nullableInt(incident.Age), incident.AgeGroup, incident.Gender, incident.PayerType, strings.TrimSpace(incident.Unit), incident.IncidentPlace, incident.HarmIndicator, nullableTime(incident.AdmissionAt), nullableTime(incident.OccurredAt), incident.Description, string(incident.Status), incident.PredictedCategory, incident.PredictedConfidence, incident.ModelVersion, incident.PredictedSKP, incident.PredictedMDP, incident.PJDecision, incident.PJNotes, incident.PJSKP, incident.PJMDP, incident.MutuDecision, incident.MutuNotes, incident.MutuSKP, incident.MutuMDP, incident.FinalCategory, incident.SKPLabel, incident.SKPUnclassified, incident.MDPLabel, incident.MDPUnclassified, string(incident.Grading), now, now, incident.Version)
	if err != nil {
		return 0, err
	}
	id, _ := res.LastInsertId()
	incident.ID = id
	return id, nil
}

func (s *incidentsStore) UpdateIncident(ctx context.Context, incident *Incident, expectedVersion int) error {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		UPDATE incidents SET patient_name=?, patient_identifier=?, age=?, age_group=?, gender=?, payer_type=?, unit=?, incident_place=?, harm_indicator=?, admission_at=?, occurred_at=?, description=?, status=?, predicted_category=?, predicted_confidence=?, model_version=?, predicted_skp=?, predicted_mdp=?, pj_decision=?, pj_notes=?, pj_skp=?, pj_mdp=?, mutu_decision=?, mutu_notes=?, mutu_skp=?, mutu_mdp=?, final_category=?, skp_label=?, skp_unclassified=?, mdp_label=?, mdp_unclassified=?, grading=?, updated_at=?, version=version+1
		WHERE id=? AND version=?`,
		incident.PatientName, incident.PatientIdentifier, nullableInt(incident.Age), incident.AgeGroup, incident.Gender, incident.PayerType, strings.TrimSpace(incident.Unit), incident.IncidentPlace, incident.HarmIndicator, nullableTime(incident.AdmissionAt), nullableTime(incident.OccurredAt), incident.Description, string(incident.Status), incident.PredictedCategory, incident.PredictedConfidence, incident.ModelVersion, incident.PredictedSKP, incident.PredictedMDP, incident.PJDecision, incident.PJNotes, incident.PJSKP, incident.PJMDP, incident.MutuDecision, incident.MutuNotes, incident.MutuSKP, incident.MutuMDP, incident.FinalCategory, incident.SKPLabel, incident.SKPUnclassified, incident.MDPLabel, incident.MDPUnclassified, string(incident.Grading), now, incident.ID, expectedVersion)
	if err != nil {
		return err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrConflict
	}
	incident.Version = expectedVersion + 1
	incident.UpdatedAt = now
	return nil
}

func (s *incidentsStore) GetIncident(ctx context.Context, id int64) (*Incident, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+incidentColumns+` FROM incidents WHERE id=?`, id)
	incident, err := scanIncident(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &incident, nil
}

func (s *incidentsStore) ListIncidents(ctx context.Context, filter IncidentFilter) ([]Incident, error) {
	var clauses []string
	var args []any
	if strings.TrimSpace(filter.Unit) != "" && !strings.EqualFold(filter.Unit, "all") {
		clauses = append(clauses, "LOWER(unit)=LOWER(?)")
		args = append(args, strings.TrimSpace(filter.Unit))
	}
	if filter.Status != "" {
		clauses = append(clauses, "status=?")
		args = append(args, filter.Status)
	}
	if filter.ReporterID > 0 {
		clauses = append(clauses, "reporter_id=?")
		args = append(args, filter.ReporterID)
	}
	if filter.Search != "" {
		clauses = append(clauses, "(description LIKE ? OR patient_name LIKE ? OR incident_place LIKE ?)")
		q := "%" + filter.Search + "%"
		args = append(args, q, q, q)
	}
	query := `SELECT ` + incidentColumns + ` FROM incidents`
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY updated_at DESC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
		if filter.Offset > 0 {
			query += fmt.Sprintf(" OFFSET %d", filter.Offset)
		}
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Incident
	for rows.Next() {
		incident, err := scanIncident(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, incident)
	}
	return res, rows.Err()
}

// CountUnitInMonth counts incidents of a unit in the calendar month
// containing at. Used as the frequency axis of the grading matrix.
func (s *incidentsStore) CountUnitInMonth(ctx context.Context, unit string, at time.Time) (int, error) {
	start := time.Date(at.Year(), at.Month(), 1, 0, 0, 0, 0, time.UTC)
	next := start.AddDate(0, 1, 0)
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(id) FROM incidents
		WHERE LOWER(unit)=LOWER(?) AND occurred_at >= ? AND occurred_at < ?`,
		strings.TrimSpace(unit), start, next).Scan(&count)
	return count, err
}

func (s *incidentsStore) ListUnits(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT unit FROM incidents WHERE unit != '' ORDER BY unit`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var units []string
	for rows.Next() {
		var unit string
		if err := rows.Scan(&unit); err != nil {
			return nil, err
		}
		units = append(units, unit)
	}
	return units, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanIncident(row rowScanner) (Incident, error) {
	var inc Incident
	var age sql.NullInt64
	var admissionAt, occurredAt sql.NullTime
	var status, grading string
	err := row.Scan(
		&inc.ID, &inc.ReporterID, &inc.PatientName, &inc.PatientIdentifier, &age, &inc.AgeGroup, &inc.Gender, &inc.PayerType, &inc.Unit, &inc.IncidentPlace, &inc.HarmIndicator, &admissionAt, &occurredAt, &inc.Description, &status,
		&inc.PredictedCategory, &inc.PredictedConfidence, &inc.ModelVersion, &inc.PredictedSKP, &inc.PredictedMDP,
		&inc.PJDecision, &inc.PJNotes, &inc.PJSKP, &inc.PJMDP,
		&inc.MutuDecision, &inc.MutuNotes, &inc.MutuSKP, &inc.MutuMDP,
		&inc.FinalCategory, &inc.SKPLabel, &inc.SKPUnclassified, &inc.MDPLabel, &inc.MDPUnclassified, &grading,
		&inc.CreatedAt, &inc.UpdatedAt, &inc.Version,
	)
	if err != nil {
		return Incident{}, err
	}
	inc.Status = engine.Status(status)
	inc.Grading = engine.Grading(grading)
	if age.Valid {
		v := int(age.Int64)
		inc.Age = &v
	}
	if admissionAt.Valid {
		t := admissionAt.Time.UTC()
		inc.AdmissionAt = &t
	}
	if occurredAt.Valid {
		t := occurredAt.Time.UTC()
		inc.OccurredAt = &t
	}
	return inc, nil
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}

func nullableInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}
