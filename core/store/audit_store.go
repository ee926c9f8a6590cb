package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"
)

// AuditEntry records one workflow transition or security-relevant
// action. IncidentID is nil for actions outside the incident workflow
// (logins, sweeps).
type AuditEntry struct {
	ID         int64          `json:"id"`
	IncidentID *int64         `json:"incident_id,omitempty"`
	ActorID    int64          `json:"actor_id"`
	Actor      string         `json:"actor"`
	Action     string         `json:"action"`
	FromStatus string         `json:"from_status,omitempty"`
	ToStatus   string         `json:"to_status,omitempty"`
	Payload    map[string]any `json:"payload,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

type AuditStore interface {
	Append(ctx context.Context, entry *AuditEntry) error
	ListByIncident(ctx context.Context, incidentID int64) ([]AuditEntry, error)
}

type auditStore struct {
	db *sql.DB
}

func NewAuditStore(db *sql.DB) AuditStore {
	return &auditStore{db: db}
}

func (s *auditStore) Append(ctx context.Context, entry *AuditEntry) error {
	now := time.Now().UTC()
	entry.CreatedAt = now
	payload := "{}"
	if len(entry.Payload) > 0 {
		if buf, err := json.Marshal(entry.Payload); err == nil {
			payload = string(buf)
		}
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_log(incident_id, actor_id, actor, action, from_status, to_status, payload_json, created_at)
		VALUES(?,?,?,?,?,?,?,?)`,
		nullableID(entry.IncidentID), entry.ActorID, entry.Actor, entry.Action, entry.FromStatus, entry.ToStatus, payload, now)
	if err != nil {
		return err
	}
	entry.ID, _ = res.LastInsertId()
	return nil
}

func (s *auditStore) ListByIncident(ctx context.Context, incidentID int64) ([]AuditEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, incident_id, actor_id, actor, action, from_status, to_status, payload_json, created_at
		FROM audit_log WHERE incident_id=? ORDER BY created_at ASC, id ASC`, incidentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entries []AuditEntry
	for rows.Next() {
		var e AuditEntry
		var incID sql.NullInt64
		var payloadJSON string
		if err := rows.Scan(&e.ID, &incID, &e.ActorID, &e.Actor, &e.Action, &e.FromStatus, &e.ToStatus, &payloadJSON, &e.CreatedAt); err != nil {
			return nil, err
		}
		if incID.Valid {
			v := incID.Int64
			e.IncidentID = &v
		}
		if payloadJSON != "" && payloadJSON != "{}" {
			_ = json.Unmarshal([]byte(payloadJSON), &e.Payload)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func nullableID(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}
