package sweep

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/yusufekamaulana/rsua-akreditasi/config"
	"github.com/yusufekamaulana/rsua-akreditasi/core/engine"
	"github.com/yusufekamaulana/rsua-akreditasi/core/store"
	"github.com/yusufekamaulana/rsua-akreditasi/core/utils"
)

// Sweeper runs the scheduled housekeeping pass: it recomputes the
// hospital risk aggregate, audit-logs every department sitting at
// tinggi or ekstrem so escalations are visible even when nobody opens
// the dashboard, and purges expired sessions.
type Sweeper struct {
	incidents store.IncidentsStore
	audits    store.AuditStore
	sessions  store.SessionStore
	cfg       *config.SweepConfig
	logger    *utils.Logger
	cron      *cron.Cron
}

func New(incidents store.IncidentsStore, audits store.AuditStore, sessions store.SessionStore, cfg *config.SweepConfig, logger *utils.Logger) *Sweeper {
	return &Sweeper{
		incidents: incidents,
		audits:    audits,
		sessions:  sessions,
		cfg:       cfg,
		logger:    logger,
		cron:      cron.New(),
	}
}

func (s *Sweeper) Start() {
	if s.cfg == nil || !s.cfg.Enabled {
		s.logger.Printf("sweep: disabled")
		return
	}
	spec := s.cfg.CronSpec
	if spec == "" {
		spec = "0 2 * * *"
	}
	if _, err := s.cron.AddFunc(spec, func() { s.RunOnce(context.Background()) }); err != nil {
		s.logger.Errorf("sweep: invalid cron spec %q: %v", spec, err)
		return
	}
	s.cron.Start()
	s.logger.Printf("sweep: scheduled risk sweep (%s)", spec)
}

func (s *Sweeper) Stop() {
	ctx := s.cron.Stop()
	select {
	case <-ctx.Done():
	case <-time.After(5 * time.Second):
		s.logger.Warnf("sweep: shutdown timed out waiting for running job")
	}
}

// RunOnce performs one sweep over all incidents and sessions.
func (s *Sweeper) RunOnce(ctx context.Context) {
	if purged, err := s.sessions.DeleteExpiredSessions(ctx, utils.NowUTC()); err != nil {
		s.logger.Errorf("sweep: purge sessions: %v", err)
	} else if purged > 0 {
		s.logger.Printf("sweep: purged %d expired sessions", purged)
	}

	records, err := s.incidents.ListIncidents(ctx, store.IncidentFilter{})
	if err != nil {
		s.logger.Errorf("sweep: list incidents: %v", err)
		return
	}
	views := make([]engine.Incident, 0, len(records))
	for i := range records {
		views = append(views, records[i].EngineView())
	}
	agg := engine.BuildAggregate(views, "all")
	s.logger.Printf("sweep: %d incidents, hospital risk %s, %d escalated units",
		agg.TotalCount, agg.HospitalRiskLevel, len(agg.UnitRiskLevels))

	for _, unit := range agg.UnitRiskLevels {
		entry := &store.AuditEntry{
			Actor:  "risk-sweep",
			Action: "risk.escalation",
			Payload: map[string]any{
				"unit":           unit.Name,
				"level":          string(unit.Level),
				"recommendation": unit.Recommendation,
			},
		}
		if err := s.audits.Append(ctx, entry); err != nil {
			s.logger.Errorf("sweep: audit %s: %v", unit.Name, err)
		}
	}
}
