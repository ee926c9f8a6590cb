package api

import (
	"net/http"
	"strconv"

	"github.com/yusufekamaulana/rsua-akreditasi/core/engine"
	"github.com/yusufekamaulana/rsua-akreditasi/core/store"
)

// resolveUnitScope applies the dashboard unit filter. pj users are
// pinned to their own department regardless of what they ask for;
// mutu and admin may pick any unit or "all".
func (s *Server) resolveUnitScope(r *http.Request, requested string) (string, error) {
	sess := sessionFrom(r)
	if hasRole(sess.Roles, "admin") || hasRole(sess.Roles, "mutu") {
		if requested == "" {
			return "all", nil
		}
		return requested, nil
	}
	user, err := s.users.GetUser(r.Context(), sess.UserID)
	if err != nil {
		return "", err
	}
	if user != nil && user.Department != "" {
		return user.Department, nil
	}
	if requested == "" {
		return "all", nil
	}
	return requested, nil
}

func (s *Server) loadEngineViews(r *http.Request) ([]engine.Incident, error) {
	records, err := s.incidents.ListIncidents(r.Context(), store.IncidentFilter{})
	if err != nil {
		return nil, err
	}
	views := make([]engine.Incident, 0, len(records))
	for i := range records {
		views = append(views, records[i].EngineView())
	}
	return views, nil
}

func (s *Server) handleDashboardMutu(w http.ResponseWriter, r *http.Request) {
	unit, err := s.resolveUnitScope(r, r.URL.Query().Get("unit"))
	if err != nil {
		s.logger.Errorf("dashboard: resolve scope: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "dashboard.internal"})
		return
	}
	views, err := s.loadEngineViews(r)
	if err != nil {
		s.logger.Errorf("dashboard: list incidents: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "dashboard.internal"})
		return
	}
	units, err := s.incidents.ListUnits(r.Context())
	if err != nil {
		s.logger.Errorf("dashboard: list units: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "dashboard.internal"})
		return
	}
	if units == nil {
		units = []string{}
	}

	agg := engine.BuildAggregate(views, unit)
	writeJSON(w, http.StatusOK, map[string]any{
		"unit":           unit,
		"unit_list":      units,
		"total_insiden":  agg.TotalCount,
		"jenis_kejadian": agg.CategoryCounts,
		"skp":            engine.MergeSKPCounts(agg.SKPCounts),
		"mdp":            engine.MergeMDPCounts(agg.MDPCounts),
		"hospital_risk":  engine.PolicyFor(agg.HospitalRiskLevel),
		"units_risk":     agg.UnitRiskLevels,
	})
}

func (s *Server) handleDashboardTrend(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	view := engine.ViewMonthly
	if raw := q.Get("view"); raw != "" {
		parsed, ok := engine.ParseTrendView(raw)
		if !ok {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "dashboard.invalidView"})
			return
		}
		view = parsed
	}
	group := engine.GroupTotal
	if raw := q.Get("group"); raw != "" {
		parsed, ok := engine.ParseTrendGroup(raw)
		if !ok {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "dashboard.invalidGroup"})
			return
		}
		group = parsed
	}
	unit, err := s.resolveUnitScope(r, q.Get("unit"))
	if err != nil {
		s.logger.Errorf("dashboard: resolve scope: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "dashboard.internal"})
		return
	}

	views, err := s.loadEngineViews(r)
	if err != nil {
		s.logger.Errorf("dashboard: list incidents: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "dashboard.internal"})
		return
	}

	trend, skipped := engine.BuildTrend(views, view, group, unit)
	if skipped > 0 {
		s.logger.Warnf("dashboard: trend skipped %d records without occurrence time", skipped)
	}
	trend = engine.MergeCanonicalSeries(trend, group)

	requested := 0
	if v, err := strconv.Atoi(q.Get("window")); err == nil {
		requested = v
	}
	win := engine.SelectWindow(len(trend.Periods), requested)

	periods := trend.Periods[win.Start:win.End]
	series := make([]engine.TrendSeries, 0, len(trend.Series))
	maxValue := 0
	for _, sr := range trend.Series {
		data := sr.Data[win.Start:win.End]
		for _, v := range data {
			if v > maxValue {
				maxValue = v
			}
		}
		series = append(series, engine.TrendSeries{Key: sr.Key, Label: sr.Label, Data: data})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"view":    view,
		"group":   group,
		"unit":    unit,
		"periods": periods,
		"series":  series,
		"scale":   engine.NiceScale(maxValue),
		"window":  win,
		"skipped": skipped,
	})
}
