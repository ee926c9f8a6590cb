package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/yusufekamaulana/rsua-akreditasi/config"
	"github.com/yusufekamaulana/rsua-akreditasi/core/auth"
	"github.com/yusufekamaulana/rsua-akreditasi/core/classify"
	"github.com/yusufekamaulana/rsua-akreditasi/core/engine"
	"github.com/yusufekamaulana/rsua-akreditasi/core/rbac"
	"github.com/yusufekamaulana/rsua-akreditasi/core/store"
	"github.com/yusufekamaulana/rsua-akreditasi/core/utils"
	"github.com/yusufekamaulana/rsua-akreditasi/core/workflow"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.AppConfig{
		DBPath:     filepath.Join(dir, "api.db"),
		Pepper:     "test-pepper",
		CSRFKey:    "test-csrf-key",
		SessionTTL: time.Hour,
		Security:   config.SecurityConfig{LoginMaxAttempts: 3, LoginLockoutMin: 15},
	}
	logger := utils.NewLogger()
	db, err := store.NewDB(cfg, logger)
	if err != nil {
		t.Fatalf("db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := store.ApplyMigrations(context.Background(), db, cfg.DBDriver, logger); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	policy, err := rbac.NewPolicy()
	if err != nil {
		t.Fatalf("policy: %v", err)
	}
	return NewServer(Deps{
		Cfg:       cfg,
		Logger:    logger,
		Policy:    policy,
		Users:     store.NewUsersStore(db),
		Sessions:  store.NewSessionStore(db),
		Incidents: store.NewIncidentsStore(db),
		Audits:    store.NewAuditStore(db),
		Machine:   workflow.NewMachine(classify.Heuristic{Version: "heuristic-v1"}),
	})
}

func createTestUser(t *testing.T, s *Server, username, department string, roles ...string) *store.User {
	t.Helper()
	user := &store.User{
		Username:   username,
		FullName:   username,
		Roles:      roles,
		Department: department,
		IsActive:   true,
	}
	if _, err := s.users.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	return user
}

func sessionFor(user *store.User) *store.SessionRecord {
	return &store.SessionRecord{
		ID:       "sess-" + user.Username,
		UserID:   user.ID,
		Username: user.Username,
		Roles:    user.Roles,
	}
}

func doHandler(t *testing.T, handler http.HandlerFunc, method, target string, body any, sess *store.SessionRecord, params map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	ctx := req.Context()
	if sess != nil {
		ctx = context.WithValue(ctx, auth.SessionContextKey, sess)
	}
	if len(params) > 0 {
		routeCtx := chi.NewRouteContext()
		for k, v := range params {
			routeCtx.URLParams.Add(k, v)
		}
		ctx = context.WithValue(ctx, chi.RouteCtxKey, routeCtx)
	}
	rec := httptest.NewRecorder()
	handler(rec, req.WithContext(ctx))
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}

func draftPayload() map[string]any {
	occurred := time.Date(2025, 3, 10, 14, 30, 0, 0, time.UTC)
	admission := occurred.Add(-48 * time.Hour)
	return map[string]any{
		"patient_name":          "Tn. S",
		"age":                   62,
		"gender":                "L",
		"unit":                  "IGD",
		"incident_place":        "IGD",
		"harm_indicator":        "Tidak ada cedera",
		"admission_at":          admission,
		"occurred_at":           occurred,
		"free_text_description": "Pasien jatuh dari tempat tidur saat hendak ke kamar mandi",
	}
}

func TestIncidentLifecycle(t *testing.T) {
	s := newTestServer(t)
	perawat := createTestUser(t, s, "ns.rina", "IGD", "perawat")
	pj := createTestUser(t, s, "pj.igd", "IGD", "pj")
	mutu := createTestUser(t, s, "mutu.dewi", "", "mutu")

	rec := doHandler(t, s.handleCreateIncident, http.MethodPost, "/api/incidents", draftPayload(), sessionFor(perawat), nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: status %d body %s", rec.Code, rec.Body.String())
	}
	var created store.Incident
	decodeBody(t, rec, &created)
	if created.Status != engine.StatusDraft {
		t.Fatalf("create: status = %s, want DRAFT", created.Status)
	}
	if created.AgeGroup != "lansia" {
		t.Fatalf("create: age_group = %q, want lansia", created.AgeGroup)
	}
	id := fmt.Sprintf("%d", created.ID)

	rec = doHandler(t, s.handleSubmitIncident, http.MethodPost, "/api/incidents/"+id+"/submit", nil, sessionFor(perawat), map[string]string{"id": id})
	if rec.Code != http.StatusOK {
		t.Fatalf("submit: status %d body %s", rec.Code, rec.Body.String())
	}
	var submitted store.Incident
	decodeBody(t, rec, &submitted)
	if submitted.Status != engine.StatusSubmitted {
		t.Fatalf("submit: status = %s", submitted.Status)
	}
	if submitted.PredictedCategory != "KTD" {
		t.Fatalf("submit: predicted = %q, want KTD", submitted.PredictedCategory)
	}
	if submitted.Grading != engine.GradingBiru {
		t.Fatalf("submit: grading = %q, want BIRU", submitted.Grading)
	}
	if submitted.FinalCategory != "KTD" {
		t.Fatalf("submit: final_category = %q, want KTD", submitted.FinalCategory)
	}

	rec = doHandler(t, s.handleReviewByUnit, http.MethodPost, "/api/incidents/"+id+"/review/unit",
		map[string]any{"decision": "KTD", "notes": "validasi unit"}, sessionFor(pj), map[string]string{"id": id})
	if rec.Code != http.StatusOK {
		t.Fatalf("unit review: status %d body %s", rec.Code, rec.Body.String())
	}
	var unitReviewed store.Incident
	decodeBody(t, rec, &unitReviewed)
	if unitReviewed.Status != engine.StatusPJReviewed {
		t.Fatalf("unit review: status = %s", unitReviewed.Status)
	}

	rec = doHandler(t, s.handleReviewByQuality, http.MethodPost, "/api/incidents/"+id+"/review/quality",
		map[string]any{"decision": "KNC", "skp_code": "2"}, sessionFor(mutu), map[string]string{"id": id})
	if rec.Code != http.StatusOK {
		t.Fatalf("quality review: status %d body %s", rec.Code, rec.Body.String())
	}
	var qualityReviewed store.Incident
	decodeBody(t, rec, &qualityReviewed)
	if qualityReviewed.Status != engine.StatusMutuReviewed {
		t.Fatalf("quality review: status = %s", qualityReviewed.Status)
	}
	if qualityReviewed.FinalCategory != "KNC" {
		t.Fatalf("quality review: final_category = %q, want KNC", qualityReviewed.FinalCategory)
	}
	if qualityReviewed.SKPLabel != "SKP 2" || qualityReviewed.SKPUnclassified {
		t.Fatalf("quality review: skp = %q unclassified=%v", qualityReviewed.SKPLabel, qualityReviewed.SKPUnclassified)
	}

	rec = doHandler(t, s.handleCloseIncident, http.MethodPost, "/api/incidents/"+id+"/close", nil, sessionFor(mutu), map[string]string{"id": id})
	if rec.Code != http.StatusOK {
		t.Fatalf("close: status %d body %s", rec.Code, rec.Body.String())
	}
	rec = doHandler(t, s.handleCloseIncident, http.MethodPost, "/api/incidents/"+id+"/close", nil, sessionFor(mutu), map[string]string{"id": id})
	if rec.Code != http.StatusConflict {
		t.Fatalf("double close: status %d, want 409", rec.Code)
	}

	rec = doHandler(t, s.handleIncidentAudit, http.MethodGet, "/api/incidents/"+id+"/audit", nil, sessionFor(mutu), map[string]string{"id": id})
	if rec.Code != http.StatusOK {
		t.Fatalf("audit: status %d", rec.Code)
	}
	var auditResp struct {
		Entries []store.AuditEntry `json:"entries"`
	}
	decodeBody(t, rec, &auditResp)
	if len(auditResp.Entries) < 5 {
		t.Fatalf("audit: %d entries, want at least 5", len(auditResp.Entries))
	}
}

func TestResubmitIsIdempotent(t *testing.T) {
	s := newTestServer(t)
	perawat := createTestUser(t, s, "ns.dwi", "IGD", "perawat")

	rec := doHandler(t, s.handleCreateIncident, http.MethodPost, "/api/incidents", draftPayload(), sessionFor(perawat), nil)
	var created store.Incident
	decodeBody(t, rec, &created)
	id := fmt.Sprintf("%d", created.ID)

	rec = doHandler(t, s.handleSubmitIncident, http.MethodPost, "/api/incidents/"+id+"/submit", nil, sessionFor(perawat), map[string]string{"id": id})
	if rec.Code != http.StatusOK {
		t.Fatalf("submit: status %d body %s", rec.Code, rec.Body.String())
	}
	var first store.Incident
	decodeBody(t, rec, &first)

	rec = doHandler(t, s.handleSubmitIncident, http.MethodPost, "/api/incidents/"+id+"/submit", nil, sessionFor(perawat), map[string]string{"id": id})
	if rec.Code != http.StatusOK {
		t.Fatalf("resubmit: status %d body %s", rec.Code, rec.Body.String())
	}

	reloaded, err := s.incidents.GetIncident(context.Background(), created.ID)
	if err != nil || reloaded == nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.Version != first.Version {
		t.Fatalf("resubmit bumped version: %d -> %d", first.Version, reloaded.Version)
	}
	if !reloaded.UpdatedAt.Equal(first.UpdatedAt) {
		t.Fatalf("resubmit touched updated_at: %v -> %v", first.UpdatedAt, reloaded.UpdatedAt)
	}

	entries, err := s.audits.ListByIncident(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("audit: %v", err)
	}
	submits := 0
	for _, e := range entries {
		if e.Action == "incidents.submit" {
			submits++
		}
	}
	if submits != 1 {
		t.Fatalf("resubmit wrote %d incidents.submit audit rows, want 1", submits)
	}
}

func TestSubmitValidation(t *testing.T) {
	s := newTestServer(t)
	perawat := createTestUser(t, s, "ns.andi", "IGD", "perawat")

	cases := []struct {
		name      string
		mutate    func(map[string]any)
		wantField string
	}{
		{
			name:      "short narrative",
			mutate:    func(p map[string]any) { p["free_text_description"] = "jatuh" },
			wantField: "free_text_description",
		},
		{
			name:      "missing occurrence time",
			mutate:    func(p map[string]any) { delete(p, "occurred_at") },
			wantField: "occurred_at",
		},
		{
			name:      "future occurrence time",
			mutate:    func(p map[string]any) { p["occurred_at"] = time.Now().UTC().Add(48 * time.Hour) },
			wantField: "occurred_at",
		},
		{
			name: "admission after occurrence",
			mutate: func(p map[string]any) {
				p["admission_at"] = time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC)
			},
			wantField: "admission_at",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			payload := draftPayload()
			tc.mutate(payload)
			rec := doHandler(t, s.handleCreateIncident, http.MethodPost, "/api/incidents", payload, sessionFor(perawat), nil)
			if rec.Code != http.StatusCreated {
				t.Fatalf("create: status %d body %s", rec.Code, rec.Body.String())
			}
			var created store.Incident
			decodeBody(t, rec, &created)
			id := fmt.Sprintf("%d", created.ID)

			rec = doHandler(t, s.handleSubmitIncident, http.MethodPost, "/api/incidents/"+id+"/submit", nil, sessionFor(perawat), map[string]string{"id": id})
			if rec.Code != http.StatusUnprocessableEntity {
				t.Fatalf("submit: status %d, want 422 (body %s)", rec.Code, rec.Body.String())
			}
			var errResp map[string]string
			decodeBody(t, rec, &errResp)
			if errResp["field"] != tc.wantField {
				t.Fatalf("submit: field = %q, want %q", errResp["field"], tc.wantField)
			}
			got, err := s.incidents.GetIncident(context.Background(), created.ID)
			if err != nil || got == nil {
				t.Fatalf("reload: %v", err)
			}
			if got.Status != engine.StatusDraft {
				t.Fatalf("failed submit must keep DRAFT, got %s", got.Status)
			}
		})
	}
}

func TestUpdateDraftOnlyAndVersionConflict(t *testing.T) {
	s := newTestServer(t)
	perawat := createTestUser(t, s, "ns.budi", "IGD", "perawat")

	rec := doHandler(t, s.handleCreateIncident, http.MethodPost, "/api/incidents", draftPayload(), sessionFor(perawat), nil)
	var created store.Incident
	decodeBody(t, rec, &created)
	id := fmt.Sprintf("%d", created.ID)

	stale := draftPayload()
	stale["version"] = 99
	rec = doHandler(t, s.handleUpdateIncident, http.MethodPut, "/api/incidents/"+id, stale, sessionFor(perawat), map[string]string{"id": id})
	if rec.Code != http.StatusConflict {
		t.Fatalf("stale update: status %d, want 409", rec.Code)
	}
	var errResp map[string]string
	decodeBody(t, rec, &errResp)
	if errResp["error"] != "incidents.conflictVersion" {
		t.Fatalf("stale update: error = %q", errResp["error"])
	}

	rec = doHandler(t, s.handleSubmitIncident, http.MethodPost, "/api/incidents/"+id+"/submit", nil, sessionFor(perawat), map[string]string{"id": id})
	if rec.Code != http.StatusOK {
		t.Fatalf("submit: status %d body %s", rec.Code, rec.Body.String())
	}
	rec = doHandler(t, s.handleUpdateIncident, http.MethodPut, "/api/incidents/"+id, draftPayload(), sessionFor(perawat), map[string]string{"id": id})
	if rec.Code != http.StatusConflict {
		t.Fatalf("update after submit: status %d, want 409", rec.Code)
	}
}

func TestIncidentReadScoping(t *testing.T) {
	s := newTestServer(t)
	reporter := createTestUser(t, s, "ns.sari", "IGD", "perawat")
	otherNurse := createTestUser(t, s, "ns.lain", "ICU", "perawat")
	pjICU := createTestUser(t, s, "pj.icu", "ICU", "pj")
	pjIGD := createTestUser(t, s, "pj.igd2", "IGD", "pj")
	mutu := createTestUser(t, s, "mutu.eka", "", "mutu")

	rec := doHandler(t, s.handleCreateIncident, http.MethodPost, "/api/incidents", draftPayload(), sessionFor(reporter), nil)
	var created store.Incident
	decodeBody(t, rec, &created)
	id := fmt.Sprintf("%d", created.ID)

	cases := []struct {
		name string
		sess *store.SessionRecord
		want int
	}{
		{"reporter", sessionFor(reporter), http.StatusOK},
		{"other nurse", sessionFor(otherNurse), http.StatusForbidden},
		{"pj other department", sessionFor(pjICU), http.StatusForbidden},
		{"pj same department", sessionFor(pjIGD), http.StatusOK},
		{"quality committee", sessionFor(mutu), http.StatusOK},
	}
	for _, tc := range cases {
		rec := doHandler(t, s.handleGetIncident, http.MethodGet, "/api/incidents/"+id, nil, tc.sess, map[string]string{"id": id})
		if rec.Code != tc.want {
			t.Errorf("%s: status %d, want %d", tc.name, rec.Code, tc.want)
		}
	}

	rec = doHandler(t, s.handleListIncidents, http.MethodGet, "/api/incidents", nil, sessionFor(otherNurse), nil)
	var listResp struct {
		Count int `json:"count"`
	}
	decodeBody(t, rec, &listResp)
	if listResp.Count != 0 {
		t.Fatalf("other nurse list: %d incidents, want 0", listResp.Count)
	}
}

func TestUnitReviewDepartmentScope(t *testing.T) {
	s := newTestServer(t)
	perawat := createTestUser(t, s, "ns.tia", "IGD", "perawat")
	pjICU := createTestUser(t, s, "pj.icu2", "ICU", "pj")

	rec := doHandler(t, s.handleCreateIncident, http.MethodPost, "/api/incidents", draftPayload(), sessionFor(perawat), nil)
	var created store.Incident
	decodeBody(t, rec, &created)
	id := fmt.Sprintf("%d", created.ID)
	doHandler(t, s.handleSubmitIncident, http.MethodPost, "/api/incidents/"+id+"/submit", nil, sessionFor(perawat), map[string]string{"id": id})

	rec = doHandler(t, s.handleReviewByUnit, http.MethodPost, "/api/incidents/"+id+"/review/unit",
		map[string]any{"decision": "KTD"}, sessionFor(pjICU), map[string]string{"id": id})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("pj of another department: status %d, want 403", rec.Code)
	}
}

func seedSubmitted(t *testing.T, s *Server, unit, category, skp, mdp string, grading engine.Grading, occurred time.Time) {
	t.Helper()
	occ := occurred
	rec := &store.Incident{
		ReporterID:        1,
		Unit:              unit,
		Status:            engine.StatusSubmitted,
		OccurredAt:        &occ,
		Description:       "insiden keselamatan pasien untuk pengujian",
		PredictedCategory: category,
		PredictedSKP:      skp,
		PredictedMDP:      mdp,
		Grading:           grading,
	}
	if _, err := s.incidents.CreateIncident(context.Background(), rec); err != nil {
		t.Fatalf("seed incident: %v", err)
	}
}

func TestDashboardMutu(t *testing.T) {
	s := newTestServer(t)
	mutu := createTestUser(t, s, "mutu.ani", "", "mutu")

	jan := time.Date(2025, 1, 15, 8, 0, 0, 0, time.UTC)
	seedSubmitted(t, s, "IGD", "KTD", "1", "3", engine.GradingMerah, jan)
	seedSubmitted(t, s, "IGD", "KNC", "2", "", engine.GradingBiru, jan.AddDate(0, 0, 2))
	seedSubmitted(t, s, "ICU", "KTC", "", "7", engine.GradingKuning, jan.AddDate(0, 1, 0))

	rec := doHandler(t, s.handleDashboardMutu, http.MethodGet, "/api/dashboard/mutu", nil, sessionFor(mutu), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("dashboard: status %d body %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Unit         string            `json:"unit"`
		Total        int               `json:"total_insiden"`
		Jenis        map[string]int    `json:"jenis_kejadian"`
		SKP          map[string]int    `json:"skp"`
		MDP          map[string]int    `json:"mdp"`
		HospitalRisk engine.RiskPolicy `json:"hospital_risk"`
		UnitsRisk    []engine.UnitRisk `json:"units_risk"`
		UnitList     []string          `json:"unit_list"`
	}
	decodeBody(t, rec, &resp)

	if resp.Unit != "all" {
		t.Fatalf("unit = %q, want all", resp.Unit)
	}
	if resp.Total != 3 {
		t.Fatalf("total = %d, want 3", resp.Total)
	}
	if len(resp.Jenis) != 5 || resp.Jenis["KTD"] != 1 || resp.Jenis["SENTINEL"] != 0 {
		t.Fatalf("jenis = %v", resp.Jenis)
	}
	if len(resp.SKP) != 6 || resp.SKP["SKP 1"] != 1 || resp.SKP["SKP 6"] != 0 {
		t.Fatalf("skp = %v", resp.SKP)
	}
	if len(resp.MDP) != 17 || resp.MDP["MDP 3"] != 1 {
		t.Fatalf("mdp universe size %d, MDP 3 = %d", len(resp.MDP), resp.MDP["MDP 3"])
	}
	if resp.HospitalRisk.Level != engine.RiskEkstrem || resp.HospitalRisk.Recommendation == "" {
		t.Fatalf("hospital risk = %+v", resp.HospitalRisk)
	}
	if len(resp.UnitsRisk) != 2 || resp.UnitsRisk[0].Name != "IGD" || resp.UnitsRisk[1].Name != "ICU" {
		t.Fatalf("units risk = %+v", resp.UnitsRisk)
	}
	if len(resp.UnitList) != 2 {
		t.Fatalf("unit_list = %v", resp.UnitList)
	}
}

func TestDashboardTrendWindowAndScale(t *testing.T) {
	s := newTestServer(t)
	mutu := createTestUser(t, s, "mutu.ira", "", "mutu")

	seedSubmitted(t, s, "IGD", "KTD", "", "", engine.GradingBiru, time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC))
	seedSubmitted(t, s, "IGD", "KTD", "", "", engine.GradingBiru, time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC))
	seedSubmitted(t, s, "ICU", "KNC", "", "", engine.GradingBiru, time.Date(2025, 4, 5, 0, 0, 0, 0, time.UTC))

	rec := doHandler(t, s.handleDashboardTrend, http.MethodGet, "/api/dashboard/mutu/trend?view=monthly&group=total", nil, sessionFor(mutu), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("trend: status %d body %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Periods []string             `json:"periods"`
		Series  []engine.TrendSeries `json:"series"`
		Scale   engine.Scale         `json:"scale"`
		Window  engine.Window        `json:"window"`
	}
	decodeBody(t, rec, &resp)

	// full axis is Jan..Apr; the default window keeps the last 3 periods
	wantPeriods := []string{"2025-02", "2025-03", "2025-04"}
	if len(resp.Periods) != 3 || resp.Periods[0] != wantPeriods[0] || resp.Periods[2] != wantPeriods[2] {
		t.Fatalf("periods = %v, want %v", resp.Periods, wantPeriods)
	}
	if resp.Window.Start != 1 || resp.Window.End != 4 {
		t.Fatalf("window = %+v", resp.Window)
	}
	if len(resp.Series) != 1 || resp.Series[0].Label != "Total Insiden" {
		t.Fatalf("series = %+v", resp.Series)
	}
	wantData := []int{0, 0, 1}
	for i, v := range resp.Series[0].Data {
		if v != wantData[i] {
			t.Fatalf("data = %v, want %v", resp.Series[0].Data, wantData)
		}
	}
	if resp.Scale.Max != 5 || resp.Scale.Step != 1 {
		t.Fatalf("scale = %+v", resp.Scale)
	}

	rec = doHandler(t, s.handleDashboardTrend, http.MethodGet, "/api/dashboard/mutu/trend?view=daily", nil, sessionFor(mutu), nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("invalid view: status %d, want 400", rec.Code)
	}
}

func TestDashboardScopePinsPJToDepartment(t *testing.T) {
	s := newTestServer(t)
	pj := createTestUser(t, s, "pj.igd3", "IGD", "pj")

	seedSubmitted(t, s, "IGD", "KTD", "", "", engine.GradingBiru, time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC))
	seedSubmitted(t, s, "ICU", "KNC", "", "", engine.GradingBiru, time.Date(2025, 2, 2, 0, 0, 0, 0, time.UTC))

	rec := doHandler(t, s.handleDashboardMutu, http.MethodGet, "/api/dashboard/mutu?unit=all", nil, sessionFor(pj), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("dashboard: status %d", rec.Code)
	}
	var resp struct {
		Unit  string `json:"unit"`
		Total int    `json:"total_insiden"`
	}
	decodeBody(t, rec, &resp)
	if resp.Unit != "IGD" || resp.Total != 1 {
		t.Fatalf("pj scope: unit=%q total=%d, want IGD/1", resp.Unit, resp.Total)
	}
}

func TestLoginLockout(t *testing.T) {
	s := newTestServer(t)
	hash, err := auth.HashPassword("benar-sekali", s.cfg.Pepper)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	user := &store.User{Username: "dr.tono", PasswordHash: hash, Roles: []string{"mutu"}, IsActive: true}
	if _, err := s.users.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("create user: %v", err)
	}

	login := func(password string) *httptest.ResponseRecorder {
		return doHandler(t, s.handleLogin, http.MethodPost, "/api/auth/login",
			map[string]string{"username": "dr.tono", "password": password}, nil, nil)
	}

	for i := 0; i < 3; i++ {
		if rec := login("salah"); rec.Code != http.StatusUnauthorized {
			t.Fatalf("attempt %d: status %d, want 401", i+1, rec.Code)
		}
	}
	if rec := login("benar-sekali"); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("locked account: status %d, want 429", rec.Code)
	}
}

func TestLoginSuccessSetsCookies(t *testing.T) {
	s := newTestServer(t)
	hash, err := auth.HashPassword("rahasia-kuat", s.cfg.Pepper)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	user := &store.User{Username: "ns.wati", PasswordHash: hash, Roles: []string{"perawat"}, IsActive: true}
	if _, err := s.users.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("create user: %v", err)
	}

	rec := doHandler(t, s.handleLogin, http.MethodPost, "/api/auth/login",
		map[string]string{"username": "NS.WATI", "password": "rahasia-kuat"}, nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("login: status %d body %s", rec.Code, rec.Body.String())
	}
	cookies := rec.Result().Cookies()
	var haveSession, haveCSRF bool
	for _, c := range cookies {
		switch c.Name {
		case sessionCookie:
			haveSession = c.Value != "" && c.HttpOnly
		case csrfCookie:
			haveCSRF = c.Value != "" && !c.HttpOnly
		}
	}
	if !haveSession || !haveCSRF {
		t.Fatalf("cookies = %+v", cookies)
	}
	var resp struct {
		CSRFToken string `json:"csrf_token"`
		User      struct {
			Roles []string `json:"roles"`
		} `json:"user"`
	}
	decodeBody(t, rec, &resp)
	if resp.CSRFToken == "" || len(resp.User.Roles) != 1 {
		t.Fatalf("response = %s", rec.Body.String())
	}
}
