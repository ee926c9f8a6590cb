package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/yusufekamaulana/rsua-akreditasi/config"
	"github.com/yusufekamaulana/rsua-akreditasi/core/auth"
	"github.com/yusufekamaulana/rsua-akreditasi/core/rbac"
	"github.com/yusufekamaulana/rsua-akreditasi/core/store"
	"github.com/yusufekamaulana/rsua-akreditasi/core/utils"
	"github.com/yusufekamaulana/rsua-akreditasi/core/workflow"
)

// Server wires the HTTP surface: authentication, the incident workflow
// endpoints and the quality dashboard.
type Server struct {
	cfg             *config.AppConfig
	logger          *utils.Logger
	policy          *rbac.Policy
	users           store.UsersStore
	sessionsStore   store.SessionStore
	sessions        *auth.SessionManager
	incidents       store.IncidentsStore
	audits          store.AuditStore
	machine         *workflow.Machine
	activityTracker *sessionActivity
	loginLimiter    *requestLimiter
}

type Deps struct {
	Cfg       *config.AppConfig
	Logger    *utils.Logger
	Policy    *rbac.Policy
	Users     store.UsersStore
	Sessions  store.SessionStore
	Incidents store.IncidentsStore
	Audits    store.AuditStore
	Machine   *workflow.Machine
}

func NewServer(d Deps) *Server {
	ratePerMin := d.Cfg.Security.LoginRatePerMin
	if ratePerMin <= 0 {
		ratePerMin = 20
	}
	return &Server{
		cfg:             d.Cfg,
		logger:          d.Logger,
		policy:          d.Policy,
		users:           d.Users,
		sessionsStore:   d.Sessions,
		sessions:        auth.NewSessionManager(d.Sessions, d.Cfg, d.Logger),
		incidents:       d.Incidents,
		audits:          d.Audits,
		machine:         d.Machine,
		activityTracker: newSessionActivity(),
		loginLimiter:    newLimiter(ratePerMin, time.Minute),
	}
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.recoverMiddleware)
	r.Use(s.securityHeadersMiddleware)
	r.Use(s.jsonMiddleware)
	r.Use(s.loggingMiddleware)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", s.rateLimitMiddleware(s.handleLogin))
			r.Post("/logout", s.withSession(s.handleLogout))
			r.Get("/me", s.withSession(s.handleMe))
		})

		r.Route("/incidents", func(r chi.Router) {
			r.Get("/", s.withSession(s.requirePermission(rbac.PermIncidentsView)(s.handleListIncidents)))
			r.Post("/", s.withSession(s.requirePermission(rbac.PermIncidentsCreate)(s.handleCreateIncident)))
			// the unit list feeds both the report form and the dashboard filter
			r.Get("/units", s.withSession(s.requireAnyPermission(rbac.PermIncidentsCreate, rbac.PermDashboardView)(s.handleListUnits)))
			r.Get("/{id}", s.withSession(s.requirePermission(rbac.PermIncidentsView)(s.handleGetIncident)))
			r.Put("/{id}", s.withSession(s.requirePermission(rbac.PermIncidentsCreate)(s.handleUpdateIncident)))
			r.Post("/{id}/submit", s.withSession(s.requirePermission(rbac.PermIncidentsSubmit)(s.handleSubmitIncident)))
			r.Post("/{id}/review/unit", s.withSession(s.requirePermission(rbac.PermIncidentsReviewUnit)(s.handleReviewByUnit)))
			r.Post("/{id}/review/quality", s.withSession(s.requirePermission(rbac.PermIncidentsReviewQuality)(s.handleReviewByQuality)))
			r.Post("/{id}/close", s.withSession(s.requirePermission(rbac.PermIncidentsClose)(s.handleCloseIncident)))
			r.Get("/{id}/audit", s.withSession(s.requirePermission(rbac.PermIncidentsView)(s.handleIncidentAudit)))
		})

		r.Route("/admin", func(r chi.Router) {
			r.Get("/users", s.withSession(s.requirePermission(rbac.PermAdminManage)(s.handleAdminListUsers)))
			r.Post("/users", s.withSession(s.requirePermission(rbac.PermAdminManage)(s.handleAdminCreateUser)))
			r.Put("/users/{id}", s.withSession(s.requirePermission(rbac.PermAdminManage)(s.handleAdminUpdateUser)))
			r.Get("/roles", s.withSession(s.requirePermission(rbac.PermAdminManage)(s.handleAdminListRoles)))
		})

		r.Get("/references/categories", s.withSession(s.handleListCategories))

		r.Route("/dashboard", func(r chi.Router) {
			r.Get("/mutu", s.withSession(s.requirePermission(rbac.PermDashboardView)(s.handleDashboardMutu)))
			r.Get("/mutu/trend", s.withSession(s.requirePermission(rbac.PermDashboardView)(s.handleDashboardTrend)))
		})
	})

	return r
}
