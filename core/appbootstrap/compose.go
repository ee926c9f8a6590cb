package appbootstrap

import (
	"database/sql"

	"github.com/yusufekamaulana/rsua-akreditasi/api"
	"github.com/yusufekamaulana/rsua-akreditasi/config"
	"github.com/yusufekamaulana/rsua-akreditasi/core/classify"
	"github.com/yusufekamaulana/rsua-akreditasi/core/rbac"
	"github.com/yusufekamaulana/rsua-akreditasi/core/store"
	"github.com/yusufekamaulana/rsua-akreditasi/core/sweep"
	"github.com/yusufekamaulana/rsua-akreditasi/core/utils"
	"github.com/yusufekamaulana/rsua-akreditasi/core/workflow"
)

// Runtime holds everything the entrypoint needs after composition.
type Runtime struct {
	Server  *api.Server
	Users   store.UsersStore
	Sweeper *sweep.Sweeper
}

// Compose wires stores, the classifier, the review workflow and the
// HTTP server over one database handle.
func Compose(cfg *config.AppConfig, db *sql.DB, logger *utils.Logger) (*Runtime, error) {
	users := store.NewUsersStore(db)
	sessions := store.NewSessionStore(db)
	incidents := store.NewIncidentsStore(db)
	audits := store.NewAuditStore(db)

	policy, err := rbac.NewPolicy()
	if err != nil {
		return nil, err
	}
	classifier := classify.New(&cfg.Classifier, logger)
	machine := workflow.NewMachine(classifier)

	server := api.NewServer(api.Deps{
		Cfg:       cfg,
		Logger:    logger,
		Policy:    policy,
		Users:     users,
		Sessions:  sessions,
		Incidents: incidents,
		Audits:    audits,
		Machine:   machine,
	})
	sweeper := sweep.New(incidents, audits, sessions, &cfg.Sweep, logger)

	return &Runtime{Server: server, Users: users, Sweeper: sweeper}, nil
}
