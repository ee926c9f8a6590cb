package rbac

import (
	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
)

// Permissions checked by the API layer.
const (
	PermIncidentsCreate        = "incidents.create"
	PermIncidentsSubmit        = "incidents.submit"
	PermIncidentsView          = "incidents.view"
	PermIncidentsReviewUnit    = "incidents.review.unit"
	PermIncidentsReviewQuality = "incidents.review.quality"
	PermIncidentsClose         = "incidents.close"
	PermDashboardView          = "dashboard.view"
	PermAdminManage            = "admin.manage"
)

const modelText = `
[request_definition]
r = sub, obj

[policy_definition]
p = sub, obj

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && r.obj == p.obj
`

// policies[role] lists the permissions granted to that role. perawat
// files reports, pj reviews for the department, mutu runs the quality
// review and closes; admin inherits everything and additionally
// manages user accounts.
var policies = map[string][]string{
	"perawat": {PermIncidentsCreate, PermIncidentsSubmit, PermIncidentsView},
	"pj":      {PermIncidentsReviewUnit, PermIncidentsView, PermDashboardView},
	"mutu":    {PermIncidentsReviewQuality, PermIncidentsClose, PermIncidentsView, PermDashboardView},
	"admin":   {PermAdminManage},
}

var roleInheritance = map[string][]string{
	"admin": {"perawat", "pj", "mutu"},
}

// Policy answers "may any of these roles perform this action".
type Policy struct {
	enforcer *casbin.SyncedEnforcer
}

func NewPolicy() (*Policy, error) {
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, err
	}
	e, err := casbin.NewSyncedEnforcer(m)
	if err != nil {
		return nil, err
	}
	for role, perms := range policies {
		for _, perm := range perms {
			if _, err := e.AddPolicy(role, perm); err != nil {
				return nil, err
			}
		}
	}
	for role, parents := range roleInheritance {
		for _, parent := range parents {
			if _, err := e.AddGroupingPolicy(role, parent); err != nil {
				return nil, err
			}
		}
	}
	return &Policy{enforcer: e}, nil
}

// Allowed reports whether any of roles carries the permission.
func (p *Policy) Allowed(roles []string, permission string) bool {
	for _, role := range roles {
		ok, err := p.enforcer.Enforce(role, permission)
		if err == nil && ok {
			return true
		}
	}
	return false
}
