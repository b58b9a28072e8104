package authorize

import (
	"fmt"

	casbin "github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	fileadapter "github.com/casbin/casbin/v2/persist/file-adapter"
)

// modelText matches a role against role x domain x resource x action rules.
// A policy domain of "*" applies to every domain, and "manage" covers every
// action except "execute".
const modelText = `
[request_definition]
r = sub, dom, obj, act

[policy_definition]
p = sub, dom, obj, act, eft

[policy_effect]
e = some(where (p.eft == allow)) && !some(where (p.eft == deny))

[matchers]
m = r.sub == p.sub && (p.dom == "*" || p.dom == r.dom) && (p.obj == "*" || r.obj == p.obj) && (p.act == "*" || r.act == p.act || (p.act == "manage" && r.act != "execute"))
`

// NewEnforcer builds an in-memory enforcer. When cfg.PolicyPath is set the
// CSV file there is loaded first; policies added later are not written back.
func NewEnforcer(cfg Config) (*casbin.SyncedEnforcer, error) {
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, fmt.Errorf("casbin model: %w", err)
	}

	var e *casbin.SyncedEnforcer
	if cfg.PolicyPath != "" {
		e, err = casbin.NewSyncedEnforcer(m, fileadapter.NewAdapter(cfg.PolicyPath))
	} else {
		e, err = casbin.NewSyncedEnforcer(m)
	}
	if err != nil {
		return nil, fmt.Errorf("casbin enforcer: %w", err)
	}

	e.EnableAutoSave(false)
	e.EnableEnforce(true)
	return e, nil
}
