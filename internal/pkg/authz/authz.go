package authz

import (
	"errors"
	"fmt"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	fileadapter "github.com/casbin/casbin/v2/persist/file-adapter"
)

const (
	ActionRead  = "read"
	ActionWrite = "write"
)

const (
	ObjectTiers       = "commission.tiers"
	ObjectCommissions = "commission.ledger"
	ObjectAgents      = "agents"
	ObjectReports     = "reports"
	ObjectExpenses    = "expenses"
)

type Mode string

const (
	ModeEnforce Mode = "enforce"
	ModeShadow  Mode = "shadow"
)

func ParseMode(raw string) (Mode, error) {
	raw = strings.TrimSpace(strings.ToLower(raw))
	switch Mode(raw) {
	case "":
		return ModeEnforce, nil
	case ModeEnforce, ModeShadow:
		return Mode(raw), nil
	default:
		return "", errors.New("authz: invalid mode (expected enforce|shadow)")
	}
}

// Roles inherit downwards: admin > finance > staff.
const modelText = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && r.obj == p.obj && r.act == p.act
`

var defaultPolicies = [][]string{
	{"role:staff", ObjectReports, ActionRead},
	{"role:staff", ObjectAgents, ActionRead},
	{"role:finance", ObjectTiers, ActionRead},
	{"role:finance", ObjectCommissions, ActionRead},
	{"role:finance", ObjectCommissions, ActionWrite},
	{"role:finance", ObjectExpenses, ActionRead},
	{"role:finance", ObjectExpenses, ActionWrite},
	{"role:admin", ObjectTiers, ActionWrite},
	{"role:admin", ObjectAgents, ActionWrite},
	{"role:admin", ObjectReports, ActionWrite},
}

var defaultGroupings = [][]string{
	{"role:finance", "role:staff"},
	{"role:admin", "role:finance"},
}

type Authorizer struct {
	enforcer *casbin.Enforcer
	mode     Mode
}

// NewAuthorizer builds the enforcer from the built-in role model. When
// policyPath is set, policies are loaded from that CSV file instead of the
// built-in set.
func NewAuthorizer(policyPath string, mode Mode) (*Authorizer, error) {
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, fmt.Errorf("authz: failed to parse model: %w", err)
	}

	if policyPath != "" {
		enforcer, err := casbin.NewEnforcer(m, fileadapter.NewAdapter(policyPath))
		if err != nil {
			return nil, fmt.Errorf("authz: failed to load policy %s: %w", policyPath, err)
		}
		return &Authorizer{enforcer: enforcer, mode: mode}, nil
	}

	enforcer, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("authz: failed to create enforcer: %w", err)
	}
	if _, err := enforcer.AddPolicies(defaultPolicies); err != nil {
		return nil, fmt.Errorf("authz: failed to add policies: %w", err)
	}
	if _, err := enforcer.AddGroupingPolicies(defaultGroupings); err != nil {
		return nil, fmt.Errorf("authz: failed to add role inheritance: %w", err)
	}
	return &Authorizer{enforcer: enforcer, mode: mode}, nil
}

func SubjectFromRole(role string) string {
	role = strings.TrimSpace(strings.ToLower(role))
	if role == "" {
		role = "anonymous"
	}
	return "role:" + role
}

// Authorize reports whether role may perform action on object. In shadow mode
// the decision is returned but enforced is false.
func (a *Authorizer) Authorize(role string, object string, action string) (allowed bool, enforced bool, err error) {
	ok, err := a.enforcer.Enforce(SubjectFromRole(role), object, action)
	if err != nil {
		return false, a.mode == ModeEnforce, err
	}
	return ok, a.mode == ModeEnforce, nil
}
