package authorize

import (
	"strconv"
	"strings"
)

type Action string
type Resource string
type Role string
type Domain string

// ----------------------------
// Actions
// ----------------------------

const (
	ActionCreate Action = "create"
	ActionRead   Action = "read"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	ActionList   Action = "list"

	ActionManage  Action = "manage"  // CRUD + list
	ActionExecute Action = "execute" // run a bulk operation

	WildcardAction Action = "*"
)

var KnownActions = map[Action]struct{}{
	ActionCreate: {}, ActionRead: {}, ActionUpdate: {}, ActionDelete: {}, ActionList: {},
	ActionManage: {}, ActionExecute: {},
}

// ----------------------------
// Resources
// ----------------------------

const (
	WildcardResource Resource = "*"

	ResourceUser        Resource = "user"
	ResourceAuthSession Resource = "auth_session"

	ResourceFacility      Resource = "facility"
	ResourceSlot          Resource = "slot"
	ResourceRecurringRule Resource = "recurring_rule"

	ResourceSystem Resource = "system"
)

var KnownResources = map[Resource]struct{}{
	ResourceUser: {}, ResourceAuthSession: {},
	ResourceFacility: {}, ResourceSlot: {}, ResourceRecurringRule: {},
	ResourceSystem: {},
}

// ----------------------------
// Roles
// ----------------------------

// Account roles as stored on users and carried in sessions.
const (
	AccountPlayer = "player"
	AccountClub   = "club"
	AccountAdmin  = "admin"
)

// Policy subjects, one per account role.
const (
	RolePlayer Role = "role:player"
	RoleClub   Role = "role:club"
	RoleAdmin  Role = "role:admin"
)

var KnownRoles = map[Role]struct{}{
	RolePlayer: {}, RoleClub: {}, RoleAdmin: {},
}

// RoleFor maps an account role to its policy subject. ok is false for an
// unknown account role.
func RoleFor(account string) (Role, bool) {
	r := Role("role:" + account)
	_, ok := KnownRoles[r]
	return r, ok
}

// ----------------------------
// Domains
// ----------------------------

const (
	DomainSys            Domain = "sys"
	DomainPrefixFacility Domain = "facility:"
	WildcardDomain       Domain = "*"
)

func FacilityDomain(facilityID int64) Domain {
	return DomainPrefixFacility + Domain(strconv.FormatInt(facilityID, 10))
}

// IsValidDomain checks whether d is a recognised domain string.
func IsValidDomain(d Domain) bool {
	if d == DomainSys || d == WildcardDomain {
		return true
	}
	rest, ok := strings.CutPrefix(string(d), string(DomainPrefixFacility))
	if !ok {
		return false
	}
	id, err := strconv.ParseInt(rest, 10, 64)
	return err == nil && id > 0
}

// ----------------------------
// Casbin tuple helpers
// ----------------------------

type PolicyEffect string

const (
	EffectAllow PolicyEffect = "allow"
	EffectDeny  PolicyEffect = "deny"
)

// Subject is the r.sub of a request: a policy role.
type Subject string

// Permission rows: p, role, domain, resource, action, eft
type PermissionPolicy struct {
	Subject Role
	Domain  Domain
	Object  Resource
	Action  Action
	Effect  PolicyEffect
}

func (p PermissionPolicy) row() []string {
	return []string{string(p.Subject), string(p.Domain), string(p.Object), string(p.Action), string(p.Effect)}
}
