package authorize

import (
	"context"
	"errors"
	"fmt"

	casbin "github.com/casbin/casbin/v2"
)

var (
	ErrForbidden   = errors.New("forbidden")
	ErrInvalidArgs = errors.New("invalid authorization arguments")
)

// IAuthorization is the only thing services/middleware should depend on.
type IAuthorization interface {
	// Enforce answers: "May role act on object inside domain?"
	Enforce(ctx context.Context, role Role, domain Domain, object Resource, action Action) (bool, error)

	// MustEnforce returns ErrForbidden if not allowed.
	MustEnforce(ctx context.Context, role Role, domain Domain, object Resource, action Action) error

	// AddPermissions stores p rules; the bool is false when all already existed.
	AddPermissions(ctx context.Context, policies ...PermissionPolicy) (bool, error)
}

// Authorization is a thin typed wrapper around a casbin enforcer.
type Authorization struct {
	enforcer *casbin.SyncedEnforcer
}

func NewAuthorization(e *casbin.SyncedEnforcer) (IAuthorization, error) {
	if e == nil {
		return nil, fmt.Errorf("%w: enforcer is nil", ErrInvalidArgs)
	}
	return &Authorization{enforcer: e}, nil
}

func (a *Authorization) Enforce(ctx context.Context, role Role, domain Domain, object Resource, action Action) (bool, error) {
	if role == "" {
		return false, fmt.Errorf("%w: role is empty", ErrInvalidArgs)
	}
	if domain == "" || !IsValidDomain(domain) {
		return false, fmt.Errorf("%w: invalid domain: %q", ErrInvalidArgs, domain)
	}
	if _, ok := KnownResources[object]; !ok {
		return false, fmt.Errorf("%w: unknown resource: %q", ErrInvalidArgs, object)
	}
	if _, ok := KnownActions[action]; !ok {
		return false, fmt.Errorf("%w: unknown action: %q", ErrInvalidArgs, action)
	}

	return a.enforcer.Enforce(string(role), string(domain), string(object), string(action))
}

func (a *Authorization) MustEnforce(ctx context.Context, role Role, domain Domain, object Resource, action Action) error {
	ok, err := a.Enforce(ctx, role, domain, object, action)
	if err != nil {
		return err
	}
	if !ok {
		return ErrForbidden
	}
	return nil
}

func (a *Authorization) AddPermissions(ctx context.Context, policies ...PermissionPolicy) (bool, error) {
	rows := make([][]string, 0, len(policies))
	for _, p := range policies {
		if err := validatePolicy(p); err != nil {
			return false, err
		}
		has, err := a.enforcer.HasPolicy(p.row())
		if err != nil {
			return false, err
		}
		if !has {
			rows = append(rows, p.row())
		}
	}
	if len(rows) == 0 {
		return false, nil
	}
	return a.enforcer.AddPolicies(rows)
}

func validatePolicy(p PermissionPolicy) error {
	if _, ok := KnownRoles[p.Subject]; !ok {
		return fmt.Errorf("%w: unknown role: %q", ErrInvalidArgs, p.Subject)
	}
	if !IsValidDomain(p.Domain) {
		return fmt.Errorf("%w: invalid domain: %q", ErrInvalidArgs, p.Domain)
	}
	if _, ok := KnownResources[p.Object]; !ok && p.Object != WildcardResource {
		return fmt.Errorf("%w: unknown resource: %q", ErrInvalidArgs, p.Object)
	}
	if _, ok := KnownActions[p.Action]; !ok && p.Action != WildcardAction {
		return fmt.Errorf("%w: unknown action: %q", ErrInvalidArgs, p.Action)
	}
	if p.Effect != EffectAllow && p.Effect != EffectDeny {
		return fmt.Errorf("%w: invalid effect: %q", ErrInvalidArgs, p.Effect)
	}
	return nil
}
