package authorize

import (
	"context"
	"log/slog"
)

// DefaultPolicies is the baseline permission set of the platform.
var DefaultPolicies = []PermissionPolicy{
	// Admin: everything, everywhere
	{RoleAdmin, WildcardDomain, WildcardResource, WildcardAction, EffectAllow},

	// Club: runs its own facilities
	{RoleClub, WildcardDomain, ResourceFacility, ActionCreate, EffectAllow},
	{RoleClub, WildcardDomain, ResourceFacility, ActionRead, EffectAllow},
	{RoleClub, WildcardDomain, ResourceFacility, ActionList, EffectAllow},
	{RoleClub, WildcardDomain, ResourceSlot, ActionManage, EffectAllow},
	{RoleClub, WildcardDomain, ResourceRecurringRule, ActionExecute, EffectAllow},
	{RoleClub, WildcardDomain, ResourceAuthSession, ActionManage, EffectAllow},

	// Player: browses facilities and their slots
	{RolePlayer, WildcardDomain, ResourceFacility, ActionRead, EffectAllow},
	{RolePlayer, WildcardDomain, ResourceFacility, ActionList, EffectAllow},
	{RolePlayer, WildcardDomain, ResourceSlot, ActionRead, EffectAllow},
	{RolePlayer, WildcardDomain, ResourceSlot, ActionList, EffectAllow},
	{RolePlayer, WildcardDomain, ResourceAuthSession, ActionManage, EffectAllow},
}

// SeedDefaultPolicies loads DefaultPolicies. Rules already present are kept.
func SeedDefaultPolicies(ctx context.Context, auth IAuthorization) error {
	added, err := auth.AddPermissions(ctx, DefaultPolicies...)
	if err != nil {
		slog.ErrorContext(ctx, "failed to seed policies", "error", err)
		return err
	}
	slog.DebugContext(ctx, "seeded default RBAC policies", "count", len(DefaultPolicies), "added", added)
	return nil
}
