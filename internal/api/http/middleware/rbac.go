package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/fieldz/fieldz_backend/pkg/authorize"
)

// RequirePermission checks the caller's role against the casbin policies, in
// the facility domain when the route carries one (set by FacilityContext) or
// the sys domain otherwise.
func RequirePermission(az authorize.IAuthorization, resource authorize.Resource, action authorize.Action) fiber.Handler {
	return func(c fiber.Ctx) error {
		sess, ok := SessionFromFiber(c)
		if !ok {
			return Deny(c, authorize.Redirect(authorize.LoginPath))
		}
		role, ok := authorize.RoleFor(sess.Role)
		if !ok {
			return Deny(c, authorize.Redirect(authorize.HomeFor(sess.Role)))
		}

		domain := authorize.DomainSys
		if fid, ok := FacilityIDFromFiber(c); ok {
			domain = authorize.FacilityDomain(fid)
		}

		if err := az.MustEnforce(c.Context(), role, domain, resource, action); err != nil {
			if errors.Is(err, authorize.ErrForbidden) {
				return Deny(c, authorize.Redirect(authorize.HomeFor(sess.Role)))
			}
			return err
		}
		return c.Next()
	}
}
