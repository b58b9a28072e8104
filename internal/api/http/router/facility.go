package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/fieldz/fieldz_backend/internal/api/http/handler"
	"github.com/fieldz/fieldz_backend/internal/api/http/middleware"
	"github.com/fieldz/fieldz_backend/pkg/authorize"
)

// facilities is the authenticated /facilities group.
func (r *Router) registerFacilityRoutes(
	facilities fiber.Router,
	fh *handler.FacilityHandler,
	facilityCtx fiber.Handler,
	requirePerm func(authorize.Resource, authorize.Action) fiber.Handler,
) {
	facilities.Get("/", requirePerm(authorize.ResourceFacility, authorize.ActionList), fh.List)
	facilities.Post("/",
		middleware.RequireRole(authorize.AccountClub, authorize.AccountAdmin),
		requirePerm(authorize.ResourceFacility, authorize.ActionCreate),
		fh.Create,
	)
	facilities.Get("/:fid", facilityCtx, requirePerm(authorize.ResourceFacility, authorize.ActionRead), fh.Get)
}
