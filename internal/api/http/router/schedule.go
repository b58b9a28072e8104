package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/fieldz/fieldz_backend/internal/api/http/handler"
	"github.com/fieldz/fieldz_backend/internal/api/http/middleware"
	"github.com/fieldz/fieldz_backend/pkg/authorize"
)

func (r *Router) registerScheduleRoutes(
	api fiber.Router,
	facilities fiber.Router,
	sh *handler.ScheduleHandler,
	authRequired fiber.Handler,
	facilityCtx fiber.Handler,
	facilityOwner fiber.Handler,
	requirePerm func(authorize.Resource, authorize.Action) fiber.Handler,
) {
	// Any signed-in account can browse a facility's slots
	facilities.Get("/:fid/slots", facilityCtx, requirePerm(authorize.ResourceSlot, authorize.ActionList), sh.ListSlots)
	facilities.Get("/:fid/calendar", facilityCtx, requirePerm(authorize.ResourceSlot, authorize.ActionList), sh.Calendar)

	// Owner-only slot management
	facilities.Post("/:fid/creneaux", facilityCtx, requirePerm(authorize.ResourceSlot, authorize.ActionCreate), facilityOwner, sh.CreateSlot)
	facilities.Delete("/:fid/creneaux/:id", facilityCtx, requirePerm(authorize.ResourceSlot, authorize.ActionDelete), facilityOwner, sh.DeleteSlot)
	facilities.Patch("/:fid/creneaux/:id/status", facilityCtx, requirePerm(authorize.ResourceSlot, authorize.ActionUpdate), facilityOwner, sh.UpdateStatus)

	// The facility id travels in the body; the handler checks ownership
	api.Post("/creneaux/recurrent",
		authRequired,
		middleware.RequireRole(authorize.AccountClub, authorize.AccountAdmin),
		requirePerm(authorize.ResourceRecurringRule, authorize.ActionExecute),
		sh.GenerateRecurring,
	)
}
