package middleware

import (
	"context"
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v3"

	"github.com/fieldz/fieldz_backend/internal/service/facility"
	"github.com/fieldz/fieldz_backend/pkg/authorize"
	"github.com/fieldz/fieldz_backend/pkg/reqctx"
)

const LocalFacilityID = "facility_id"

// FacilityContext parses the :fid route parameter into c.Locals.
func FacilityContext() fiber.Handler {
	return func(c fiber.Ctx) error {
		fid, err := strconv.ParseInt(c.Params("fid"), 10, 64)
		if err != nil || fid <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "invalid facility id")
		}
		c.Locals(LocalFacilityID, fid)
		return c.Next()
	}
}

func FacilityIDFromFiber(c fiber.Ctx) (int64, bool) {
	fid, ok := c.Locals(LocalFacilityID).(int64)
	return fid, ok && fid > 0
}

// RequireFacilityOwner admits admins and the owner of the facility in
// c.Locals(LocalFacilityID). It must run after FacilityContext.
func RequireFacilityOwner(facilities facility.Service) fiber.Handler {
	return func(c fiber.Ctx) error {
		fid, ok := FacilityIDFromFiber(c)
		if !ok {
			return fiber.NewError(fiber.StatusBadRequest, "invalid facility id")
		}
		sess, _ := SessionFromFiber(c)
		if err := EnsureFacilityOwner(c.Context(), facilities, sess, fid); err != nil {
			return denyFacility(c, sess, err)
		}
		return c.Next()
	}
}

// ErrNotOwner is returned by EnsureFacilityOwner for a signed-in caller that
// neither owns the facility nor is an admin.
var ErrNotOwner = errors.New("caller does not own this facility")

func EnsureFacilityOwner(ctx context.Context, facilities facility.Service, sess *reqctx.Session, fid int64) error {
	if sess == nil {
		return ErrNotOwner
	}
	owner, err := facilities.IsOwner(ctx, fid, sess.UserID)
	if err != nil {
		return err
	}
	if owner || sess.Role == authorize.AccountAdmin {
		return nil
	}
	return ErrNotOwner
}

func denyFacility(c fiber.Ctx, sess *reqctx.Session, err error) error {
	switch {
	case sess == nil:
		return Deny(c, authorize.Redirect(authorize.LoginPath))
	case errors.Is(err, ErrNotOwner):
		return Deny(c, authorize.Redirect(authorize.HomeFor(sess.Role)))
	case errors.Is(err, facility.ErrFacilityNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	default:
		return err
	}
}

// DenyFacility writes the response for an EnsureFacilityOwner error.
func DenyFacility(c fiber.Ctx, err error) error {
	sess, _ := SessionFromFiber(c)
	return denyFacility(c, sess, err)
}
