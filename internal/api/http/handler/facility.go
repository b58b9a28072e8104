package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/fieldz/fieldz_backend/internal/api/http/middleware"
	"github.com/fieldz/fieldz_backend/internal/repo"
	"github.com/fieldz/fieldz_backend/internal/service/facility"
)

type FacilityHandler struct {
	svc facility.Service
}

func NewFacilityHandler(svc facility.Service) *FacilityHandler {
	return &FacilityHandler{svc: svc}
}

// GET /api/v1/facilities?mine=true
func (h *FacilityHandler) List(c fiber.Ctx) error {
	var (
		list []*repo.Facility
		err  error
	)
	if fiber.Query[bool](c, "mine") {
		sess, valid := middleware.SessionFromFiber(c)
		if !valid {
			return unauthorized(c)
		}
		list, err = h.svc.ListByOwner(c.Context(), sess.UserID)
	} else {
		list, err = h.svc.List(c.Context())
	}
	if err != nil {
		return internalError(c, err)
	}
	return ok(c, list)
}

// POST /api/v1/facilities
func (h *FacilityHandler) Create(c fiber.Ctx) error {
	sess, valid := middleware.SessionFromFiber(c)
	if !valid {
		return unauthorized(c)
	}

	var body struct {
		Name  string `json:"name" validate:"required,max=120"`
		Sport string `json:"sport" validate:"max=60"`
		City  string `json:"city" validate:"max=120"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return bindError(c, err)
	}

	f, err := h.svc.Create(c.Context(), sess.UserID, facility.CreateRequest{
		Name:  body.Name,
		Sport: body.Sport,
		City:  body.City,
	})
	if err != nil {
		return mapFacilityError(c, err)
	}
	return created(c, f)
}

// GET /api/v1/facilities/:fid
func (h *FacilityHandler) Get(c fiber.Ctx) error {
	fid, _ := middleware.FacilityIDFromFiber(c)
	f, err := h.svc.Get(c.Context(), fid)
	if err != nil {
		return mapFacilityError(c, err)
	}
	return ok(c, f)
}

func mapFacilityError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, facility.ErrFacilityNotFound):
		return notFound(c, err.Error())
	case errors.Is(err, facility.ErrInvalidName), errors.Is(err, facility.ErrUnknownOwner):
		return badRequest(c, err.Error())
	default:
		return internalError(c, err)
	}
}
