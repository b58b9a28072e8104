package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/fieldz/fieldz_backend/internal/api/http/middleware"
	"github.com/fieldz/fieldz_backend/internal/service/user"
)

type UserHandler struct {
	svc user.Service
}

func NewUserHandler(svc user.Service) *UserHandler {
	return &UserHandler{svc: svc}
}

// GET /api/v1/users/me
func (h *UserHandler) GetMe(c fiber.Ctx) error {
	sess, valid := middleware.SessionFromFiber(c)
	if !valid {
		return unauthorized(c)
	}

	u, err := h.svc.GetByID(c.Context(), sess.UserID)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return notFound(c, err.Error())
		}
		return internalError(c, err)
	}

	return ok(c, u)
}

// POST /api/v1/users/me/password
func (h *UserHandler) ChangePassword(c fiber.Ctx) error {
	sess, valid := middleware.SessionFromFiber(c)
	if !valid {
		return unauthorized(c)
	}

	var body struct {
		CurrentPassword string `json:"current_password" validate:"required"`
		NewPassword     string `json:"new_password" validate:"required,min=8,max=128"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return bindError(c, err)
	}

	err := h.svc.ChangePassword(c.Context(), sess.UserID, body.CurrentPassword, body.NewPassword)
	switch {
	case err == nil:
		return noContent(c)
	case errors.Is(err, user.ErrInvalidPassword), errors.Is(err, user.ErrPasswordTooShort):
		return badRequest(c, err.Error())
	case errors.Is(err, user.ErrUserNotFound):
		return notFound(c, err.Error())
	default:
		return internalError(c, err)
	}
}
