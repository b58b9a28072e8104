package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/fieldz/fieldz_backend/internal/api/http/handler"
)

func (r *Router) registerUserRoutes(api fiber.Router, h *handler.UserHandler, authRequired fiber.Handler) {
	users := api.Group("/users", authRequired)
	users.Get("/me", h.GetMe)
	users.Post("/me/password", h.ChangePassword)
}
