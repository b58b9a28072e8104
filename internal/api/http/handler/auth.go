package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/fieldz/fieldz_backend/internal/api/http/middleware"
	"github.com/fieldz/fieldz_backend/internal/service/auth"
	"github.com/fieldz/fieldz_backend/pkg/authorize"
)

type AuthHandler struct {
	svc auth.Service
}

func NewAuthHandler(svc auth.Service) *AuthHandler {
	return &AuthHandler{svc: svc}
}

func tokensBody(t *auth.AuthTokens) fiber.Map {
	return fiber.Map{
		"access_token":  t.AccessToken,
		"refresh_token": t.RefreshToken,
		"expires_in":    t.ExpiresIn,
		"user_id":       t.UserID,
		"role":          t.Role,
		"home":          authorize.HomeFor(t.Role),
	}
}

// POST /api/v1/auth/register
func (h *AuthHandler) Register(c fiber.Ctx) error {
	var body struct {
		Email    string `json:"email" validate:"required,email,max=254"`
		Password string `json:"password" validate:"required,min=8,max=128"`
		FullName string `json:"full_name" validate:"max=120"`
		Role     string `json:"role" validate:"required,oneof=player club"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return bindError(c, err)
	}

	u, err := h.svc.Register(c.Context(), auth.RegisterRequest{
		Email:    body.Email,
		Password: body.Password,
		FullName: body.FullName,
		Role:     body.Role,
	})
	if err != nil {
		return mapAuthError(c, err)
	}

	return created(c, u)
}

// POST /api/v1/auth/login
func (h *AuthHandler) Login(c fiber.Ctx) error {
	var body struct {
		Email    string `json:"email" validate:"required"`
		Password string `json:"password" validate:"required"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return bindError(c, err)
	}

	tokens, err := h.svc.Login(c.Context(), auth.LoginRequest{Email: body.Email, Password: body.Password})
	if err != nil {
		return mapAuthError(c, err)
	}

	return ok(c, tokensBody(tokens))
}

// POST /api/v1/auth/refresh
func (h *AuthHandler) Refresh(c fiber.Ctx) error {
	var body struct {
		RefreshToken string `json:"refresh_token" validate:"required"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return bindError(c, err)
	}

	tokens, err := h.svc.Refresh(c.Context(), body.RefreshToken)
	if err != nil {
		return mapAuthError(c, err)
	}

	return ok(c, tokensBody(tokens))
}

// POST /api/v1/auth/logout  (requires AuthRequired middleware)
func (h *AuthHandler) Logout(c fiber.Ctx) error {
	sess, ok := middleware.SessionFromFiber(c)
	if !ok {
		return unauthorized(c)
	}

	if err := h.svc.Logout(c.Context(), sess.ID); err != nil {
		return internalError(c, err)
	}

	return noContent(c)
}

// ---------------------------------------------------------------------------
// Error mapping
// ---------------------------------------------------------------------------

func mapAuthError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, auth.ErrEmailAlreadyExists):
		return conflict(c, err.Error())
	case errors.Is(err, auth.ErrInvalidEmail),
		errors.Is(err, auth.ErrPasswordTooShort),
		errors.Is(err, auth.ErrInvalidRole):
		return badRequest(c, err.Error())
	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrSessionNotFound),
		errors.Is(err, auth.ErrInvalidToken):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error(), "redirect": authorize.LoginPath})
	default:
		return internalError(c, err)
	}
}
