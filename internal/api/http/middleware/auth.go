package middleware

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v3"

	"github.com/fieldz/fieldz_backend/internal/service/auth"
	"github.com/fieldz/fieldz_backend/pkg/authorize"
	"github.com/fieldz/fieldz_backend/pkg/reqctx"
)

const LocalSession = "session"

// AuthRequired validates a Bearer PASETO access token against its server-side
// session. On success the *reqctx.Session is stored in the request context
// and in c.Locals(LocalSession).
func AuthRequired(svc auth.Service) fiber.Handler {
	return func(c fiber.Ctx) error {
		h := c.Get(fiber.HeaderAuthorization)
		parts := strings.SplitN(h, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return Deny(c, authorize.Redirect(authorize.LoginPath))
		}

		sess, err := svc.Authenticate(c.Context(), strings.TrimSpace(parts[1]))
		if err != nil {
			if !errors.Is(err, auth.ErrInvalidToken) && !errors.Is(err, auth.ErrSessionNotFound) {
				slog.ErrorContext(c.Context(), "auth: session lookup failed", "error", err)
				return fiber.ErrServiceUnavailable
			}
			return Deny(c, authorize.Redirect(authorize.LoginPath))
		}

		c.Locals(LocalSession, sess)
		c.SetContext(reqctx.WithSession(c.Context(), sess))
		return c.Next()
	}
}

// RequireRole is the route guard: callers whose account role is not one of
// roles are redirected to their own home.
func RequireRole(roles ...string) fiber.Handler {
	return func(c fiber.Ctx) error {
		sess, _ := SessionFromFiber(c)
		if d := authorize.Authorize(sess, roles...); !d.Allowed {
			return Deny(c, d)
		}
		return c.Next()
	}
}

// SessionFromFiber returns the session set by AuthRequired.
func SessionFromFiber(c fiber.Ctx) (*reqctx.Session, bool) {
	s, ok := c.Locals(LocalSession).(*reqctx.Session)
	return s, ok && s != nil
}

// Deny writes a refused guard decision: 401 when the caller must sign in,
// 403 otherwise. The body carries the redirect target for the client.
func Deny(c fiber.Ctx, d authorize.Decision) error {
	status, msg := fiber.StatusForbidden, "forbidden"
	if d.RedirectTo == authorize.LoginPath {
		status, msg = fiber.StatusUnauthorized, "unauthorized"
	}
	return c.Status(status).JSON(fiber.Map{"error": msg, "redirect": d.RedirectTo})
}
