package authorize

import (
	"github.com/google/uuid"

	"github.com/fieldz/fieldz_backend/pkg/reqctx"
)

// LoginPath is where anonymous callers are sent.
const LoginPath = "/login"

var homes = map[string]string{
	AccountPlayer: "/player",
	AccountClub:   "/club",
	AccountAdmin:  "/admin",
}

// HomeFor is the landing route of an account role. Unknown roles land on the
// login page.
func HomeFor(account string) string {
	if h, ok := homes[account]; ok {
		return h
	}
	return LoginPath
}

// Decision is the outcome of a route guard: either Allowed, or a redirect
// target for the caller.
type Decision struct {
	Allowed    bool
	RedirectTo string
}

func Allow() Decision                 { return Decision{Allowed: true} }
func Redirect(target string) Decision { return Decision{RedirectTo: target} }

// Authorize gates a route on the caller's account role. No session means a
// redirect to the login page; a session whose role is not among required is
// sent to its own home. An empty required list admits any signed-in caller.
func Authorize(s *reqctx.Session, required ...string) Decision {
	if s == nil || s.UserID == uuid.Nil {
		return Redirect(LoginPath)
	}
	if len(required) == 0 {
		return Allow()
	}
	for _, r := range required {
		if s.Role == r {
			return Allow()
		}
	}
	return Redirect(HomeFor(s.Role))
}
