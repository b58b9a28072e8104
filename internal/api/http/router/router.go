package router

import (
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"

	"github.com/fieldz/fieldz_backend/config"
	"github.com/fieldz/fieldz_backend/internal/api/http/handler"
	"github.com/fieldz/fieldz_backend/internal/api/http/middleware"
	"github.com/fieldz/fieldz_backend/internal/repo"
	"github.com/fieldz/fieldz_backend/internal/service/auth"
	"github.com/fieldz/fieldz_backend/internal/service/facility"
	"github.com/fieldz/fieldz_backend/internal/service/scheduling"
	"github.com/fieldz/fieldz_backend/internal/service/user"
	"github.com/fieldz/fieldz_backend/pkg/authorize"
)

// Module provides the Router to the fx graph.
var Module = fx.Module("router", fx.Provide(NewRouter))

type Params struct {
	fx.In

	Cfg           *config.Config
	Auth          authorize.IAuthorization
	DB            *repo.Client
	UserSvc       user.Service
	AuthSvc       auth.Service
	FacilitySvc   facility.Service
	SchedulingSvc scheduling.Service
}

type Router struct {
	p Params
}

func NewRouter(p Params) *Router {
	return &Router{p: p}
}

func (r *Router) Register(app *fiber.App) {
	// 1. Health & Metrics
	r.registerSystemRoutes(app)

	// 2. Initialize Middlewares
	authRequired := middleware.AuthRequired(r.p.AuthSvc)
	facilityCtx := middleware.FacilityContext()
	facilityOwner := middleware.RequireFacilityOwner(r.p.FacilitySvc)

	requirePerm := func(res authorize.Resource, act authorize.Action) fiber.Handler {
		return middleware.RequirePermission(r.p.Auth, res, act)
	}

	// 3. Initialize Handlers
	authH := handler.NewAuthHandler(r.p.AuthSvc)
	userH := handler.NewUserHandler(r.p.UserSvc)
	facilityH := handler.NewFacilityHandler(r.p.FacilitySvc)
	scheduleH := handler.NewScheduleHandler(r.p.SchedulingSvc, r.p.FacilitySvc)

	api := app.Group("/api/v1")

	// 4. Delegate to sub-files
	r.registerAuthRoutes(api, authH, authRequired)
	r.registerUserRoutes(api, userH, authRequired)
	facilities := api.Group("/facilities", authRequired)
	r.registerFacilityRoutes(facilities, facilityH, facilityCtx, requirePerm)
	r.registerScheduleRoutes(api, facilities, scheduleH, authRequired, facilityCtx, facilityOwner, requirePerm)
}

func (r *Router) registerSystemRoutes(app *fiber.App) {
	app.Get(healthcheck.LivenessEndpoint, healthcheck.New())
	app.Get(healthcheck.ReadinessEndpoint, healthcheck.New(healthcheck.Config{
		Probe: func(c fiber.Ctx) bool {
			return r.p.DB.Ping(c.Context()) == nil && authorize.IsPolicyHealthy()
		},
	}))
	app.Get(healthcheck.StartupEndpoint, healthcheck.New())

	if r.p.Cfg.Observability.Enabled && r.p.Cfg.Observability.Metrics.Enabled {
		path := r.p.Cfg.Observability.Metrics.Path
		if path == "" {
			path = "/metrics"
		}
		app.Get(path, adaptor.HTTPHandler(promhttp.Handler()))
	}
}
