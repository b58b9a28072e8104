package http

import (
	"time"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"github.com/fieldz/fieldz_backend/config"
	"github.com/fieldz/fieldz_backend/internal/api/http/router"
	"github.com/fieldz/fieldz_backend/internal/app"
)

func Start(cfg *config.Config, timeout time.Duration) {
	fx.New(
		fx.Supply(cfg),
		app.InfraModule,
		app.ServiceModule,
		app.WorkerModule,
		router.Module,
		Module,

		// Invoke *fiber.App so NewServer runs and registers its OnStart hook
		fx.Invoke(func(*fiber.App) {}),

		fx.WithLogger(func() fxevent.Logger { return fxevent.NopLogger }),
		fx.StopTimeout(timeout),
	).Run()
}
