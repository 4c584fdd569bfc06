package app

import (
	"fmt"
	"strings"

	"sbomer-dashboard/internal/config"
	"sbomer-dashboard/internal/delivery/http/handler"
	"sbomer-dashboard/internal/delivery/http/middleware"
	"sbomer-dashboard/internal/delivery/http/routes"
	"sbomer-dashboard/internal/filter"
	"sbomer-dashboard/internal/ws"

	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"
)

type App struct {
	Fiber     *fiber.App
	Container *Container
}

func New(c *Container) *App {
	f := fiber.New(fiber.Config{AppName: c.Config.App.AppName})

	registerGlobalMiddleware(f, c.Logger)
	registerRoutes(f, c)

	return &App{Fiber: f, Container: c}
}

func Bootstrap(cfg config.Config, logger logrus.FieldLogger) (*App, func() error, error) {
	c, err := NewContainer(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	app := New(c)
	return app, c.Close, nil
}

func registerGlobalMiddleware(app *fiber.App, logger logrus.FieldLogger) {
	if app == nil {
		return
	}

	accessMw := middleware.NewAccessLogMiddleware(logger)
	app.Use(accessMw.Middleware())

	errMw := middleware.NewErrorMiddleware(logger)
	app.Use(errMw.Middleware())
}

func registerRoutes(app *fiber.App, c *Container) {
	if app == nil {
		return
	}

	registry := routes.NewRegistry(routes.Dependencies{
		V1: handler.NewDashboardHandler(c.V1, handler.DashboardOptions{
			Schema:              filter.Default,
			Logger:              c.Logger,
			GenerationFiltering: c.Config.Features.V1Filtering,
		}),
		V2: handler.NewDashboardHandler(c.V2, handler.DashboardOptions{
			Schema:              filter.Default,
			Logger:              c.Logger,
			GenerationFiltering: true,
		}),
		Health:   handler.NewHealthHandler(c.Cache),
		WS:       ws.NewHandler(c.Context(), c.Hub, c.V2, c.Followers, c.Config.App.LogFollowInterval, c.Logger),
		Gatherer: c.Registry,
	})
	registry.Register(app)
}

func ListenAddr(port string) (string, error) {
	p := strings.TrimSpace(port)
	if p == "" {
		return "", fmt.Errorf("empty HTTP port")
	}
	if strings.HasPrefix(p, ":") {
		return p, nil
	}
	return ":" + p, nil
}
