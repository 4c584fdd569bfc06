package routes

import (
	"sbomer-dashboard/internal/delivery/http/handler"
	"sbomer-dashboard/internal/ws"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Dependencies struct {
	V1       *handler.DashboardHandler
	V2       *handler.DashboardHandler
	Health   *handler.HealthHandler
	WS       *ws.Handler
	Gatherer prometheus.Gatherer
}

type Registry struct {
	deps Dependencies
}

func NewRegistry(deps Dependencies) *Registry {
	return &Registry{deps: deps}
}

func (r *Registry) Register(app *fiber.App) {
	if app == nil {
		return
	}

	r.registerHealth(app)
	r.registerMetrics(app)
	r.registerWS(app)
	r.registerDashboard(app)
}

func (r *Registry) registerHealth(app *fiber.App) {
	if r.deps.Health == nil {
		return
	}
	r.deps.Health.RegisterRoutes(app)
}

func (r *Registry) registerMetrics(app *fiber.App) {
	if r.deps.Gatherer == nil {
		return
	}
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(r.deps.Gatherer, promhttp.HandlerOpts{})))
}

func (r *Registry) registerWS(app *fiber.App) {
	if r.deps.WS == nil {
		return
	}
	app.Get("/ws/v2/generations/:id/logs/*", r.deps.WS.HandleGenerationLogWS)
}

// registerDashboard mounts the V2 tree under /v2 and the V1 tree at the
// root.
func (r *Registry) registerDashboard(app *fiber.App) {
	if r.deps.V2 != nil {
		r.deps.V2.RegisterRoutes(app.Group("/v2"))
	}
	if r.deps.V1 != nil {
		r.deps.V1.RegisterRoutes(app)
	}
}
