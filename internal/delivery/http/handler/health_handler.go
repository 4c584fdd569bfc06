package handler

import (
	"context"
	"time"

	"sbomer-dashboard/internal/pkg/response"

	"github.com/gofiber/fiber/v3"
)

type CacheStatus interface {
	Available() bool
	Ping(ctx context.Context) error
}

type HealthResponse struct {
	Status string `json:"status"`
	Cache  string `json:"cache"`
}

type HealthHandler struct {
	cache CacheStatus
}

// NewHealthHandler accepts a nil cache; the dashboard runs without one.
func NewHealthHandler(cache CacheStatus) *HealthHandler {
	return &HealthHandler{cache: cache}
}

func (h *HealthHandler) RegisterRoutes(r fiber.Router) {
	r.Get("/health", h.HandleHealth)
}

func (h *HealthHandler) HandleHealth(c fiber.Ctx) error {
	out := HealthResponse{Status: "ok", Cache: "disabled"}
	if h.cache != nil && h.cache.Available() {
		ctx, cancel := context.WithTimeout(c.Context(), time.Second)
		defer cancel()
		if err := h.cache.Ping(ctx); err != nil {
			out.Cache = "unavailable"
		} else {
			out.Cache = "ok"
		}
	}
	return response.Success(c, fiber.StatusOK, "", out)
}
