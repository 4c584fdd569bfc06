package ws

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"sbomer-dashboard/internal/infrastructure/sbomerapi"
	applog "sbomer-dashboard/internal/pkg/logger"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

type ClientProvider interface {
	BaseURLFor(scheme, host string) (string, error)
	ClientFor(scheme, host string) (sbomerapi.Client, error)
}

type Handler struct {
	hub       *Hub
	provider  ClientProvider
	followers *Followers
	interval  time.Duration
	ctx       context.Context
	logger    logrus.FieldLogger
}

// NewHandler serves log follow sockets. Followers run under ctx, so they
// stop with the server.
func NewHandler(ctx context.Context, hub *Hub, provider ClientProvider, followers *Followers, interval time.Duration, logger logrus.FieldLogger) *Handler {
	if logger == nil {
		logger = applog.Discard()
	}
	if followers == nil {
		followers = NewFollowers()
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return &Handler{hub: hub, provider: provider, followers: followers, interval: interval, ctx: ctx, logger: logger}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

func (h *Handler) HandleGenerationLogWS(c fiber.Ctx) error {
	if h == nil || h.hub == nil {
		return fiber.ErrServiceUnavailable
	}

	generationID, err := url.PathUnescape(c.Params("id"))
	if err != nil || strings.TrimSpace(generationID) == "" {
		return fiber.NewError(fiber.StatusBadRequest, "missing generation id")
	}
	path, err := url.PathUnescape(c.Params("*"))
	if err != nil || strings.TrimSpace(path) == "" {
		return fiber.NewError(fiber.StatusBadRequest, "missing log path")
	}

	scope, err := h.provider.BaseURLFor(c.Scheme(), c.Host())
	if err != nil {
		return providerError(err)
	}
	client, err := h.provider.ClientFor(c.Scheme(), c.Host())
	if err != nil {
		return providerError(err)
	}
	topic := Topic(scope, generationID, path)

	fiberHandler := adaptor.HTTPHandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			h.logger.WithError(err).Warn("WS upgrade failed")
			return
		}

		sub := NewClient(h.hub, conn, topic)
		h.hub.Register(sub)
		go sub.WritePump()
		go sub.ReadPump()

		h.followers.Ensure(h.ctx, NewLogFollower(client, h.hub, scope, generationID, path, h.interval, h.logger))
	})

	return fiberHandler(c)
}

func providerError(err error) error {
	if errors.Is(err, sbomerapi.ErrHostNotAllowed) {
		return fiber.NewError(fiber.StatusMisdirectedRequest, err.Error())
	}
	return fiber.NewError(fiber.StatusServiceUnavailable, err.Error())
}
