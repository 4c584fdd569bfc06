package middleware

import (
	"time"

	applog "sbomer-dashboard/internal/pkg/logger"
	"sbomer-dashboard/internal/pkg/response"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type AccessLogMiddleware struct {
	logger logrus.FieldLogger
}

func NewAccessLogMiddleware(logger logrus.FieldLogger) *AccessLogMiddleware {
	if logger == nil {
		logger = applog.Discard()
	}
	return &AccessLogMiddleware{logger: logger}
}

func (m *AccessLogMiddleware) Middleware() fiber.Handler {
	return func(c fiber.Ctx) error {
		start := time.Now()

		rid := c.Get("X-Request-ID")
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Set("X-Request-ID", rid)
		c.Locals(response.LocalsRequestID, rid)

		err := c.Next()

		status := c.Response().StatusCode()
		entry := m.logger.WithFields(logrus.Fields{
			"request_id": rid,
			"ip":         c.IP(),
			"method":     c.Method(),
			"path":       c.OriginalURL(),
			"status":     status,
			"latency_ms": time.Since(start).Milliseconds(),
			"resp_bytes": c.Response().Header.ContentLength(),
			"user_agent": c.Get("User-Agent"),
		})

		switch {
		case err != nil:
			entry.WithError(err).Error("HTTP access")
		case status >= 500:
			entry.Error("HTTP access")
		case status >= 400:
			entry.Warn("HTTP access")
		default:
			entry.Info("HTTP access")
		}

		return err
	}
}
