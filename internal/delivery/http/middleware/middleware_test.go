package middleware

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"sbomer-dashboard/internal/pkg/response"

	"github.com/gofiber/fiber/v3"
)

func TestErrorMiddleware_MapsErrors(t *testing.T) {
	app := fiber.New()
	app.Use(NewAccessLogMiddleware(nil).Middleware())
	app.Use(NewErrorMiddleware(nil).Middleware())
	app.Get("/upstream", func(c fiber.Ctx) error {
		return NewAppError(fiber.StatusBadGateway, "sbomer api request failed: status=500 body=boom", nil, errors.New("x"))
	})
	app.Get("/internal", func(c fiber.Ctx) error {
		return NewAppError(fiber.StatusInternalServerError, "db password leaked", nil, nil)
	})
	app.Get("/fiber", func(c fiber.Ctx) error {
		return fiber.ErrNotFound
	})
	app.Get("/plain", func(c fiber.Ctx) error {
		return errors.New("secret detail")
	})
	app.Get("/panic", func(c fiber.Ctx) error {
		panic("boom")
	})

	cases := []struct {
		path    string
		status  int
		message string
	}{
		{"/upstream", 502, "sbomer api request failed: status=500 body=boom"},
		{"/internal", 500, response.MessageInternalServerError},
		{"/fiber", 404, "Not Found"},
		{"/plain", 500, response.MessageInternalServerError},
		{"/panic", 500, response.MessageInternalServerError},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, tc.path, nil)
		req.Header.Set("X-Request-ID", "rid-"+tc.path)
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("%s: %v", tc.path, err)
		}
		body, _ := io.ReadAll(resp.Body)
		var out response.SemanticResponse
		if err := json.Unmarshal(body, &out); err != nil {
			t.Fatalf("%s: bad json %s", tc.path, body)
		}
		if resp.StatusCode != tc.status || out.Message != tc.message {
			t.Fatalf("%s: got %d %q, want %d %q", tc.path, resp.StatusCode, out.Message, tc.status, tc.message)
		}
		if out.RequestID != "rid-"+tc.path || resp.Header.Get("X-Request-ID") != "rid-"+tc.path {
			t.Fatalf("%s: request id not propagated: %q", tc.path, out.RequestID)
		}
	}
}
