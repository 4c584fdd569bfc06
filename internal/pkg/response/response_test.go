package response

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v3"
)

func TestSuccessAndError_Envelope(t *testing.T) {
	app := fiber.New()
	app.Use(func(c fiber.Ctx) error {
		c.Locals(LocalsRequestID, "rid-1")
		return c.Next()
	})
	app.Get("/ok", func(c fiber.Ctx) error {
		return Success(c, fiber.StatusOK, "", map[string]int{"n": 1})
	})
	app.Get("/bad", func(c fiber.Ctx) error {
		return Error(c, 999, "", nil)
	})

	cases := []struct {
		path    string
		status  int
		message string
	}{
		{"/ok", fiber.StatusOK, MessageOK},
		{"/bad", fiber.StatusInternalServerError, MessageInternalServerError},
	}
	for _, tc := range cases {
		resp, err := app.Test(httptest.NewRequest("GET", tc.path, nil))
		if err != nil {
			t.Fatalf("%s: %v", tc.path, err)
		}
		body, _ := io.ReadAll(resp.Body)
		var out SemanticResponse
		if err := json.Unmarshal(body, &out); err != nil {
			t.Fatalf("%s: bad json %s", tc.path, body)
		}
		if resp.StatusCode != tc.status || out.Status != tc.status || out.Message != tc.message || out.RequestID != "rid-1" {
			t.Fatalf("%s: unexpected response %d %+v", tc.path, resp.StatusCode, out)
		}
	}
}
