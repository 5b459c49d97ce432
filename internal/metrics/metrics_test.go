package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type conflictError struct{}

func (conflictError) Error() string { return "stock changed" }

func newApp() *fiber.App {
	Init()
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var ce conflictError
			if errors.As(err, &ce) {
				return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
			}
			var fe *fiber.Error
			if errors.As(err, &fe) {
				return c.Status(fe.Code).JSON(fiber.Map{"error": fe.Message})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Unexpected server error"})
		},
	})
	app.Use(Middleware())
	app.Post("/labels/conflict", func(c *fiber.Ctx) error { return conflictError{} })
	app.Post("/labels/broken", func(c *fiber.Ctx) error { return errors.New("boom") })
	app.Get("/labels/bad", func(c *fiber.Ctx) error { return fiber.NewError(fiber.StatusBadRequest, "bad") })
	app.Get("/labels/ok", func(c *fiber.Ctx) error { return c.SendString("ok") })
	app.Get("/metrics", Handler())
	return app
}

func TestMiddleware_StatusFromErrorHandler(t *testing.T) {
	app := newApp()

	cases := []struct {
		method, path string
		status       int
	}{
		{"POST", "/labels/conflict", fiber.StatusConflict},
		{"POST", "/labels/broken", fiber.StatusInternalServerError},
		{"GET", "/labels/bad", fiber.StatusBadRequest},
		{"GET", "/labels/ok", fiber.StatusOK},
	}
	for _, tc := range cases {
		resp, err := app.Test(httptest.NewRequest(tc.method, tc.path, nil), -1)
		require.NoError(t, err)
		assert.Equal(t, tc.status, resp.StatusCode, tc.path)
	}

	assert.Equal(t, 1.0, promtest.ToFloat64(HttpRequestsTotal.WithLabelValues("POST", "/labels/conflict", "409")))
	assert.Equal(t, 1.0, promtest.ToFloat64(HttpRequestsTotal.WithLabelValues("POST", "/labels/broken", "500")))
	assert.Equal(t, 1.0, promtest.ToFloat64(HttpRequestsTotal.WithLabelValues("GET", "/labels/bad", "400")))
	assert.Equal(t, 0.0, promtest.ToFloat64(HttpRequestsTotal.WithLabelValues("POST", "/labels/conflict", "200")))
}

func TestMiddleware_LabelsSurviveLaterRequests(t *testing.T) {
	app := newApp()

	for _, method := range []string{"POST", "GET", "POST", "GET"} {
		path := "/labels/ok"
		if method == "POST" {
			path = "/labels/conflict"
		}
		_, err := app.Test(httptest.NewRequest(method, path, nil), -1)
		require.NoError(t, err)
	}

	resp, err := app.Test(httptest.NewRequest("GET", "/metrics", nil), -1)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	text := string(body)

	assert.Contains(t, text, `http_requests_total{method="POST",path="/labels/conflict",status="409"}`)
	assert.Contains(t, text, `http_requests_total{method="GET",path="/labels/ok",status="200"}`)
	assert.NotContains(t, text, `method="GETT"`)
	assert.NotContains(t, text, `method="POSTT"`)
}
