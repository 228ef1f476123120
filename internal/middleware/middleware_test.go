package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"blogadmin/internal/observability"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextMiddlewareCarriesRequestID(t *testing.T) {
	app := fiber.New()
	app.Use(requestid.New())
	app.Use(TracingMiddleware())
	app.Use(ContextMiddleware())

	var gotRequestID, gotCorrelation string
	var gotTrace bool
	app.Get("/", func(c *fiber.Ctx) error {
		ctx := c.UserContext()
		gotRequestID, _ = ctx.Value(RequestIDKey).(string)
		gotCorrelation = observability.ExtractCorrelationID(ctx)
		_, gotTrace = ctx.Value(TraceIDKey).(string)
		return c.SendStatus(fiber.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "req-123")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, "req-123", gotRequestID)
	assert.Equal(t, "req-123", gotCorrelation)
	assert.True(t, gotTrace)
	assert.NotEmpty(t, resp.Header.Get("X-Trace-ID"))
}

func TestContextMiddlewareGeneratesCorrelationID(t *testing.T) {
	app := fiber.New()
	app.Use(ContextMiddleware())

	var got string
	app.Get("/", func(c *fiber.Ctx) error {
		got = observability.ExtractCorrelationID(c.UserContext())
		return nil
	})

	_, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.NotEmpty(t, got)
}

func TestStructuredLoggerPassesErrorsThrough(t *testing.T) {
	app := fiber.New()
	app.Use(StructuredLogger())
	app.Get("/boom", func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusTeapot, "short and stout")
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/boom", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusTeapot, resp.StatusCode)
}
