package ratelimit

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/spec-kit/attendance-service/pkg/util"
)

type routeRecorder struct{ routes []string }

func (r *routeRecorder) RecordRateLimited(route string) { r.routes = append(r.routes, route) }

type brokenLimiter struct{}

func (brokenLimiter) Allow(context.Context, string, string, int, time.Duration) (Decision, error) {
	return Decision{}, errors.New("redis: connection refused")
}

// behindProxy trusts the 0.0.0.0 peer that app.Test connects from.
var behindProxy = fiber.Config{
	ProxyHeader:             fiber.HeaderXForwardedFor,
	EnableTrustedProxyCheck: true,
	TrustedProxies:          []string{"0.0.0.0"},
	EnableIPValidation:      true,
}

func newLimitedApp(limiter Limiter, cfg fiber.Config, opts Options, limit int, window time.Duration) *fiber.App {
	cfg.ErrorHandler = func(c *fiber.Ctx, err error) error {
		de := apperrors.ToDomainError(err)
		for k, v := range de.Headers {
			c.Set(k, v)
		}
		return c.Status(de.HTTPStatus).JSON(fiber.Map{"error": de.Message, "code": de.Code})
	}
	app := fiber.New(cfg)
	guard := NewGuard(limiter, opts)
	app.Post("/api/admin/login", guard.Limit(limit, window), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	return app
}

func postLogin(t *testing.T, app *fiber.App, forwardedFor string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/admin/login", nil)
	if forwardedFor != "" {
		req.Header.Set("X-Forwarded-For", forwardedFor)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func TestGuardSixthLoginIsThrottled(t *testing.T) {
	limiter, clock := newTestLimiter(0)
	rec := &routeRecorder{}
	app := newLimitedApp(limiter, behindProxy, Options{Recorder: rec}, 5, time.Minute)

	for i := 0; i < 5; i++ {
		assert.Equal(t, fiber.StatusOK, postLogin(t, app, "198.51.100.4").StatusCode)
	}

	resp := postLogin(t, app, "198.51.100.4")
	assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "60", resp.Header.Get("Retry-After"))
	assert.Equal(t, []string{"/api/admin/login"}, rec.routes)

	clock.Advance(time.Minute + time.Second)
	assert.Equal(t, fiber.StatusOK, postLogin(t, app, "198.51.100.4").StatusCode)
}

func TestGuardUsesFirstForwardedAddress(t *testing.T) {
	limiter, _ := newTestLimiter(0)
	app := newLimitedApp(limiter, behindProxy, Options{}, 1, time.Minute)

	assert.Equal(t, fiber.StatusOK, postLogin(t, app, "192.0.2.1, 10.0.0.1").StatusCode)
	assert.Equal(t, fiber.StatusTooManyRequests, postLogin(t, app, "192.0.2.1").StatusCode)
	assert.Equal(t, fiber.StatusOK, postLogin(t, app, "192.0.2.2, 10.0.0.1").StatusCode)
}

func TestGuardIgnoresForwardedHeaderWhenUntrusted(t *testing.T) {
	limiter, _ := newTestLimiter(0)
	app := newLimitedApp(limiter, fiber.Config{}, Options{}, 1, time.Minute)

	assert.Equal(t, fiber.StatusOK, postLogin(t, app, "192.0.2.1").StatusCode)
	assert.Equal(t, fiber.StatusTooManyRequests, postLogin(t, app, "192.0.2.2").StatusCode)
}

func TestGuardIgnoresForwardedHeaderFromUntrustedPeer(t *testing.T) {
	limiter, _ := newTestLimiter(0)
	cfg := behindProxy
	cfg.TrustedProxies = []string{"10.0.0.0/8"}
	app := newLimitedApp(limiter, cfg, Options{}, 1, time.Minute)

	assert.Equal(t, fiber.StatusOK, postLogin(t, app, "192.0.2.1").StatusCode)
	assert.Equal(t, fiber.StatusTooManyRequests, postLogin(t, app, "192.0.2.2").StatusCode)
}

func TestGuardFailsOpenOnLimiterError(t *testing.T) {
	app := newLimitedApp(brokenLimiter{}, fiber.Config{}, Options{}, 1, time.Minute)

	for i := 0; i < 3; i++ {
		assert.Equal(t, fiber.StatusOK, postLogin(t, app, "").StatusCode)
	}
}
