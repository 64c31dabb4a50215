package ratelimit

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	apperrors "github.com/spec-kit/attendance-service/pkg/util"
)

// Recorder receives one call per rejected request.
type Recorder interface {
	RecordRateLimited(route string)
}

// Options tune how the guard reports rejections.
type Options struct {
	Logger   *zap.Logger
	Recorder Recorder
}

// Guard builds per-route fiber handlers over a shared limiter.
type Guard struct {
	limiter  Limiter
	logger   *zap.Logger
	recorder Recorder
	warnings *rate.Sometimes
}

// NewGuard wraps limiter for use as route middleware.
func NewGuard(limiter Limiter, opts Options) *Guard {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Guard{
		limiter:  limiter,
		logger:   logger,
		recorder: opts.Recorder,
		warnings: &rate.Sometimes{First: 1, Interval: 10 * time.Second},
	}
}

// Limit admits at most limit requests per client within each window.
func (g *Guard) Limit(limit int, window time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		route := c.Route().Path
		client := g.ClientAddr(c)

		decision, err := g.limiter.Allow(c.UserContext(), client, route, limit, window)
		if err != nil {
			g.logger.Error("rate limiter unavailable, admitting request",
				zap.String("route", route),
				zap.Error(err))
			return c.Next()
		}
		if decision.Allowed {
			return c.Next()
		}

		if g.recorder != nil {
			g.recorder.RecordRateLimited(route)
		}
		g.warnings.Do(func() {
			g.logger.Warn("rate limit exceeded",
				zap.String("route", route),
				zap.String("client", client),
				zap.Int("retry_after_seconds", decision.RetryAfterSeconds()))
		})
		return apperrors.NewTooManyRequests(decision.RetryAfterSeconds())
	}
}

// ClientAddr identifies the caller for throttling purposes. Forwarded
// headers count only when the app trusts the peer; see fiber.Config.TrustedProxies.
func (g *Guard) ClientAddr(c *fiber.Ctx) string {
	if ip := c.IP(); ip != "" {
		return ip
	}
	return "unknown"
}
