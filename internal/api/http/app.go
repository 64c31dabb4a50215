package http

import "github.com/gofiber/fiber/v2"

// NewApp builds the fiber app. c.IP() reads X-Forwarded-For only when the
// connecting peer matches trustedProxies; otherwise the socket address is the
// client, so rotating the header cannot mint fresh rate limit budgets.
func NewApp(name string, trustedProxies []string) *fiber.App {
	cfg := fiber.Config{AppName: name}
	if len(trustedProxies) > 0 {
		cfg.ProxyHeader = fiber.HeaderXForwardedFor
		cfg.EnableTrustedProxyCheck = true
		cfg.TrustedProxies = trustedProxies
		cfg.EnableIPValidation = true
	}
	return fiber.New(cfg)
}
