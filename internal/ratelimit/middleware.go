package ratelimit

import (
	"context"
	"math"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"shopfront/internal/apperr"
	applog "shopfront/internal/log"
)

// Config describes one limited route group.
type Config struct {
	Store  Store
	Max    int
	Window time.Duration
	// Scope namespaces the counters, so "auth" and "api" limits do not share
	// a bucket for the same client.
	Scope string
	// Next skips the limiter when it returns true.
	Next func(c *fiber.Ctx) bool
	Now  func() time.Time
}

type identified interface{ Identity() string }

// Key identifies the caller: the authenticated user when known, else the IP.
func Key(c *fiber.Ctx, scope string) string {
	if u, ok := c.Locals("user").(identified); ok && u != nil && u.Identity() != "" {
		return scope + ":user:" + u.Identity()
	}
	return scope + ":ip:" + c.IP()
}

// New returns fiber middleware enforcing cfg. Store failures let the request
// through and are logged.
func New(cfg Config) fiber.Handler {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Scope == "" {
		cfg.Scope = "api"
	}
	return func(c *fiber.Ctx) error {
		if cfg.Next != nil && cfg.Next(c) {
			return c.Next()
		}
		ctx, cancel := context.WithTimeout(c.UserContext(), 500*time.Millisecond)
		defer cancel()

		now := cfg.Now()
		res, err := cfg.Store.Allow(ctx, Key(c, cfg.Scope), cfg.Max, cfg.Window, now)
		if err != nil {
			applog.Error(c, "rate.store.fail", err, map[string]any{"scope": cfg.Scope})
			return c.Next()
		}

		c.Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
		c.Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
		c.Set("X-RateLimit-Reset", strconv.FormatInt(res.Reset.Unix(), 10))
		if res.Allowed {
			return c.Next()
		}

		secs := int(math.Ceil(res.RetryAfter.Seconds()))
		if secs < 1 {
			secs = 1
		}
		c.Set(fiber.HeaderRetryAfter, strconv.Itoa(secs))
		applog.Security(c, "rate.limit.hit", map[string]any{"scope": cfg.Scope, "retry_after": secs})
		return apperr.RateLimited("Rate limit exceeded. Try again in %ds.", secs)
	}
}
