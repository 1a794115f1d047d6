package api

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"shopfront/internal/apperr"
	"shopfront/internal/domain"
	applog "shopfront/internal/log"
	"shopfront/internal/services"
	"shopfront/internal/token"
)

const (
	localUser    = "user"
	localClaims  = "claims"
	localAuthErr = "auth_err"
)

func bearer(c *fiber.Ctx) string {
	h := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return h
}

// Identify resolves a bearer token when one is sent. Failures are kept for
// RequireAuth so public routes still work with a stale token.
func Identify(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := bearer(c)
		if raw == "" {
			return c.Next()
		}
		u, claims, err := auth.Authenticate(c.UserContext(), raw)
		if err != nil {
			c.Locals(localAuthErr, err)
			return c.Next()
		}
		c.Locals(localUser, u)
		c.Locals(localClaims, claims)
		return c.Next()
	}
}

// RequireAuth rejects requests without a valid access token.
func RequireAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if currentUser(c) != nil {
			return c.Next()
		}
		if err, ok := c.Locals(localAuthErr).(error); ok {
			applog.Security(c, "auth.token.reject", map[string]any{"reason": err.Error()})
			return err
		}
		return apperr.Unauthorized("Authentication required")
	}
}

func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		u := currentUser(c)
		if u == nil {
			return apperr.Unauthorized("Authentication required")
		}
		if !u.IsAdmin() {
			applog.Security(c, "access.denied.admin", nil)
			return apperr.Forbidden("Admin access required")
		}
		return c.Next()
	}
}

func currentUser(c *fiber.Ctx) *domain.User {
	u, _ := c.Locals(localUser).(*domain.User)
	return u
}

func currentClaims(c *fiber.Ctx) *token.Claims {
	cl, _ := c.Locals(localClaims).(*token.Claims)
	return cl
}
