package api

import (
	"github.com/gofiber/fiber/v2"

	"shopfront/internal/apperr"
	applog "shopfront/internal/log"
	"shopfront/internal/services"
)

type AuthHandler struct {
	Auth *services.AuthService
}

// POST /auth/register
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var in services.RegisterInput
	if err := bind(c, &in); err != nil {
		return err
	}
	u, err := h.Auth.Register(in)
	if err != nil {
		applog.Security(c, "auth.register.fail", map[string]any{"error": err.Error()})
		return err
	}
	sess, err := h.Auth.Issue(u)
	if err != nil {
		return err
	}
	applog.Audit(c, "auth.register", map[string]any{"user_id": u.ID})
	return created(c, sess)
}

type loginBody struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// POST /auth/login
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var in loginBody
	if err := bind(c, &in); err != nil {
		return err
	}
	if in.Email == "" || in.Password == "" {
		return apperr.Validation("email", "Email and password are required")
	}
	sess, err := h.Auth.Login(in.Email, in.Password)
	if err != nil {
		applog.Security(c, "auth.login.fail", map[string]any{"email": in.Email})
		return err
	}
	applog.Audit(c, "auth.login", map[string]any{"user_id": sess.User.ID})
	return ok(c, sess)
}

// POST /auth/refresh
func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	var in struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := bind(c, &in); err != nil {
		return err
	}
	if in.RefreshToken == "" {
		return apperr.Validation("refresh_token", "refresh_token is required")
	}
	sess, err := h.Auth.Refresh(c.UserContext(), in.RefreshToken)
	if err != nil {
		applog.Security(c, "auth.refresh.fail", nil)
		return err
	}
	return ok(c, sess)
}

// POST /auth/logout
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if err := h.Auth.Logout(c.UserContext(), currentClaims(c)); err != nil {
		return err
	}
	applog.Audit(c, "auth.logout", nil)
	return respond(c, fiber.StatusOK, nil, "Logged out")
}

// POST /auth/password-reset
func (h *AuthHandler) RequestReset(c *fiber.Ctx) error {
	var in struct {
		Email string `json:"email"`
	}
	if err := bind(c, &in); err != nil {
		return err
	}
	if err := h.Auth.RequestPasswordReset(in.Email); err != nil {
		applog.Error(c, "auth.reset.request.fail", err, nil)
	}
	applog.Audit(c, "auth.reset.request", nil)
	return respond(c, fiber.StatusOK, nil, "If that email is registered, a reset link has been sent")
}

// POST /auth/password-reset/confirm
func (h *AuthHandler) ConfirmReset(c *fiber.Ctx) error {
	var in struct {
		Token       string `json:"token"`
		NewPassword string `json:"new_password"`
	}
	if err := bind(c, &in); err != nil {
		return err
	}
	if in.Token == "" {
		return apperr.Validation("token", "token is required")
	}
	if err := h.Auth.ConfirmPasswordReset(in.Token, in.NewPassword); err != nil {
		applog.Security(c, "auth.reset.confirm.fail", nil)
		return err
	}
	applog.Audit(c, "auth.reset.confirm", nil)
	return respond(c, fiber.StatusOK, nil, "Password has been reset")
}

// GET /auth/me
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	return ok(c, currentUser(c))
}
