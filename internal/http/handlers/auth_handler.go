package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"shopfront/internal/apperr"
	"shopfront/internal/log"
	"shopfront/internal/services"
	"shopfront/internal/validate"
)

type AuthHandler struct {
	Auth *services.AuthService
}

func ensureSID(c *fiber.Ctx) string {
	sid := c.Cookies("sid")
	if sid == "" {
		sid = uuid.NewString()
		c.Cookie(&fiber.Cookie{
			Name:     "sid",
			Value:    sid,
			Path:     "/",
			HTTPOnly: true,
			SameSite: fiber.CookieSameSiteLaxMode,
			Secure:   false,
		})
	}
	return sid
}

// rotateSID issues a fresh session id, so a pre-login sid cannot be fixed by
// an attacker.
func rotateSID(c *fiber.Ctx) string {
	sid := uuid.NewString()
	c.Cookie(&fiber.Cookie{
		Name:     "sid",
		Value:    sid,
		Path:     "/",
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Secure:   false,
	})
	return sid
}

func (h *AuthHandler) LoginForm(c *fiber.Ctx) error {
	ensureSID(c)
	return render(c, "login", fiber.Map{"Err": ""})
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	email := c.FormValue("email")
	pass := c.FormValue("password")
	if _, ok := validate.Email(email); !ok {
		log.Security(c, "auth.login.fail", map[string]any{"email": email, "reason": "bad_format"})
		return c.Status(fiber.StatusUnauthorized).Render("login", fiber.Map{"Err": "Invalid email or password", "CSRFToken": c.Cookies("csrf_")}, "layouts/main")
	}
	if !validate.Password(pass) {
		log.Security(c, "auth.login.fail", map[string]any{"email": email, "reason": "bad_password_format"})
		return c.Status(fiber.StatusUnauthorized).Render("login", fiber.Map{"Err": "Invalid email or password", "CSRFToken": c.Cookies("csrf_")}, "layouts/main")
	}

	sid := rotateSID(c)
	u, err := h.Auth.LoginSession(sid, email, pass)
	if err != nil {
		msg := "Invalid email or password"
		if ae, ok := apperr.As(err); ok && ae.Status() == fiber.StatusUnauthorized {
			msg = ae.Public()
		}
		log.Security(c, "auth.login.fail", map[string]any{"email": email})
		return c.Status(fiber.StatusUnauthorized).Render("login", fiber.Map{"Err": msg, "CSRFToken": c.Cookies("csrf_")}, "layouts/main")
	}

	log.Audit(c, "auth.login.success", map[string]any{"email": email, "user": u.ID})
	return c.Redirect("/")
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	sid := ensureSID(c)
	_ = h.Auth.LogoutSession(sid)
	// Expire cookie
	c.Cookie(&fiber.Cookie{
		Name:     "sid",
		Value:    "",
		Path:     "/",
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Secure:   false,
		Expires:  time.Now().Add(-1 * time.Hour),
	})
	log.Audit(c, "auth.logout", map[string]any{"sid": sid})
	return c.Redirect("/")
}

func (h *AuthHandler) RegisterForm(c *fiber.Ctx) error {
	return render(c, "register", fiber.Map{})
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	in := services.RegisterInput{
		Email:     c.FormValue("email"),
		Password:  c.FormValue("password"),
		FirstName: c.FormValue("first_name"),
		LastName:  c.FormValue("last_name"),
	}
	u, err := h.Auth.Register(in)
	if err != nil {
		status := apperr.StatusOf(err)
		if status >= 500 {
			log.Error(c, "auth.register.fail", err, nil)
			return fail(c, status, "Could not create your account. Please try again.")
		}
		log.Security(c, "auth.register.fail", map[string]any{"email": in.Email})
		return c.Status(status).Render("register", fiber.Map{
			"Err": registerMessage(err), "Email": in.Email, "FirstName": in.FirstName, "LastName": in.LastName,
			"CSRFToken": c.Cookies("csrf_"),
		}, "layouts/main")
	}
	sid := rotateSID(c)
	if _, err := h.Auth.LoginSession(sid, u.Email, in.Password); err != nil {
		log.Error(c, "auth.register.login.fail", err, nil)
		return c.Redirect("/login")
	}
	log.Audit(c, "auth.register", map[string]any{"user": u.ID})
	setFlash(c, "Welcome, "+u.FirstName+"!")
	return c.Redirect("/")
}

func registerMessage(err error) string {
	ae, ok := apperr.As(err)
	if !ok {
		return "Could not create your account"
	}
	if len(ae.Fields) > 0 {
		f := ae.Fields[0]
		return f.Field + " " + f.Message
	}
	return ae.Public()
}

func (h *AuthHandler) ForgotForm(c *fiber.Ctx) error {
	return render(c, "forgot_password", fiber.Map{})
}

func (h *AuthHandler) Forgot(c *fiber.Ctx) error {
	email := c.FormValue("email")
	if err := h.Auth.RequestPasswordReset(email); err != nil {
		log.Error(c, "auth.reset.request.fail", err, nil)
	}
	log.Audit(c, "auth.reset.request", nil)
	setFlash(c, "If that email is registered, a reset link is on its way.")
	return c.Redirect("/login")
}

func (h *AuthHandler) ResetForm(c *fiber.Ctx) error {
	return render(c, "reset_password", fiber.Map{"Token": c.Query("token")})
}

func (h *AuthHandler) Reset(c *fiber.Ctx) error {
	tok := c.FormValue("token")
	pass := c.FormValue("password")
	if pass != c.FormValue("confirm") {
		return c.Status(fiber.StatusBadRequest).Render("reset_password", fiber.Map{
			"Token": tok, "Err": "Passwords do not match", "CSRFToken": c.Cookies("csrf_"),
		}, "layouts/main")
	}
	if err := h.Auth.ConfirmPasswordReset(tok, pass); err != nil {
		log.Security(c, "auth.reset.confirm.fail", nil)
		msg := "Invalid or expired reset link"
		if ae, ok := apperr.As(err); ok && ae.Status() < 500 {
			msg = ae.Public()
		}
		return c.Status(apperr.StatusOf(err)).Render("reset_password", fiber.Map{
			"Token": tok, "Err": msg, "CSRFToken": c.Cookies("csrf_"),
		}, "layouts/main")
	}
	log.Audit(c, "auth.reset.confirm", nil)
	setFlash(c, "Password updated. Please sign in.")
	return c.Redirect("/login")
}
