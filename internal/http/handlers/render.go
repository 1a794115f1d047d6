package handlers

import (
	"net/url"
	"time"

	"github.com/gofiber/fiber/v2"

	"shopfront/internal/apperr"
	applog "shopfront/internal/log"
)

const flashCookie = "flash"

func render(c *fiber.Ctx, tmpl string, data fiber.Map) error {
	if data == nil {
		data = fiber.Map{}
	}
	// Inject user if present
	if u := c.Locals("user"); u != nil {
		data["User"] = u
	}
	if n, ok := c.Locals("cartCount").(int); ok {
		data["CartCount"] = n
	}
	// Pick up the token the CSRF middleware put into Locals, falling back to
	// the cookie when the middleware did not run for this route.
	tok, _ := c.Locals("CSRFToken").(string)
	if tok == "" {
		tok = c.Cookies("csrf_")
	}
	if tok != "" {
		data["CSRFToken"] = tok
	}
	if msg := popFlash(c); msg != "" {
		data["Flash"] = msg
	}
	return c.Render(tmpl, data, "layouts/main")
}

// fail renders the error page with status.
func fail(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).Render("error", fiber.Map{"Message": msg, "Status": status}, "layouts/main")
}

// failErr renders a service error, hiding internal detail.
func failErr(c *fiber.Ctx, action string, err error) error {
	status := apperr.StatusOf(err)
	msg := "Something went wrong. Please try again."
	if ae, ok := apperr.As(err); ok && status < 500 {
		msg = ae.Public()
	}
	if status >= 500 {
		applog.Error(c, action, err, nil)
	}
	return fail(c, status, msg)
}

// setFlash leaves a one-shot message for the next page.
func setFlash(c *fiber.Ctx, msg string) {
	c.Cookie(&fiber.Cookie{
		Name:     flashCookie,
		Value:    url.QueryEscape(msg),
		Path:     "/",
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Expires:  time.Now().Add(time.Minute),
	})
}

func popFlash(c *fiber.Ctx) string {
	raw := c.Cookies(flashCookie)
	if raw == "" {
		return ""
	}
	c.Cookie(&fiber.Cookie{Name: flashCookie, Value: "", Path: "/", Expires: time.Now().Add(-time.Hour)})
	msg, err := url.QueryUnescape(raw)
	if err != nil {
		return ""
	}
	return msg
}

// flashErr turns a service error into a flash message and redirects.
func flashErr(c *fiber.Ctx, err error, to string) error {
	msg := "Something went wrong. Please try again."
	if ae, ok := apperr.As(err); ok && ae.Status() < 500 {
		msg = ae.Public()
	}
	setFlash(c, msg)
	return c.Redirect(to)
}

// back returns the Referer when it is a local path, else def.
func back(c *fiber.Ctx, def string) string {
	ref := c.Get(fiber.HeaderReferer)
	if ref == "" {
		return def
	}
	u, err := url.Parse(ref)
	if err != nil || (u.Host != "" && u.Host != c.Hostname()) {
		return def
	}
	if u.RawQuery != "" {
		return u.Path + "?" + u.RawQuery
	}
	if u.Path == "" {
		return def
	}
	return u.Path
}
