package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"shopfront/internal/domain"
	applog "shopfront/internal/log"
	"shopfront/internal/services"
)

type ProfileHandler struct {
	Users *services.UserService
}

func (h *ProfileHandler) Show(c *fiber.Ctx) error {
	return render(c, "profile", fiber.Map{})
}

func (h *ProfileHandler) Save(c *fiber.Ctx) error {
	u := sessionUser(c)
	first := strings.TrimSpace(c.FormValue("first_name"))
	last := strings.TrimSpace(c.FormValue("last_name"))
	email := strings.TrimSpace(c.FormValue("email"))
	var p domain.UserPatch
	if first != "" {
		p.FirstName = &first
	}
	if last != "" {
		p.LastName = &last
	}
	if email != "" {
		p.Email = &email
	}
	if _, err := h.Users.UpdateProfile(u.ID, p); err != nil {
		return flashErr(c, err, "/profile")
	}
	applog.Audit(c, "users.me.update", nil)
	setFlash(c, "Profile updated")
	return c.Redirect("/profile")
}
