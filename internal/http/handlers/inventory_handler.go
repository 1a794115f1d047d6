package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"shopfront/internal/apperr"
	"shopfront/internal/services"
	"shopfront/internal/validate"
)

type InventoryHandler struct {
	Inv *services.InventoryService
}

// Check backs the availability badge on the product page.
func (h *InventoryHandler) Check(c *fiber.Ctx) error {
	productID := strings.TrimSpace(c.Query("productId"))
	if _, ok := validate.ID(productID); !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "missing productId",
		})
	}
	avail, err := h.Inv.CheckAvailability(productID)
	if err != nil {
		msg := "could not check availability"
		if ae, ok := apperr.As(err); ok {
			msg = ae.Public()
		}
		return c.Status(apperr.StatusOf(err)).JSON(fiber.Map{"error": msg})
	}
	return c.JSON(avail)
}
