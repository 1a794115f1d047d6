// Package api serves the JSON REST API under /api/v1.
package api

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"shopfront/internal/apperr"
	applog "shopfront/internal/log"
	"shopfront/internal/services"
	"shopfront/internal/validate"
)

type envelope struct {
	Success bool                `json:"success"`
	Status  int                 `json:"status"`
	Data    any                 `json:"data,omitempty"`
	Message string              `json:"message,omitempty"`
	Errors  []apperr.FieldError `json:"errors,omitempty"`
}

func respond(c *fiber.Ctx, status int, data any, msg string) error {
	return c.Status(status).JSON(envelope{Success: true, Status: status, Data: data, Message: msg})
}

func ok(c *fiber.Ctx, data any) error      { return respond(c, fiber.StatusOK, data, "") }
func created(c *fiber.Ctx, data any) error { return respond(c, fiber.StatusCreated, data, "") }

// list wraps a page of items as {<key>: items, pagination: {...}}.
func list(c *fiber.Ctx, key string, items any, p services.Pagination) error {
	return ok(c, fiber.Map{key: items, "pagination": p})
}

// WriteError renders err as the failure envelope. Storage and unknown errors
// are logged and reported as a bare 500.
func WriteError(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	body := envelope{Success: false, Message: "Internal server error"}

	var fe *fiber.Error
	if ae, ok := apperr.As(err); ok {
		status = ae.Status()
		body.Message = ae.Public()
		body.Errors = ae.Fields
		if len(body.Errors) == 0 && ae.Field != "" && status < 500 {
			body.Errors = []apperr.FieldError{{Field: ae.Field, Message: ae.Message}}
		}
		switch {
		case status >= 500:
			applog.Error(c, "api.error", err, nil)
		case status == fiber.StatusForbidden:
			applog.Security(c, "access.denied", map[string]any{"reason": ae.Message})
		}
	} else if errors.As(err, &fe) {
		status = fe.Code
		body.Message = fe.Message
	} else {
		applog.Error(c, "api.error", err, nil)
	}
	body.Status = status
	return c.Status(status).JSON(body)
}

// bind decodes the JSON body into dst.
func bind(c *fiber.Ctx, dst any) error {
	if len(c.Body()) == 0 {
		return apperr.Validation("", "Request body is required")
	}
	if !strings.HasPrefix(strings.ToLower(c.Get(fiber.HeaderContentType)), fiber.MIMEApplicationJSON) {
		c.Request().Header.SetContentType(fiber.MIMEApplicationJSON)
	}
	if err := c.BodyParser(dst); err != nil {
		return apperr.Validation("", "Invalid JSON body")
	}
	return nil
}

// pageOf reads ?page= and ?per_page=.
func pageOf(c *fiber.Ctx) services.Page {
	return services.NewPage(validate.Page(c.Query("page"), 1), validate.Page(c.Query("per_page"), services.DefaultPerPage))
}

// param returns a validated path id.
func param(c *fiber.Ctx, name string) (string, error) {
	id, ok := validate.ID(c.Params(name))
	if !ok {
		return "", apperr.Validation(name, "Invalid %s", name)
	}
	return id, nil
}
