package handlers

import (
	"errors"
	"html"

	"github.com/gofiber/fiber/v3"

	"issuebrowser/internal/browser"
	"issuebrowser/internal/middleware"
)

// ErrSessionNotFound is returned when a request reaches a handler without a
// browser session attached.
var ErrSessionNotFound = errors.New("browser session not found")

// htmxError returns an error message as HTML that HTMX will display.
// Uses 200 status so HTMX processes the swap (HTMX ignores non-2xx by default).
func htmxError(c fiber.Ctx, message string) error {
	return c.SendString(
		`<div class="p-3 rounded-lg bg-red-50 dark:bg-red-900/30 text-red-700 dark:text-red-300 text-sm">` + html.EscapeString(message) + `</div>`,
	)
}

// badRequest reports invalid input. HTMX requests get an inline message with
// a 400 status and HX-Reswap so the message still shows.
func badRequest(c fiber.Ctx, message string) error {
	if c.Get("HX-Request") == "true" {
		c.Set("HX-Reswap", "innerHTML")
		c.Set("HX-Retarget", "#flash")
		c.Status(fiber.StatusBadRequest)
		return htmxError(c, message)
	}
	return fiber.NewError(fiber.StatusBadRequest, message)
}

func sessionFrom(c fiber.Ctx) (*browser.Session, error) {
	b := middleware.Browser(c)
	if b == nil {
		return nil, fiber.NewError(fiber.StatusInternalServerError, ErrSessionNotFound.Error())
	}
	return b, nil
}
