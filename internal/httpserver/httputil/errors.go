package httputil

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/ncecere/ai_media_studio/internal/models"
)

// Error is a client-visible failure rendered as
// {"error", "message"?, "hint"?, "details"?}.
type Error struct {
	Status  int
	Message string
	Detail  string
	Hint    string
	Details any
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return e.Message + ": " + e.Detail
	}
	return e.Message
}

// BadRequest builds a 400 error with optional details.
func BadRequest(msg string, details any) *Error {
	return &Error{Status: fiber.StatusBadRequest, Message: msg, Details: details}
}

// WriteError standardizes JSON error responses.
func WriteError(c *fiber.Ctx, status int, msg string) error {
	return WriteAPIError(c, &Error{Status: status, Message: msg})
}

// WriteAPIError renders e, filling in the status text when no message is set.
func WriteAPIError(c *fiber.Ctx, e *Error) error {
	status := e.Status
	if status == 0 {
		status = fiber.StatusInternalServerError
	}
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(status)
		if msg == "" {
			msg = "unknown error"
		}
	}
	body := fiber.Map{"error": msg}
	if e.Detail != "" {
		body["message"] = e.Detail
	}
	if e.Hint != "" {
		body["hint"] = e.Hint
	}
	if e.Details != nil {
		body["details"] = e.Details
	}
	return c.Status(status).JSON(body)
}

// FromConfigError converts a missing-setting error into a 500 response body.
func FromConfigError(err error) (*Error, bool) {
	var ce *models.ConfigError
	if !errors.As(err, &ce) {
		return nil, false
	}
	detail := ce.Message
	if detail == "" {
		detail = err.Error()
	}
	return &Error{
		Status:  fiber.StatusInternalServerError,
		Message: ce.Error(),
		Detail:  detail,
		Hint:    ce.Hint,
	}, true
}
