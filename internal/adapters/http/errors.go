package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/multimap/internal/core/domain"
	"github.com/samirrijal/multimap/internal/core/usecases"
)

// Values of APIError.Code.
const (
	codeBadRequest  = "bad_request"
	codeNotFound    = "not_found"
	codeBuildFailed = "build_failed"
	codeInternal    = "internal_error"
	codeUnavailable = "unavailable"
	codeRateLimited = "rate_limited"
)

// APIError is the JSON body of every error response.
type APIError struct {
	Status    int    `json:"status"`
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

func (e *APIError) Error() string { return e.Code + ": " + e.Message }

// writeError stamps the request id on e and sends it.
func writeError(c *fiber.Ctx, e *APIError) error {
	if e.RequestID == "" {
		e.RequestID, _ = c.Locals("requestid").(string)
	}
	return c.Status(e.Status).JSON(e)
}

func newError(c *fiber.Ctx, status int, code, message string) error {
	return writeError(c, &APIError{Status: status, Code: code, Message: message})
}

// bindBody parses the JSON body into dst and validates it.
func bindBody(c *fiber.Ctx, dst any) *APIError {
	if err := c.BodyParser(dst); err != nil {
		return &APIError{Status: fiber.StatusBadRequest, Code: codeBadRequest, Message: "invalid request body"}
	}
	if err := validate.Struct(dst); err != nil {
		return &APIError{Status: fiber.StatusBadRequest, Code: codeBadRequest, Message: validationMessage(err)}
	}
	return nil
}

// domainError maps a usecase error onto a response. msg replaces the
// internal error text for anything but not-found.
func domainError(c *fiber.Ctx, err error, msg string) error {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return newError(c, fiber.StatusNotFound, codeNotFound, msg)
	case errors.Is(err, usecases.ErrBuildFailed):
		return newError(c, fiber.StatusUnprocessableEntity, codeBuildFailed, msg)
	default:
		return newError(c, fiber.StatusInternalServerError, codeInternal, msg)
	}
}

func errBadRequest(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusBadRequest, codeBadRequest, msg)
}

func errUnavailable(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusServiceUnavailable, codeUnavailable, msg)
}
