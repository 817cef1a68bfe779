package http

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/elevprofile/internal/adapters/geojson"
	"github.com/samirrijal/elevprofile/internal/core/domain"
	"github.com/samirrijal/elevprofile/internal/core/usecases"
)

// APIError is a structured error response.
type APIError struct {
	Status    int    `json:"status"`
	Code      string `json:"code"`    // bad_request, invalid_input, not_found, tile_unavailable, ...
	Message   string `json:"message"` // Human-readable message
	RequestID string `json:"request_id,omitempty"`
}

// newError builds a JSON error response with a request ID.
func newError(c *fiber.Ctx, status int, code string, message string) error {
	reqID, _ := c.Locals("requestid").(string)
	return c.Status(status).JSON(APIError{
		Status:    status,
		Code:      code,
		Message:   message,
		RequestID: reqID,
	})
}

// errBadRequest returns a 400 error.
func errBadRequest(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusBadRequest, "bad_request", msg)
}

// errNotFound returns a 404 error.
func errNotFound(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusNotFound, "not_found", msg)
}

// errInternal returns a 500 error.
func errInternal(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusInternalServerError, "internal_error", msg)
}

// profileError maps pipeline errors to responses.
func profileError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, geojson.ErrMalformed):
		return errBadRequest(c, err.Error())
	case domain.IsInputError(err):
		return newError(c, fiber.StatusBadRequest, "invalid_input", err.Error())
	case errors.Is(err, domain.ErrNotFound):
		return errNotFound(c, "profile not found")
	case errors.Is(err, domain.ErrTileUnavailable):
		return newError(c, fiber.StatusBadGateway, "tile_unavailable", err.Error())
	case errors.Is(err, domain.ErrSampleOutOfBounds):
		return newError(c, fiber.StatusUnprocessableEntity, "sample_out_of_bounds", err.Error())
	case errors.Is(err, usecases.ErrQueueUnavailable):
		return newError(c, fiber.StatusServiceUnavailable, "queue_unavailable", err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		// let the timeout middleware answer 408
		return err
	}
	LoggerFromCtx(c.UserContext()).Error("profile request failed", "error", err)
	return errInternal(c, err.Error())
}
