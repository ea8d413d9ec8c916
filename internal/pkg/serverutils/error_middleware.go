package serverutils

import (
	"errors"

	"med-agent-be/internal/repository/contract"
	"med-agent-be/pkg/catalog"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

const unavailableMessage = "Sorry, I can't answer right now. Please try again in a few minutes."

// ErrorHandlerMiddleware turns errors returned by handlers into the JSON
// error envelope.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		var validationErrs validator.ValidationErrors
		var fiberErr *fiber.Error
		switch {
		case errors.As(err, &validationErrs):
			body := ErrorResponse(fiber.StatusBadRequest, "Validation failed")
			body.Errors = validationMessages(validationErrs)
			return ctx.Status(fiber.StatusBadRequest).JSON(body)
		case errors.Is(err, catalog.ErrIndexUnavailable), errors.Is(err, contract.ErrSessionStore):
			return ctx.Status(fiber.StatusServiceUnavailable).JSON(ErrorResponse(fiber.StatusServiceUnavailable, unavailableMessage))
		case errors.As(err, &fiberErr):
			return ctx.Status(fiberErr.Code).JSON(ErrorResponse(fiberErr.Code, fiberErr.Message))
		default:
			return ctx.Status(fiber.StatusInternalServerError).JSON(ErrorResponse(fiber.StatusInternalServerError, "Internal server error"))
		}
	}
}
