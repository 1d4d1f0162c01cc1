package serverutils

import (
	"errors"
	"log"

	"saas-billing-be/internal/pkg/apperror"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandlerMiddleware turns errors returned by handlers into the standard
// error body. Typed errors keep their status; anything else is a 500 whose
// detail stays in the server log.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		var fe *fiber.Error
		if errors.As(err, &fe) {
			return ctx.Status(fe.Code).JSON(ErrorResponse(fe.Code, fe.Message))
		}

		status := apperror.HTTPStatus(err)
		if status == fiber.StatusInternalServerError {
			log.Printf("[ERROR] %s %s: %v", ctx.Method(), ctx.Path(), err)
			return ctx.Status(status).JSON(ErrorResponse(status, "internal server error"))
		}

		body := ErrorResponse(status, err.Error())
		body.Error = apperror.Code(err)
		return ctx.Status(status).JSON(body)
	}
}
