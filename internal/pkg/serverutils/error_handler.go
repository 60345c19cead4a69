package serverutils

import (
	"errors"

	"newsbox-topics/pkg/apperr"

	"github.com/gofiber/fiber/v2"
)

// StatusFor maps an error kind onto an HTTP status.
func StatusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindValidation:
		return fiber.StatusBadRequest
	case apperr.KindNotFound:
		return fiber.StatusNotFound
	case apperr.KindInsufficientData:
		return fiber.StatusUnprocessableEntity
	case apperr.KindPayloadTooLarge:
		return fiber.StatusRequestEntityTooLarge
	case apperr.KindProvider, apperr.KindNaming:
		return fiber.StatusBadGateway
	case apperr.KindPersistence:
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

// ErrorHandlerMiddleware turns errors returned by handlers into {kind, message, hint} JSON bodies.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		var fe *fiber.Error
		if errors.As(err, &fe) {
			return ctx.Status(fe.Code).JSON(ErrorResponse{
				Code:    fe.Code,
				Kind:    string(kindForStatus(fe.Code)),
				Message: fe.Message,
			})
		}

		var ae *apperr.Error
		if !errors.As(err, &ae) {
			return ctx.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
				Code:    fiber.StatusInternalServerError,
				Kind:    string(apperr.KindUnknown),
				Message: "internal server error",
			})
		}

		status := StatusFor(ae.Kind)
		message := ae.Message
		if message == "" && ae.Err != nil {
			message = ae.Err.Error()
		}
		return ctx.Status(status).JSON(ErrorResponse{
			Code:    status,
			Kind:    string(ae.Kind),
			Message: message,
			Hint:    ae.Hint,
			Details: ae.Details,
		})
	}
}

func kindForStatus(code int) apperr.Kind {
	switch {
	case code == fiber.StatusNotFound:
		return apperr.KindNotFound
	case code == fiber.StatusRequestEntityTooLarge:
		return apperr.KindPayloadTooLarge
	case code < fiber.StatusInternalServerError:
		return apperr.KindValidation
	default:
		return apperr.KindUnknown
	}
}
