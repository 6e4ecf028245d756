package serverutils

import (
	"errors"

	"video-intel-be/pkg/ragerr"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandlerMiddleware converts errors bubbling out of controllers into
// JSON envelopes, mapping the turn-error taxonomy to sensible HTTP codes.
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

		code := statusForTurnError(err)
		return ctx.Status(code).JSON(ErrorResponse(code, err.Error()))
	}
}

func statusForTurnError(err error) int {
	switch {
	case errors.Is(err, ragerr.ErrTurnInProgress):
		return fiber.StatusConflict
	case errors.Is(err, ragerr.ErrNoContentAvailable):
		return fiber.StatusNotFound
	case errors.Is(err, ragerr.ErrRetrievalUnavailable), errors.Is(err, ragerr.ErrTimeout):
		return fiber.StatusServiceUnavailable
	case errors.Is(err, ragerr.ErrGenerationFailure):
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}
