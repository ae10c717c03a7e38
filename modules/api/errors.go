package api

import (
	"errors"

	domain "github.com/KamilBuksa/SimpleTodo/domain/todo"
	"github.com/gofiber/fiber/v2"
)

// statusForKind maps each error kind to its HTTP status.
func statusForKind(k domain.Kind) int {
	switch k {
	case domain.KindInvalidParameters, domain.KindCreateFailed, domain.KindMissingID:
		return fiber.StatusBadRequest
	case domain.KindValidation:
		return fiber.StatusUnprocessableEntity
	case domain.KindNotFound:
		return fiber.StatusNotFound
	case domain.KindUnauthorized:
		return fiber.StatusUnauthorized
	default:
		return fiber.StatusInternalServerError
	}
}

// writeError renders err as an ErrorResponse. Internal errors are logged and masked.
func (m *Module) writeError(c *fiber.Ctx, err error) error {
	e := domain.AsError(err)
	if e.Kind == domain.KindInternal || e.Kind == domain.KindCreateFailed {
		m.logger.Error("Request failed", "method", c.Method(), "path", c.Path(), "kind", string(e.Kind), "error", err)
	}

	detail := ErrorDetail{Code: e.Kind, Message: e.Message, Details: e.Details}
	if e.Kind == domain.KindInternal {
		detail = ErrorDetail{Code: domain.KindInternal, Message: domain.Internal(nil).Message}
	}
	return c.Status(statusForKind(e.Kind)).JSON(ErrorResponse{Error: detail})
}

// errorHandler renders errors that escape handlers, such as unknown routes.
func (m *Module) errorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code := domain.KindInternal
		switch fe.Code {
		case fiber.StatusNotFound:
			code = domain.KindNotFound
		case fiber.StatusBadRequest, fiber.StatusMethodNotAllowed, fiber.StatusRequestEntityTooLarge:
			code = domain.KindInvalidParameters
		}
		return c.Status(fe.Code).JSON(ErrorResponse{
			Error: ErrorDetail{Code: code, Message: fe.Message},
		})
	}
	return m.writeError(c, err)
}
