package serverutils

import (
	"errors"

	"pdf-chat-client/pkg/ragclient"
	"pdf-chat-client/pkg/workspace"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandlerMiddleware turns errors returned by handlers into the JSON envelope.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}
		code := StatusFor(err)
		return ctx.Status(code).JSON(ErrorResponse(code, err.Error()))
	}
}

// StatusFor maps an error onto an HTTP status code.
func StatusFor(err error) int {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return fiberErr.Code
	}

	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return fiber.StatusBadRequest
	}

	switch {
	case errors.Is(err, workspace.ErrUnknownDocument):
		return fiber.StatusNotFound
	case errors.Is(err, workspace.ErrDuplicateName), errors.Is(err, workspace.ErrDocumentPending):
		return fiber.StatusConflict
	case errors.Is(err, workspace.ErrNotPDF):
		return fiber.StatusUnsupportedMediaType
	case errors.Is(err, workspace.ErrEmptyQuestion), errors.Is(err, workspace.ErrNoReadyDocuments):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, workspace.ErrClosed), errors.Is(err, workspace.ErrNotStarted):
		return fiber.StatusServiceUnavailable
	}

	var apiErr *ragclient.APIError
	if errors.As(err, &apiErr) || errors.Is(err, workspace.ErrUploadRejected) || errors.Is(err, workspace.ErrNotDeleted) {
		return fiber.StatusBadGateway
	}
	return fiber.StatusInternalServerError
}
