package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/fitonboard/backend/pkg/apperrors"
	"github.com/fitonboard/backend/pkg/logger"
)

// respondError writes err as {"error", "code", "fields"?} with the status
// its code maps to. Server-side failures are logged and their detail hidden.
func respondError(c *fiber.Ctx, err error) error {
	status := apperrors.HTTPStatus(err)
	code := apperrors.CodeOf(err)

	message := "Internal server error"
	var appErr *apperrors.Error
	if errors.As(err, &appErr) && status < fiber.StatusInternalServerError {
		message = appErr.Message
	}
	if status >= fiber.StatusInternalServerError {
		logger.Error("Request failed",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.String("code", string(code)),
			zap.Error(err),
		)
		if status == fiber.StatusBadGateway {
			message = "Workout generation is temporarily unavailable"
		}
	}

	body := fiber.Map{
		"error": message,
		"code":  code,
	}
	if fields := apperrors.FieldsOf(err); len(fields) > 0 {
		body["fields"] = fields
	}
	if apperrors.IsRetryable(err) {
		body["retryable"] = true
	}
	return c.Status(status).JSON(body)
}

func badBody(c *fiber.Ctx, err error) error {
	logger.Debug("Failed to parse request body", zap.String("path", c.Path()), zap.Error(err))
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": "Invalid request body",
		"code":  apperrors.CodeValidation,
	})
}
