package middleware

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	apperrors "process-monitor/internal/common/errors"
)

// ============================================================
// Error Handler
// ============================================================

// ErrorHandler превращает ошибку обработчика в ответ {"error", "code"}.
// Ошибки 5xx пишутся в журнал.
func ErrorHandler(log *zap.Logger) fiber.ErrorHandler {
	return func(c fiber.Ctx, err error) error {
		status, body := ErrorResponse(err)
		if status >= http.StatusInternalServerError {
			log.Error("Request failed",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.Int("status", status),
				zap.Error(err),
			)
		}
		return c.Status(status).JSON(body)
	}
}

// ErrorResponse возвращает HTTP-статус и тело ответа для ошибки.
func ErrorResponse(err error) (int, fiber.Map) {
	if se, ok := apperrors.As(err); ok {
		body := fiber.Map{"error": se.Error(), "code": se.Code}
		if se.Retryable {
			body["retryable"] = true
		}
		if len(se.Metadata) > 0 {
			body["metadata"] = se.Metadata
		}
		return se.HTTPStatus(), body
	}

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code := apperrors.CodeInternal
		switch {
		case fe.Code == http.StatusNotFound:
			code = apperrors.CodeNotFound
		case fe.Code >= 400 && fe.Code < 500:
			code = apperrors.CodeValidationFailed
		}
		return fe.Code, fiber.Map{"error": fe.Message, "code": code}
	}

	return http.StatusInternalServerError, fiber.Map{"error": "internal server error", "code": apperrors.CodeInternal}
}
