package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"vietlingo/logger"
	"vietlingo/services"
)

// ServiceErrorResponse maps domain errors to HTTP statuses. Anything unexpected is logged
// and answered with a generic 500.
func ServiceErrorResponse(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrInvalidAmount):
		return JsonResponse(c, fiber.StatusBadRequest, false, "Số điểm exp không hợp lệ", nil)
	case errors.Is(err, services.ErrInvalidTopic),
		errors.Is(err, services.ErrInvalidLesson),
		errors.Is(err, services.ErrInvalidScore),
		errors.Is(err, services.ErrInvalidPatch):
		return JsonResponse(c, fiber.StatusBadRequest, false, err.Error(), nil)
	case errors.Is(err, services.ErrEmailTaken):
		return JsonResponse(c, fiber.StatusConflict, false, "Email đã được đăng ký!", nil)
	case errors.Is(err, services.ErrInvalidCredentials):
		return JsonResponse(c, fiber.StatusUnauthorized, false, "Email hoặc mật khẩu không đúng", nil)
	case errors.Is(err, services.ErrWrongPassword):
		return JsonResponse(c, fiber.StatusUnauthorized, false, "Current password is incorrect!", nil)
	case errors.Is(err, services.ErrUnknownLearner):
		return JsonResponse(c, fiber.StatusNotFound, false, "User not found!", nil)
	case errors.Is(err, services.ErrAccountBlocked):
		return JsonResponse(c, fiber.StatusUnauthorized, false, "Your account is temporarily blocked. Try again later.", nil)
	}

	logger.Log.Error("request failed",
		zap.String("method", c.Method()),
		zap.String("path", c.Path()),
		zap.String("requestId", requestID(c)),
		zap.Error(err))
	return JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to process your request!", nil)
}
