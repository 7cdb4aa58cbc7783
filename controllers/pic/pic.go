package picController

import (
	"bytes"
	"errors"
	"mime/multipart"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"vietlingo/config"
	"vietlingo/logger"
	"vietlingo/metrics"
	"vietlingo/middleware"
	"vietlingo/ocr"
	"vietlingo/services"
	"vietlingo/utils"
)

const uploadFailedMessage = "Đã xảy ra lỗi khi tải lên tệp tin."

// UploadImage archives the drawing and forwards it unchanged to the recognition service.
func UploadImage(c *fiber.Ctx) error {
	file, ok := c.Locals("validatedImage").(*multipart.FileHeader)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Không có tệp tin được tải lên.", nil)
	}

	image, err := utils.ReadUploadedFile(file)
	if err != nil {
		logger.Log.Error("read uploaded drawing", zap.Error(err))
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, uploadFailedMessage, nil)
	}

	userId, _ := middleware.UserID(c)
	stored, err := utils.SaveUploadedFile(file, config.AppConfig.UploadDir, userId)
	if err != nil {
		// Archiving is best effort; recognition still goes ahead.
		logger.Log.Warn("archive drawing", zap.Error(err))
	}

	result, err := recognize(c, file.Filename, image)
	if err != nil {
		return recognitionErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, result.Message, fiber.Map{
		"ocr_text":   result.Text,
		"model_used": result.ModelUsed,
		"message":    result.Message,
		"file":       utils.GetFileURL(stored),
	})
}

// RecognizeImage flattens and downsizes the drawing before recognition and, when the form
// carries "expected", judges the recognized text against it.
func RecognizeImage(c *fiber.Ctx) error {
	file, ok := c.Locals("validatedImage").(*multipart.FileHeader)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Không có tệp tin được tải lên.", nil)
	}

	raw, err := utils.ReadUploadedFile(file)
	if err != nil {
		logger.Log.Error("read uploaded drawing", zap.Error(err))
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, uploadFailedMessage, nil)
	}

	image, err := ocr.NormalizeImage(bytes.NewReader(raw))
	if err != nil {
		return middleware.ValidationErrorResponse(c, map[string]string{"image": "Only PNG and JPEG drawings are accepted!"})
	}

	result, err := recognize(c, "drawing.png", image)
	if err != nil {
		return recognitionErrorResponse(c, err)
	}

	data := fiber.Map{
		"ocr_text":   result.Text,
		"model_used": result.ModelUsed,
		"message":    result.Message,
	}
	if expected := c.FormValue("expected"); expected != "" {
		data["match"] = ocr.Match(result.Text, expected)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, result.Message, data)
}

func recognize(c *fiber.Ctx, filename string, image []byte) (*ocr.Result, error) {
	start := time.Now()
	result, err := services.App.OCR.Recognize(c.UserContext(), filename, image)
	metrics.OCRDuration.Observe(time.Since(start).Seconds())

	var svcErr *ocr.ServiceError
	switch {
	case err == nil:
		metrics.OCRRequests.WithLabelValues("success").Inc()
	case errors.As(err, &svcErr):
		metrics.OCRRequests.WithLabelValues("service_error").Inc()
	default:
		metrics.OCRRequests.WithLabelValues("transport_error").Inc()
	}
	return result, err
}

// recognitionErrorResponse answers service-reported failures with 200 and success false so
// the drawing board can show the message; unreachable services are a 502.
func recognitionErrorResponse(c *fiber.Ctx, err error) error {
	var svcErr *ocr.ServiceError
	if errors.As(err, &svcErr) {
		return middleware.JsonResponse(c, fiber.StatusOK, false, svcErr.Message, nil)
	}
	logger.Log.Error("recognition service unreachable", zap.Error(err))
	return middleware.JsonResponse(c, fiber.StatusBadGateway, false, uploadFailedMessage, nil)
}
