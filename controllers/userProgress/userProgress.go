package userProgressController

import (
	"github.com/gofiber/fiber/v2"

	"vietlingo/middleware"
	"vietlingo/services"
	userProgressValidator "vietlingo/validators/userProgress"
)

func GetUserProgress(c *fiber.Ctx) error {
	userId, ok := middleware.UserID(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	rec, err := services.App.Tracker.Get(c.UserContext(), userId)
	if err != nil {
		return middleware.ServiceErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "", rec)
}

func AddLessonProgress(c *fiber.Ctx) error {
	userId, ok := middleware.UserID(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	reqData, ok := c.Locals("validatedLesson").(*userProgressValidator.LessonRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	result, err := services.App.Tracker.RecordLessonCompletion(c.UserContext(), userId, reqData.TopicID, reqData.LessonID, reqData.Score)
	if err != nil {
		return middleware.ServiceErrorResponse(c, err)
	}

	message := "Đã cập nhật tiến độ bài học"
	if result.NewCompletion {
		message = "Đã hoàn thành bài học"
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, message, result)
}

func UpdateUserProgress(c *fiber.Ctx) error {
	userId, ok := middleware.UserID(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	reqData, ok := c.Locals("validatedProgressUpdate").(*userProgressValidator.UpdateProgressRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	rec, err := services.App.Tracker.Update(c.UserContext(), userId, reqData.Patch())
	if err != nil {
		return middleware.ServiceErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Đã cập nhật tiến độ học tập", rec)
}

func CheckLessonCompleted(c *fiber.Ctx) error {
	userId, ok := middleware.UserID(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	reqData, ok := c.Locals("validatedLessonQuery").(*userProgressValidator.LessonQuery)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Thiếu topicId hoặc lessonId", nil)
	}

	completed, err := services.App.Tracker.IsLessonCompleted(c.UserContext(), userId, reqData.TopicID, reqData.LessonID)
	if err != nil {
		return middleware.ServiceErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "", fiber.Map{"completed": completed})
}

func GetTopicProgress(c *fiber.Ctx) error {
	userId, ok := middleware.UserID(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	reqData, ok := c.Locals("validatedTopicQuery").(*userProgressValidator.TopicQuery)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Thiếu topicId", nil)
	}

	progress, err := services.App.Tracker.TopicProgress(c.UserContext(), userId, reqData.TopicID)
	if err != nil {
		return middleware.ServiceErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "", progress)
}
