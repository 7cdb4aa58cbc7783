package userProgressValidator

import (
	"github.com/gofiber/fiber/v2"

	"vietlingo/middleware"
	"vietlingo/services"
	"vietlingo/validators"
)

type LessonRequest struct {
	TopicID  int `json:"topicId" validate:"required"`
	LessonID int `json:"lessonId" validate:"required"`
	Score    int `json:"score"`
}

type UpdateProgressRequest struct {
	TotalStudyTime *int `json:"totalStudyTime" validate:"omitempty,min=0"`
	CurrentTopic   *int `json:"currentTopic" validate:"omitempty,gte=1"`
	CurrentLesson  *int `json:"currentLesson" validate:"omitempty,gte=1"`
}

func (r *UpdateProgressRequest) Patch() services.ProgressPatch {
	return services.ProgressPatch{
		TotalStudyTime: r.TotalStudyTime,
		CurrentTopic:   r.CurrentTopic,
		CurrentLesson:  r.CurrentLesson,
	}
}

type LessonQuery struct {
	TopicID  int `query:"topicId"`
	LessonID int `query:"lessonId"`
}

type TopicQuery struct {
	TopicID int `query:"topicId"`
}

// AddLesson checks that the lesson is identified; range and score checks belong to the tracker.
func AddLesson() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(LessonRequest)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		if errors := validators.Struct(reqData); len(errors) > 0 {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Thiếu topicId hoặc lessonId", errors)
		}

		c.Locals("validatedLesson", reqData)
		return c.Next()
	}
}

func UpdateProgress() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(UpdateProgressRequest)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		errors := validators.Struct(reqData)
		if errors == nil {
			errors = make(map[string]string)
		}
		// The map position moves as a pair
		if reqData.CurrentTopic != nil && reqData.CurrentLesson == nil {
			errors["currentLesson"] = "currentLesson must be sent together with currentTopic!"
		}
		if reqData.CurrentLesson != nil && reqData.CurrentTopic == nil {
			errors["currentTopic"] = "currentTopic must be sent together with currentLesson!"
		}
		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedProgressUpdate", reqData)
		return c.Next()
	}
}

func CheckLesson() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(LessonQuery)
		if err := c.QueryParser(reqData); err != nil || reqData.TopicID == 0 || reqData.LessonID == 0 {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Thiếu topicId hoặc lessonId", nil)
		}

		c.Locals("validatedLessonQuery", reqData)
		return c.Next()
	}
}

func TopicProgress() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(TopicQuery)
		if err := c.QueryParser(reqData); err != nil || reqData.TopicID == 0 {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Thiếu topicId", nil)
		}

		c.Locals("validatedTopicQuery", reqData)
		return c.Next()
	}
}
