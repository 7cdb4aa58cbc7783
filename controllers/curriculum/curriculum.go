package curriculumController

import (
	"github.com/gofiber/fiber/v2"

	"vietlingo/middleware"
	"vietlingo/services"
)

func GetCurriculum(c *fiber.Ctx) error {
	return middleware.JsonResponse(c, fiber.StatusOK, true, "", services.App.Curriculum)
}

func GetTopic(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid topic id!", nil)
	}

	topic, ok := services.App.Curriculum.Topic(id)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Topic not found!", nil)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "", topic)
}
