package curriculumRoutes

import (
	"github.com/gofiber/fiber/v2"

	curriculumControllers "vietlingo/controllers/curriculum"
)

func SetupCurriculumRoutes(router fiber.Router) {
	curriculumGroup := router.Group("/curriculum")

	curriculumGroup.Get("/", curriculumControllers.GetCurriculum)
	curriculumGroup.Get("/topics/:id", curriculumControllers.GetTopic)
}
