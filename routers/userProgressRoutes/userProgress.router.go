package userProgressRoutes

import (
	"github.com/gofiber/fiber/v2"

	userProgressControllers "vietlingo/controllers/userProgress"
	"vietlingo/middleware"
	userProgressValidators "vietlingo/validators/userProgress"
)

func SetupUserProgressRoutes(router fiber.Router) {
	userProgressGroup := router.Group("/userProgress", middleware.JWTMiddleware)

	userProgressGroup.Get("/", userProgressControllers.GetUserProgress)
	userProgressGroup.Put("/", userProgressValidators.UpdateProgress(), userProgressControllers.UpdateUserProgress)
	userProgressGroup.Post("/lesson", userProgressValidators.AddLesson(), userProgressControllers.AddLessonProgress)
	userProgressGroup.Get("/lesson/check", userProgressValidators.CheckLesson(), userProgressControllers.CheckLessonCompleted)
	userProgressGroup.Get("/topic", userProgressValidators.TopicProgress(), userProgressControllers.GetTopicProgress)
}
