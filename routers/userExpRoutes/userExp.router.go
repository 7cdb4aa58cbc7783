package userExpRoutes

import (
	"github.com/gofiber/fiber/v2"

	userExpControllers "vietlingo/controllers/userExp"
	"vietlingo/middleware"
	userExpValidators "vietlingo/validators/userExp"
)

func SetupUserExpRoutes(router fiber.Router) {
	userExpGroup := router.Group("/userExp")

	// Public
	userExpGroup.Get("/leaderboard", userExpControllers.GetLeaderboard)

	userExpGroup.Get("/", middleware.JWTMiddleware, userExpControllers.GetUserExp)
	userExpGroup.Put("/", middleware.JWTMiddleware, userExpValidators.UpdateExp(), userExpControllers.UpdateUserExp)
	userExpGroup.Post("/add", middleware.JWTMiddleware, userExpValidators.AddExp(), userExpControllers.AddExp)
	userExpGroup.Post("/streak", middleware.JWTMiddleware, userExpControllers.UpdateStreak)
}
