package userProfileRoutes

import (
	"github.com/gofiber/fiber/v2"

	userProfileController "vietlingo/controllers/userControllers"
	"vietlingo/middleware"
	userProfileValidator "vietlingo/validators/userValidator"
)

func SetupUserRoutes(router fiber.Router) {
	userGroup := router.Group("/user")

	userGroup.Get("/profile", middleware.JWTMiddleware, userProfileController.GetProfile)
	userGroup.Put("/profile", middleware.JWTMiddleware, userProfileValidator.UpdateProfile(), userProfileController.UpdateProfile)
	userGroup.Put("/change/login/password", middleware.JWTMiddleware, userProfileValidator.ChangePassword(), userProfileController.ChangeLoginPassword)
}
