package authRoutes

import (
	"github.com/gofiber/fiber/v2"

	authControllers "vietlingo/controllers/auth"
	"vietlingo/middleware"
	authValidators "vietlingo/validators/auth"
)

func SetupAuthRoutes(router fiber.Router) {
	authGroup := router.Group("/auth")

	authGroup.Post("/register", authValidators.Register(), authControllers.Register)
	authGroup.Post("/login", authValidators.Login(), authControllers.Login)
	authGroup.Post("/logout", middleware.OptionalJWT, authControllers.Logout)
	authGroup.Get("/login/history", middleware.JWTMiddleware, authValidators.LoginHistoryList(), authControllers.LoginHistoryList)
}
