package routers

import (
	"github.com/gofiber/fiber/v2"

	"vietlingo/metrics"
	"vietlingo/middleware"
	"vietlingo/routers/authRoutes"
	"vietlingo/routers/curriculumRoutes"
	"vietlingo/routers/picRoutes"
	"vietlingo/routers/userExpRoutes"
	"vietlingo/routers/userProgressRoutes"
	userProfileRoutes "vietlingo/routers/userRoutes"
)

// Setup mounts every route group at the root and again under /api.
func Setup(app *fiber.App) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return middleware.JsonResponse(c, fiber.StatusOK, true, "OK", fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", metrics.Handler())

	for _, router := range []fiber.Router{app, app.Group("/api")} {
		authRoutes.SetupAuthRoutes(router)
		userExpRoutes.SetupUserExpRoutes(router)
		userProgressRoutes.SetupUserProgressRoutes(router)
		picRoutes.SetupPicRoutes(router)
		curriculumRoutes.SetupCurriculumRoutes(router)
		userProfileRoutes.SetupUserRoutes(router)
	}
}
