package picRoutes

import (
	"github.com/gofiber/fiber/v2"

	picControllers "vietlingo/controllers/pic"
	"vietlingo/middleware"
	picValidators "vietlingo/validators/pic"
)

func SetupPicRoutes(router fiber.Router) {
	picGroup := router.Group("/pic", middleware.OptionalJWT)

	picGroup.Post("/upload", picValidators.Image(), picControllers.UploadImage)
	picGroup.Post("/recognize", picValidators.Image(), picControllers.RecognizeImage)
}
