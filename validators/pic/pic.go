package picValidator

import (
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"

	"vietlingo/middleware"
)

const maxImageSize = 5 << 20

var allowedExtensions = map[string]bool{
	"":      true, // canvas blobs often arrive without a name
	".png":  true,
	".jpg":  true,
	".jpeg": true,
}

// Image requires a multipart "image" part and stores its header under "validatedImage".
func Image() fiber.Handler {
	return func(c *fiber.Ctx) error {
		file, err := c.FormFile("image")
		if err != nil || file == nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Không có tệp tin được tải lên.", nil)
		}

		errors := make(map[string]string)
		if file.Size == 0 {
			errors["image"] = "Uploaded file is empty!"
		} else if file.Size > maxImageSize {
			errors["image"] = "Uploaded file must be at most 5MB!"
		}
		if !allowedExtensions[strings.ToLower(filepath.Ext(file.Filename))] {
			errors["image"] = "Only PNG and JPEG drawings are accepted!"
		}
		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedImage", file)
		return c.Next()
	}
}
