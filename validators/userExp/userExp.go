package userExpValidator

import (
	"github.com/gofiber/fiber/v2"

	"vietlingo/middleware"
	"vietlingo/services"
	"vietlingo/validators"
)

type AddExpRequest struct {
	Amount int `json:"amount"`
}

type UpdateExpRequest struct {
	Exp                   *int `json:"exp" validate:"omitempty,min=0"`
	Streak                *int `json:"streak" validate:"omitempty,min=0"`
	TotalLessonsCompleted *int `json:"totalLessonsCompleted" validate:"omitempty,min=0"`
	TotalWordsLearned     *int `json:"totalWordsLearned" validate:"omitempty,min=0"`
}

// Patch converts the request into the ledger's partial update.
func (r *UpdateExpRequest) Patch() services.ExperiencePatch {
	return services.ExperiencePatch{
		Points:           r.Exp,
		Streak:           r.Streak,
		LessonsCompleted: r.TotalLessonsCompleted,
		WordsLearned:     r.TotalWordsLearned,
	}
}

// AddExp only parses the body; the amount itself is checked by the ledger.
func AddExp() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(AddExpRequest)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Số điểm exp không hợp lệ", nil)
		}

		c.Locals("validatedExp", reqData)
		return c.Next()
	}
}

func UpdateExp() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(UpdateExpRequest)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		if errors := validators.Struct(reqData); len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedExpUpdate", reqData)
		return c.Next()
	}
}
