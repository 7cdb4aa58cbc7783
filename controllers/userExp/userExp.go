package userExpController

import (
	"github.com/gofiber/fiber/v2"

	"vietlingo/middleware"
	"vietlingo/services"
	userExpValidator "vietlingo/validators/userExp"
)

func GetUserExp(c *fiber.Ctx) error {
	userId, ok := middleware.UserID(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	rec, err := services.App.Ledger.Get(c.UserContext(), userId)
	if err != nil {
		return middleware.ServiceErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "", rec)
}

// AddExp adds points and extends the daily streak in one write.
func AddExp(c *fiber.Ctx) error {
	userId, ok := middleware.UserID(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	reqData, ok := c.Locals("validatedExp").(*userExpValidator.AddExpRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	rec, err := services.App.Ledger.AddPointsAndStreak(c.UserContext(), userId, reqData.Amount)
	if err != nil {
		return middleware.ServiceErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Đã cập nhật exp", rec)
}

func UpdateUserExp(c *fiber.Ctx) error {
	userId, ok := middleware.UserID(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	reqData, ok := c.Locals("validatedExpUpdate").(*userExpValidator.UpdateExpRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	rec, err := services.App.Ledger.Update(c.UserContext(), userId, reqData.Patch())
	if err != nil {
		return middleware.ServiceErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Đã cập nhật thông tin exp", rec)
}

func UpdateStreak(c *fiber.Ctx) error {
	userId, ok := middleware.UserID(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	rec, err := services.App.Ledger.UpdateStreak(c.UserContext(), userId)
	if err != nil {
		return middleware.ServiceErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Đã cập nhật streak", fiber.Map{
		"streak":         rec.StreakCount,
		"lastStreakDate": rec.LastStreakDate,
	})
}

// GetLeaderboard is public. An unparsable limit falls back to the default.
func GetLeaderboard(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", services.DefaultLeaderboardLimit)

	entries, err := services.App.Ledger.Leaderboard(c.UserContext(), limit)
	if err != nil {
		return middleware.ServiceErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "", entries)
}
