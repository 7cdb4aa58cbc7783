package userController

import (
	"github.com/gofiber/fiber/v2"

	"vietlingo/middleware"
	"vietlingo/services"
	"vietlingo/validators/userValidator"
)

func GetProfile(c *fiber.Ctx) error {
	userId, ok := middleware.UserID(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Invalid user session!", nil)
	}

	profile, err := services.App.Auth.Profile(c.UserContext(), userId)
	if err != nil {
		return middleware.ServiceErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Profile fetched successfully.", profile)
}

func UpdateProfile(c *fiber.Ctx) error {
	userId, ok := middleware.UserID(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Invalid user session!", nil)
	}

	reqData, ok := c.Locals("validatedProfile").(*userValidator.UpdateProfileRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	user, err := services.App.Auth.UpdateProfile(c.UserContext(), userId, reqData.Fullname)
	if err != nil {
		return middleware.ServiceErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Profile updated successfully.", user)
}

func ChangeLoginPassword(c *fiber.Ctx) error {
	// Retrieve user ID from JWT token
	userId, ok := middleware.UserID(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Invalid user session!", nil)
	}

	reqData, ok := c.Locals("validatedPassword").(*userValidator.ChangePasswordRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	if err := services.App.Auth.ChangePassword(c.UserContext(), userId, reqData.CurrentPassword, reqData.NewPassword); err != nil {
		return middleware.ServiceErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Password changed successfully.", nil)
}
