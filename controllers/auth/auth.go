package authController

import (
	"github.com/gofiber/fiber/v2"

	"vietlingo/middleware"
	"vietlingo/services"
	authValidator "vietlingo/validators/auth"
)

func Register(c *fiber.Ctx) error {
	reqData, ok := c.Locals("validatedUser").(*authValidator.RegisterRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	result, err := services.App.Auth.Register(c.UserContext(), reqData.Fullname, reqData.Email, reqData.Password)
	if err != nil {
		return middleware.ServiceErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Đăng ký thành công!", result)
}

func Login(c *fiber.Ctx) error {
	reqData, ok := c.Locals("validatedLogin").(*authValidator.LoginRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	result, err := services.App.Auth.Login(c.UserContext(), services.LoginInput{
		Email:    reqData.Email,
		Password: reqData.Password,
		IP:       c.IP(),
		Device:   c.Get("User-Agent"),
	})
	if err != nil {
		return middleware.ServiceErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Đăng nhập thành công", result)
}

// Logout acknowledges the request; the client discards its token.
func Logout(c *fiber.Ctx) error {
	userId, _ := middleware.UserID(c)
	if err := services.App.Auth.Logout(c.UserContext(), userId); err != nil {
		return middleware.ServiceErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Đăng xuất thành công", nil)
}

func LoginHistoryList(c *fiber.Ctx) error {
	// Retrieve userId from JWT middleware
	userId, ok := middleware.UserID(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	reqData, ok := c.Locals("validatedLoginHistory").(*authValidator.LoginHistoryRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	loginTracking, total, err := services.App.Auth.LoginHistory(c.UserContext(), userId, reqData.Page, reqData.Limit)
	if err != nil {
		return middleware.ServiceErrorResponse(c, err)
	}

	// Response structure
	response := map[string]interface{}{
		"loginTracking": loginTracking,
		"pagination": map[string]interface{}{
			"total": total,
			"page":  reqData.Page,
			"limit": reqData.Limit,
		},
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Login history fetched successfully.", response)
}
