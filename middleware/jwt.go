package middleware

import (
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"

	"vietlingo/config"
	"vietlingo/models"
)

// GenerateJWT generates a JWT token for the learner
func GenerateJWT(user *models.User) (string, error) {
	ttl := time.Duration(config.AppConfig.JWTTTLHours) * time.Hour
	if ttl <= 0 {
		ttl = time.Hour
	}
	claims := jwt.MapClaims{
		"userId":   user.ID,
		"fullname": user.Fullname,
		"email":    user.Email,
		"iat":      time.Now().Unix(),
		"exp":      time.Now().Add(ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	jwtSecret := []byte(config.AppConfig.JWTKey)

	return token.SignedString(jwtSecret)
}

// ParseToken validates tokenString and returns the learner id it was issued for
func ParseToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		// Check if the token method is valid
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(config.AppConfig.JWTKey), nil
	})
	if err != nil || !token.Valid {
		return "", fmt.Errorf("invalid or expired token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("invalid token payload")
	}
	userID, ok := claims["userId"].(string)
	if !ok || userID == "" {
		return "", fmt.Errorf("invalid token payload")
	}
	return userID, nil
}

func bearerToken(c *fiber.Ctx) (string, string) {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return "", "Missing or invalid Authorization header"
	}
	// The token should be prefixed with "Bearer "
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", "Invalid Authorization header format"
	}
	return strings.TrimSpace(authHeader[len("Bearer "):]), ""
}

// JWTMiddleware is a middleware to check for valid JWT token in the request
func JWTMiddleware(c *fiber.Ctx) error {
	tokenString, problem := bearerToken(c)
	if problem != "" {
		return JsonResponse(c, fiber.StatusUnauthorized, false, problem, nil)
	}

	userID, err := ParseToken(tokenString)
	if err != nil {
		return JsonResponse(c, fiber.StatusUnauthorized, false, "Invalid or expired token", nil)
	}

	// Set the learner ID in the request context
	c.Locals("userId", userID)
	return c.Next()
}

// OptionalJWT sets userId when a valid token is present and never rejects the request
func OptionalJWT(c *fiber.Ctx) error {
	if tokenString, problem := bearerToken(c); problem == "" {
		if userID, err := ParseToken(tokenString); err == nil {
			c.Locals("userId", userID)
		}
	}
	return c.Next()
}

// UserID returns the learner id stored by JWTMiddleware
func UserID(c *fiber.Ctx) (string, bool) {
	userID, ok := c.Locals("userId").(string)
	return userID, ok && userID != ""
}

func JsonResponse(c *fiber.Ctx, statusCode int, success bool, message string, data interface{}) error {
	return c.Status(statusCode).JSON(fiber.Map{
		"success": success,
		"message": message,
		"data":    data,
	})
}

func ValidationErrorResponse(c *fiber.Ctx, errors map[string]string) error {
	return JsonResponse(c, fiber.StatusUnprocessableEntity, false, "Validation failed!", errors)
}
