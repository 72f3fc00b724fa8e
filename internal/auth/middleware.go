package auth

import (
	"strings"

	"github.com/Kyz7/dashboard/internal/models"
	"github.com/Kyz7/dashboard/internal/response"
	"github.com/Kyz7/dashboard/internal/utils"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// JWTProtected requires a bearer token and stores the caller's user_id
// and role_id in the request locals.
func JWTProtected() fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return response.Unauthorized(c, "Missing authorization token")
		}

		tokenParts := strings.Split(authHeader, " ")
		if len(tokenParts) != 2 || tokenParts[0] != "Bearer" {
			return response.Error(c, fiber.StatusUnauthorized, "INVALID_TOKEN_FORMAT", "Invalid token format", nil)
		}

		claims, err := utils.ParseClaims(tokenParts[1])
		if err != nil {
			return response.Error(c, fiber.StatusUnauthorized, "INVALID_TOKEN", "Invalid or expired token", nil)
		}
		userID, err := claims.UserID()
		if err != nil {
			return response.Error(c, fiber.StatusUnauthorized, "INVALID_TOKEN", "Invalid or expired token", nil)
		}

		c.Locals("user_id", userID)
		c.Locals("role_id", claims.RoleID)
		return c.Next()
	}
}

// RoleProtected lets through only users whose role name is one of
// allowedRoles.
func RoleProtected(db *gorm.DB, allowedRoles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := c.Locals("user_id").(uint)
		if !ok {
			return response.Unauthorized(c, "Unauthorized")
		}

		var u models.User
		if err := db.WithContext(c.UserContext()).Preload("Role").First(&u, userID).Error; err != nil {
			return response.Unauthorized(c, "User not found")
		}

		if u.Role != nil {
			for _, role := range allowedRoles {
				if u.Role.Name == role {
					return c.Next()
				}
			}
		}

		return response.Forbidden(c, "You don't have permission to access this resource")
	}
}
