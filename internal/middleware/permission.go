package middleware

import (
	"context"
	"fmt"

	"github.com/Kyz7/dashboard/internal/logger"
	"github.com/Kyz7/dashboard/internal/models"
	"github.com/Kyz7/dashboard/internal/permission"
	"github.com/Kyz7/dashboard/internal/response"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// HasPermission reports whether the user's role grants action on
// entityName. A missing user, a user without a role, or a role without a
// row for the entity all yield false. The error is set only when the
// lookup itself failed.
func HasPermission(ctx context.Context, db *gorm.DB, userID uint, entityName string, action permission.Action) (bool, error) {
	var perms []models.Permission
	err := db.WithContext(ctx).
		Joins("JOIN users ON users.role_id = permissions.role_id").
		Where("users.id = ? AND permissions.entity_name = ?", userID, entityName).
		Limit(1).
		Find(&perms).Error
	if err != nil {
		return false, fmt.Errorf("check permission: %w", err)
	}
	if len(perms) == 0 {
		return false, nil
	}
	return permission.Allows(&perms[0], action), nil
}

// UserPermissions returns every permission row of the user's role, or an
// empty list when the user has no role.
func UserPermissions(ctx context.Context, db *gorm.DB, userID uint) ([]models.Permission, error) {
	perms := []models.Permission{}
	err := db.WithContext(ctx).
		Joins("JOIN users ON users.role_id = permissions.role_id").
		Where("users.id = ?", userID).
		Order("permissions.id").
		Find(&perms).Error
	if err != nil {
		return nil, fmt.Errorf("load user permissions: %w", err)
	}
	return perms, nil
}

func PermissionProtected(db *gorm.DB, entityName string, action permission.Action) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := c.Locals("user_id").(uint)
		if !ok {
			return response.Unauthorized(c, "Unauthorized")
		}

		allowed, err := HasPermission(c.UserContext(), db, userID, entityName, action)
		if err != nil {
			logger.Log.WithError(err).WithFields(map[string]any{
				"user_id": userID,
				"entity":  entityName,
				"action":  action.String(),
			}).Error("Permission check failed")
			return response.InternalError(c, "Failed to check permissions")
		}
		if !allowed {
			return response.Forbidden(c, "You don't have permission to perform this action")
		}

		return c.Next()
	}
}
