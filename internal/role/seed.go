package role

import (
	"context"
	"errors"

	"github.com/Kyz7/dashboard/internal/logger"
	"github.com/Kyz7/dashboard/internal/models"
	"gorm.io/gorm"
)

type seedPermission struct {
	entity     string
	entityType models.EntityType
	create     bool
	read       bool
	update     bool
	delete     bool
}

type seedRole struct {
	name        string
	description string
	permissions []seedPermission
}

func blogPost(c, r, u, d bool) seedPermission {
	return seedPermission{models.EntityBlogPost, models.EntityCollection, c, r, u, d}
}

func siteSettings(c, r, u, d bool) seedPermission {
	return seedPermission{models.EntitySiteSettings, models.EntitySettings, c, r, u, d}
}

var defaultRoles = []seedRole{
	{"admin", "Administrator with full access", []seedPermission{
		blogPost(true, true, true, true),
		siteSettings(false, true, true, false),
	}},
	{"editor", "Editor with limited access", []seedPermission{
		blogPost(false, true, true, false),
		siteSettings(false, true, false, false),
	}},
	{"author", "Author with permission to create content", []seedPermission{
		blogPost(true, true, false, false),
	}},
	{"owner", "Owner with full access of a team", []seedPermission{
		blogPost(true, true, true, true),
	}},
	{"member", "Member with limited access to a team", []seedPermission{
		blogPost(false, true, false, false),
	}},
	{"user", "User with limited access", []seedPermission{
		blogPost(false, true, false, false),
	}},
}

// SeedDefaultRoles creates the built-in roles and their permission rows.
// Existing roles and rows are left as they are, so it is safe to run on
// every start.
func SeedDefaultRoles(ctx context.Context, db *gorm.DB) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, r := range defaultRoles {
			var role models.Role
			err := tx.Where("name = ?", r.name).First(&role).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				desc := r.description
				role = models.Role{Name: r.name, Description: &desc}
				if err := tx.Create(&role).Error; err != nil {
					return err
				}
				logger.Log.WithField("role", r.name).Info("Seeded role")
			} else if err != nil {
				return err
			}

			for _, p := range r.permissions {
				var count int64
				if err := tx.Model(&models.Permission{}).
					Where("role_id = ? AND entity_name = ?", role.ID, p.entity).
					Count(&count).Error; err != nil {
					return err
				}
				if count > 0 {
					continue
				}

				perm := models.NewPermission(role.ID, p.entity, p.entityType)
				perm.CanCreate, perm.CanRead, perm.CanUpdate, perm.CanDelete = p.create, p.read, p.update, p.delete
				if err := tx.Create(&perm).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
}
