package role

import (
	"context"
	"errors"
	"fmt"

	"github.com/Kyz7/dashboard/internal/apperror"
	"github.com/Kyz7/dashboard/internal/logger"
	"github.com/Kyz7/dashboard/internal/models"
	"github.com/Kyz7/dashboard/internal/permission"
	"github.com/Kyz7/dashboard/internal/validation"
	"gorm.io/gorm"
)

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

type Summary struct {
	ID          uint    `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

type Data struct {
	Role        Summary             `json:"role"`
	UserCount   int64               `json:"user_count"`
	Permissions []models.Permission `json:"permissions"`
}

type WithUserCount struct {
	ID          uint    `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
	UserCount   int64   `json:"user_count"`
}

type Fields struct {
	Name        string `json:"name" validate:"required,max=50"`
	Description string `json:"description" validate:"max=1000"`
}

type UpdateInput struct {
	Role        Fields              `json:"role"`
	Permissions []models.Permission `json:"permissions"`
}

// Result is returned by role mutations.
type Result struct {
	Success bool         `json:"success"`
	Role    *models.Role `json:"role,omitempty"`
	Error   string       `json:"error,omitempty"`
	Err     error        `json:"-"`
}

func failed(err error) Result {
	return Result{Error: apperror.Message(err), Err: err}
}

// ============================================
// QUERIES
// ============================================

func (s *Service) GetRoleData(ctx context.Context, roleID uint) (*Data, error) {
	db := s.db.WithContext(ctx)

	var role models.Role
	if err := db.First(&role, roleID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("Role")
		}
		return nil, apperror.Persistence("Failed to load role", err)
	}

	var userCount int64
	if err := db.Model(&models.User{}).Where("role_id = ?", roleID).Count(&userCount).Error; err != nil {
		return nil, apperror.Persistence("Failed to count role users", err)
	}

	perms := []models.Permission{}
	if err := db.Where("role_id = ?", roleID).Order("id").Find(&perms).Error; err != nil {
		return nil, apperror.Persistence("Failed to load role permissions", err)
	}

	return &Data{
		Role:        Summary{ID: role.ID, Name: role.Name, Description: role.Description},
		UserCount:   userCount,
		Permissions: perms,
	}, nil
}

func (s *Service) GetAllRolesWithUserCount(ctx context.Context) ([]WithUserCount, error) {
	rows := []WithUserCount{}
	err := s.db.WithContext(ctx).
		Model(&models.Role{}).
		Select("roles.id, roles.name, roles.description, COUNT(users.id) AS user_count").
		Joins("LEFT JOIN users ON users.role_id = roles.id").
		Group("roles.id, roles.name, roles.description").
		Order("roles.id").
		Scan(&rows).Error
	if err != nil {
		logger.Log.WithError(err).Error("Error fetching roles with user count")
		return nil, apperror.Persistence("Failed to fetch roles", err)
	}
	return rows, nil
}

// LoadEditSession opens an edit session on the role's current state for an
// actor whose own role is actorRoleID.
func (s *Service) LoadEditSession(ctx context.Context, roleID, actorRoleID uint) (*permission.EditSession, error) {
	data, err := s.GetRoleData(ctx, roleID)
	if err != nil {
		return nil, err
	}
	role := models.Role{ID: data.Role.ID, Name: data.Role.Name, Description: data.Role.Description}
	return permission.NewEditSession(role, data.Permissions, actorRoleID), nil
}

// ============================================
// MUTATIONS
// ============================================

func cleanFields(f Fields) (Fields, error) {
	f.Name = validation.StripHTML(f.Name)
	f.Description = validation.StripHTML(f.Description)
	if err := validation.Struct(f); err != nil {
		return f, err
	}
	return f, nil
}

func describe(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func nameTaken(tx *gorm.DB, name string, exceptID uint) (bool, error) {
	var count int64
	q := tx.Model(&models.Role{}).Where("name = ?", name)
	if exceptID != 0 {
		q = q.Where("id <> ?", exceptID)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// mutationError keeps typed errors and classifies raw store errors.
func mutationError(err error, message string) error {
	var appErr *apperror.Error
	if errors.As(err, &appErr) {
		return err
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperror.Conflict("Role with this name already exists")
	}
	return apperror.Persistence(message, err)
}

func (s *Service) CreateRole(ctx context.Context, in Fields) Result {
	in, err := cleanFields(in)
	if err != nil {
		return failed(err)
	}

	role := models.Role{Name: in.Name, Description: describe(in.Description)}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		taken, err := nameTaken(tx, in.Name, 0)
		if err != nil {
			return err
		}
		if taken {
			return apperror.Conflict("Role with this name already exists")
		}
		return tx.Create(&role).Error
	})
	if err != nil {
		return failed(mutationError(err, "Failed to create role"))
	}

	logger.Log.WithFields(map[string]any{"role_id": role.ID, "name": role.Name}).Info("Role created")
	return Result{Success: true, Role: &role}
}

// UpdateRolePermissions saves the role's name and description and the
// capability flags of its permission rows in one transaction. Rows in the
// payload that belong to another role are ignored.
func (s *Service) UpdateRolePermissions(ctx context.Context, roleID uint, in UpdateInput) Result {
	fields, err := cleanFields(in.Role)
	if err != nil {
		return failed(err)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var role models.Role
		if err := tx.First(&role, roleID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.NotFound("Role")
			}
			return err
		}

		taken, err := nameTaken(tx, fields.Name, roleID)
		if err != nil {
			return err
		}
		if taken {
			return apperror.Conflict("Role with this name already exists")
		}

		if err := tx.Model(&role).Updates(map[string]any{
			"name":        fields.Name,
			"description": describe(fields.Description),
		}).Error; err != nil {
			return err
		}

		for _, p := range in.Permissions {
			err := tx.Model(&models.Permission{}).
				Where("id = ? AND role_id = ?", p.ID, roleID).
				Updates(map[string]any{
					"can_create": p.CanCreate,
					"can_read":   p.CanRead,
					"can_update": p.CanUpdate,
					"can_delete": p.CanDelete,
				}).Error
			if err != nil {
				return fmt.Errorf("update permission %d: %w", p.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		logger.Log.WithError(err).WithField("role_id", roleID).Error("Failed to update role permissions")
		return failed(mutationError(err, "Failed to update role permissions"))
	}

	return Result{Success: true}
}

// Submitter adapts UpdateRolePermissions to an edit session.
func (s *Service) Submitter() permission.Submitter {
	return func(ctx context.Context, roleID uint, sub permission.Submission) error {
		res := s.UpdateRolePermissions(ctx, roleID, UpdateInput{
			Role:        Fields{Name: sub.Role.Name, Description: sub.Role.Description},
			Permissions: sub.Permissions,
		})
		return res.Err
	}
}

type DeleteInput struct {
	IDs []uint `json:"ids" validate:"required,min=1"`
}

// DeleteRoles purges the roles together with their users and permission
// rows. Nothing is removed unless every step succeeds.
func (s *Service) DeleteRoles(ctx context.Context, in DeleteInput) apperror.Result {
	if err := validation.Struct(in); err != nil {
		return apperror.Fail(err)
	}

	var removed int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		users := tx.Model(&models.User{}).Select("id").Where("role_id IN ?", in.IDs)
		if err := tx.Where("user_id IN (?)", users).Delete(&models.TeamMember{}).Error; err != nil {
			return err
		}
		if err := tx.Where("role_id IN ?", in.IDs).Delete(&models.User{}).Error; err != nil {
			return err
		}
		if err := tx.Where("role_id IN ?", in.IDs).Delete(&models.Permission{}).Error; err != nil {
			return err
		}
		res := tx.Where("id IN ?", in.IDs).Delete(&models.Role{})
		if res.Error != nil {
			return res.Error
		}
		removed = res.RowsAffected
		return nil
	})
	if err != nil {
		logger.Log.WithError(err).WithField("role_ids", in.IDs).Error("Failed to delete roles")
		return apperror.Fail(apperror.Persistence("Failed to delete roles", err))
	}

	logger.Log.WithFields(map[string]any{"role_ids": in.IDs, "removed": removed}).Info("Roles deleted")
	return apperror.OK(map[string]int64{"deleted": removed})
}

// DuplicateRole copies a role and all of its permission rows under a new name.
func (s *Service) DuplicateRole(ctx context.Context, roleID uint, name string) Result {
	fields, err := cleanFields(Fields{Name: name})
	if err != nil {
		return failed(err)
	}

	var copyRole models.Role
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var original models.Role
		if err := tx.Preload("Permissions").First(&original, roleID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.NotFound("Role")
			}
			return err
		}

		taken, err := nameTaken(tx, fields.Name, 0)
		if err != nil {
			return err
		}
		if taken {
			return apperror.Conflict("Role with this name already exists")
		}

		copyRole = models.Role{Name: fields.Name}
		if original.Description != nil {
			copyRole.Description = describe(*original.Description + " (Copy)")
		}
		if err := tx.Create(&copyRole).Error; err != nil {
			return err
		}

		for _, p := range original.Permissions {
			perm := models.NewPermission(copyRole.ID, p.EntityName, p.EntityType)
			perm.CanCreate, perm.CanRead, perm.CanUpdate, perm.CanDelete = p.CanCreate, p.CanRead, p.CanUpdate, p.CanDelete
			if err := tx.Create(&perm).Error; err != nil {
				return err
			}
			copyRole.Permissions = append(copyRole.Permissions, perm)
		}
		return nil
	})
	if err != nil {
		return failed(mutationError(err, "Failed to duplicate role"))
	}

	return Result{Success: true, Role: &copyRole}
}

type AssignInput struct {
	UserID uint `json:"user_id" validate:"required"`
	RoleID uint `json:"role_id" validate:"required"`
}

func (s *Service) AssignRole(ctx context.Context, in AssignInput) apperror.Result {
	if err := validation.Struct(in); err != nil {
		return apperror.Fail(err)
	}

	var user models.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var role models.Role
		if err := tx.First(&role, in.RoleID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.NotFound("Role")
			}
			return err
		}
		if err := tx.First(&user, in.UserID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.NotFound("User")
			}
			return err
		}
		if err := tx.Model(&user).Update("role_id", role.ID).Error; err != nil {
			return err
		}
		user.RoleID = &role.ID
		user.Role = &role
		return nil
	})
	if err != nil {
		return apperror.Fail(mutationError(err, "Failed to assign role"))
	}

	return apperror.OK(user)
}
