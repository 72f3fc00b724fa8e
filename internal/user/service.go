package user

import (
	"context"
	"errors"
	"strings"

	"github.com/Kyz7/dashboard/internal/apperror"
	"github.com/Kyz7/dashboard/internal/models"
	"github.com/Kyz7/dashboard/internal/utils"
	"github.com/Kyz7/dashboard/internal/validation"
	"gorm.io/gorm"
)

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

type CreateInput struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8"`
	RoleID   *uint  `json:"role_id"`
	TeamID   *uint  `json:"team_id"`
}

// CreateUser stores a user with a hashed password and, when TeamID is
// set, adds them to that team as a member.
func (s *Service) CreateUser(ctx context.Context, in CreateInput) (*models.User, error) {
	in.Name = validation.StripHTML(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, apperror.Persistence("Failed to hash password", err)
	}

	u := models.User{Name: in.Name, Email: in.Email, Password: hash, RoleID: in.RoleID}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if in.RoleID != nil {
			var role models.Role
			if err := tx.First(&role, *in.RoleID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return apperror.NotFound("Role")
				}
				return err
			}
		}

		var count int64
		if err := tx.Model(&models.User{}).Where("email = ?", in.Email).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return apperror.Conflict("User with this email already exists")
		}

		if err := tx.Create(&u).Error; err != nil {
			return err
		}

		if in.TeamID != nil {
			var team models.Team
			if err := tx.First(&team, *in.TeamID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return apperror.NotFound("Team")
				}
				return err
			}
			member := models.TeamMember{UserID: u.ID, TeamID: team.ID, Role: "member"}
			if err := tx.Create(&member).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		var appErr *apperror.Error
		if errors.As(err, &appErr) {
			return nil, err
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperror.Conflict("User with this email already exists")
		}
		return nil, apperror.Persistence("Failed to create user", err)
	}

	if err := s.db.WithContext(ctx).Preload("Role").First(&u, u.ID).Error; err != nil {
		return nil, apperror.Persistence("Failed to load user", err)
	}
	return &u, nil
}

func (s *Service) ListUsers(ctx context.Context) ([]models.User, error) {
	users := []models.User{}
	if err := s.db.WithContext(ctx).Preload("Role").Order("id").Find(&users).Error; err != nil {
		return nil, apperror.Persistence("Failed to fetch users", err)
	}
	return users, nil
}
