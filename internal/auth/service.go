package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/Kyz7/dashboard/internal/activity"
	"github.com/Kyz7/dashboard/internal/models"
	"github.com/Kyz7/dashboard/internal/utils"
	"gorm.io/gorm"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

type Session struct {
	AccessToken string       `json:"access_token"`
	ExpiresIn   int          `json:"expires_in"`
	User        *models.User `json:"user"`
}

// LoginUser checks the credentials, records a sign-in and issues an
// access token.
func (s *Service) LoginUser(ctx context.Context, email, password string) (*Session, error) {
	var user models.User
	err := s.db.WithContext(ctx).Preload("Role").Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if !utils.CheckPasswordHash(password, user.Password) {
		return nil, ErrInvalidCredentials
	}

	var roleID uint
	var roleName string
	if user.Role != nil {
		roleID, roleName = user.Role.ID, user.Role.Name
	}

	token, err := utils.GenerateJWT(user.ID, roleID, roleName)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return activity.Log(tx, activity.Entry{
			UserID:     user.ID,
			EntityType: "user",
			EntityID:   user.ID,
			Action:     models.ActivitySignIn,
		})
	})
	if err != nil {
		return nil, err
	}

	return &Session{
		AccessToken: token,
		ExpiresIn:   int(utils.AccessTokenTTL.Seconds()),
		User:        &user,
	}, nil
}
