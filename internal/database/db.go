package database

import (
	"fmt"

	"github.com/Kyz7/dashboard/internal/config"
	"github.com/Kyz7/dashboard/internal/logger"
	"github.com/Kyz7/dashboard/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func Connect(cfg *config.Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort,
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	return db, nil
}

// Models lists every table in dependency order.
func Models() []any {
	return []any{
		&models.Role{},
		&models.Permission{},
		&models.User{},
		&models.Team{},
		&models.TeamMember{},
		&models.BlogPost{},
		&models.ActivityLog{},
	}
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	logger.Log.Info("Database migrated successfully")
	return nil
}
