package database

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Kyz7/dashboard/internal/logger"
	"gorm.io/gorm"
)

type Migration struct {
	ID        uint   `gorm:"primaryKey"`
	Version   string `gorm:"uniqueIndex;size:255"`
	AppliedAt time.Time
}

// RunMigrations applies the *.sql files in dir that have not been
// recorded yet, in lexical order.
func RunMigrations(db *gorm.DB, dir string) error {
	if err := db.AutoMigrate(&Migration{}); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	files, err := filepath.Glob(filepath.Join(dir, "*.sql"))
	if err != nil {
		return fmt.Errorf("failed to read migrations directory: %w", err)
	}

	for _, file := range files {
		filename := filepath.Base(file)

		var count int64
		if err := db.Model(&Migration{}).Where("version = ?", filename).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check migration %s: %w", filename, err)
		}
		if count > 0 {
			logger.Log.Debugf("Skipping migration: %s (already applied)", filename)
			continue
		}

		sqlContent, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("failed to read migration file %s: %w", filename, err)
		}

		logger.Log.Infof("Applying migration: %s", filename)
		err = db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Exec(string(sqlContent)).Error; err != nil {
				return fmt.Errorf("failed to execute migration %s: %w", filename, err)
			}
			migration := Migration{Version: filename, AppliedAt: time.Now()}
			if err := tx.Create(&migration).Error; err != nil {
				return fmt.Errorf("failed to record migration %s: %w", filename, err)
			}
			return nil
		})
		if err != nil {
			return err
		}
	}

	return nil
}
