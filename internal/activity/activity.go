// Package activity writes and reads the audit trail of dashboard changes.
package activity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Kyz7/dashboard/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ipKey struct{}

// ContextWithIP attaches the client address recorded by Log when an entry
// carries none.
func ContextWithIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, ipKey{}, ip)
}

func ipFrom(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	ip, _ := ctx.Value(ipKey{}).(string)
	return ip
}

type Entry struct {
	UserID uint
	// TeamUserID picks whose team the row is filed under. Zero means
	// UserID.
	TeamUserID uint
	EntityType string
	EntityID   uint
	Action     models.ActivityType
	Metadata   map[string]any
	IPAddress  string
}

// Log appends one audit row on tx. The row is attributed to the first
// team of TeamUserID (or UserID), or to no team when that user has none.
// Call it inside the transaction of the change it records.
func Log(tx *gorm.DB, e Entry) error {
	teamUser := e.TeamUserID
	if teamUser == 0 {
		teamUser = e.UserID
	}
	teamID, err := teamOf(tx, teamUser)
	if err != nil {
		return err
	}

	ip := e.IPAddress
	if ip == "" {
		ip = ipFrom(tx.Statement.Context)
	}

	row := models.ActivityLog{
		TeamID:     teamID,
		UserID:     &e.UserID,
		EntityType: models.ActivityEntityBlogPost,
		EntityID:   &e.EntityID,
		Action:     e.Action,
		IPAddress:  ip,
	}
	if e.EntityType != "" {
		row.EntityType = e.EntityType
	}
	if len(e.Metadata) > 0 {
		raw, err := json.Marshal(e.Metadata)
		if err != nil {
			return fmt.Errorf("encode activity metadata: %w", err)
		}
		row.Metadata = datatypes.JSON(raw)
	}

	if err := tx.Create(&row).Error; err != nil {
		return fmt.Errorf("write activity log: %w", err)
	}
	return nil
}

func teamOf(tx *gorm.DB, userID uint) (*uint, error) {
	var member models.TeamMember
	err := tx.Where("user_id = ?", userID).Order("id").First(&member).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("resolve team: %w", err)
	}
	return &member.TeamID, nil
}

// List returns the history of one blog post, newest first.
func List(ctx context.Context, db *gorm.DB, entityID uint) ([]models.ActivityLog, error) {
	logs := []models.ActivityLog{}
	err := db.WithContext(ctx).
		Where("entity_type = ? AND entity_id = ?", models.ActivityEntityBlogPost, entityID).
		Order("timestamp DESC, id DESC").
		Find(&logs).Error
	if err != nil {
		return nil, fmt.Errorf("list activity: %w", err)
	}
	return logs, nil
}
