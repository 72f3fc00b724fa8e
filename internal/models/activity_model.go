package models

import (
	"time"

	"gorm.io/datatypes"
)

type ActivityType string

const (
	ActivitySignIn            ActivityType = "SIGN_IN"
	ActivityCreateBlogPost    ActivityType = "CREATE_BLOG_POST"
	ActivityUpdateBlogPost    ActivityType = "UPDATE_BLOG_POST"
	ActivityDeleteBlogPost    ActivityType = "DELETE_BLOG_POST"
	ActivityPublishBlogPost   ActivityType = "PUBLISH_BLOG_POST"
	ActivityArchiveBlogPost   ActivityType = "ARCHIVE_BLOG_POST"
	ActivityUnpublishBlogPost ActivityType = "UNPUBLISH_BLOG_POST"
)

const ActivityEntityBlogPost = "blog_post"

// ActivityLog is an append-only audit row. TeamID is empty when the
// acting user does not belong to a team.
type ActivityLog struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	TeamID     *uint          `gorm:"index" json:"team_id"`
	UserID     *uint          `gorm:"index" json:"user_id"`
	EntityType string         `gorm:"size:50;not null;default:'blog_post'" json:"entity_type"`
	EntityID   *uint          `gorm:"index" json:"entity_id"`
	Action     ActivityType   `gorm:"type:text;not null" json:"action"`
	Metadata   datatypes.JSON `json:"metadata,omitempty"`
	IPAddress  string         `gorm:"size:45" json:"ip_address,omitempty"`
	Timestamp  time.Time      `gorm:"autoCreateTime" json:"timestamp"`
}
