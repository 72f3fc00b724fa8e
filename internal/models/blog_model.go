package models

import (
	"time"
)

type BlogState string

const (
	BlogDraft       BlogState = "draft"
	BlogPublished   BlogState = "published"
	BlogArchived    BlogState = "archived"
	BlogUnpublished BlogState = "unpublished"
)

var BlogStates = []BlogState{BlogDraft, BlogPublished, BlogArchived, BlogUnpublished}

func (s BlogState) Valid() bool {
	switch s {
	case BlogDraft, BlogPublished, BlogArchived, BlogUnpublished:
		return true
	}
	return false
}

// BlogPost rows are never removed by normal deletes; IsDeleted marks them
// as logically gone. AuthorID is cleared when the author is purged along
// with their role.
type BlogPost struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	Title        string     `gorm:"size:255;not null" json:"title"`
	Slug         string     `gorm:"size:255;not null;uniqueIndex" json:"slug"`
	FeatureImage *string    `gorm:"type:text" json:"feature_image"`
	State        BlogState  `gorm:"size:20;not null;default:'draft';index" json:"state"`
	AuthorID     *uint      `gorm:"index" json:"author_id"`
	Author       *User      `gorm:"foreignKey:AuthorID;constraint:OnDelete:SET NULL" json:"author,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	IsDeleted    bool       `gorm:"not null;default:false;index" json:"is_deleted"`
	DeletedAt    *time.Time `json:"deleted_at"`
}
