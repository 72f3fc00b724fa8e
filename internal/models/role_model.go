package models

import (
	"time"
)

type EntityType string

const (
	EntityCollection EntityType = "collection"
	EntitySingle     EntityType = "single"
	EntityPlugin     EntityType = "plugin"
	EntitySettings   EntityType = "settings"
)

// EntityTypes lists the permission categories in display order.
var EntityTypes = []EntityType{EntityCollection, EntitySingle, EntityPlugin, EntitySettings}

func (t EntityType) Valid() bool {
	switch t {
	case EntityCollection, EntitySingle, EntityPlugin, EntitySettings:
		return true
	}
	return false
}

const (
	EntityBlogPost     = "blog-post"
	EntitySiteSettings = "site-settings"
)

type Role struct {
	ID          uint         `gorm:"primaryKey" json:"id"`
	Name        string       `gorm:"size:50;not null;uniqueIndex" json:"name"`
	Description *string      `gorm:"type:text" json:"description"`
	Permissions []Permission `gorm:"foreignKey:RoleID" json:"permissions,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// Permission holds the CRUD capabilities of one role on one entity.
// A role has at most one row per entity name. Build new rows with
// NewPermission so read access starts granted; a gorm default would
// swallow an explicit false on insert.
type Permission struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	RoleID     uint       `gorm:"not null;uniqueIndex:idx_role_entity" json:"role_id"`
	EntityName string     `gorm:"size:100;not null;uniqueIndex:idx_role_entity" json:"entity_name"`
	EntityType EntityType `gorm:"size:50;not null" json:"entity_type"`
	CanCreate  bool       `gorm:"not null;default:false" json:"can_create"`
	CanRead    bool       `gorm:"not null" json:"can_read"`
	CanUpdate  bool       `gorm:"not null;default:false" json:"can_update"`
	CanDelete  bool       `gorm:"not null;default:false" json:"can_delete"`
}

func NewPermission(roleID uint, entityName string, entityType EntityType) Permission {
	return Permission{
		RoleID:     roleID,
		EntityName: entityName,
		EntityType: entityType,
		CanRead:    true,
	}
}
