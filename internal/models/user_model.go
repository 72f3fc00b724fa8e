package models

import (
	"time"
)

type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:100" json:"name"`
	Email     string    `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Password  string    `gorm:"size:255;not null" json:"-"`
	RoleID    *uint     `gorm:"index" json:"role_id"`
	Role      *Role     `gorm:"foreignKey:RoleID;constraint:OnDelete:RESTRICT,OnUpdate:CASCADE" json:"role,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Team struct {
	ID        uint         `gorm:"primaryKey" json:"id"`
	Name      string       `gorm:"size:100;not null" json:"name"`
	Members   []TeamMember `gorm:"foreignKey:TeamID" json:"members,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

type TeamMember struct {
	ID       uint      `gorm:"primaryKey" json:"id"`
	UserID   uint      `gorm:"not null;index" json:"user_id"`
	TeamID   uint      `gorm:"not null;index" json:"team_id"`
	Team     *Team     `gorm:"foreignKey:TeamID" json:"team,omitempty"`
	Role     string    `gorm:"size:50;not null" json:"role"`
	JoinedAt time.Time `gorm:"autoCreateTime" json:"joined_at"`
}
