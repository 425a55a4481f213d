package models

import (
	"time"
)

type User struct {
	ID           uint             `gorm:"primaryKey" json:"id"`
	GoogleID     string           `gorm:"unique;not null;size:255" json:"google_id"`
	Email        string           `gorm:"unique;not null;size:255" json:"email"`
	Name         string           `gorm:"size:255" json:"name"`
	AvatarURL    string           `gorm:"type:text" json:"avatar_url"`
	CreatedAt    time.Time        `gorm:"not null" json:"created_at"`
	Applications []JobApplication `gorm:"foreignKey:UserID" json:"-"`
}

func (User) TableName() string {
	return "users"
}
