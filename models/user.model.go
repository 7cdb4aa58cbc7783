package models

import (
	"time"
)

type User struct {
	ID                  string     `gorm:"primaryKey;type:varchar(36)" json:"id" bson:"_id"`
	Fullname            string     `gorm:"default:''" json:"fullname" bson:"fullname"`
	Email               string     `gorm:"uniqueIndex;not null;size:191" json:"email" bson:"email"`
	Password            string     `gorm:"not null" json:"-" bson:"password"`
	LastLogin           *time.Time `json:"lastLogin,omitempty" bson:"lastLogin,omitempty"`
	FailedLoginAttempts int        `gorm:"default:0" json:"-" bson:"failedLoginAttempts"`
	LastFailedLogin     *time.Time `json:"-" bson:"lastFailedLogin,omitempty"`
	IsBlocked           bool       `gorm:"default:false" json:"-" bson:"isBlocked"`
	BlockedUntil        *time.Time `json:"-" bson:"blockedUntil,omitempty"`
	CreatedAt           time.Time  `json:"createdAt" bson:"createdAt"`
	UpdatedAt           time.Time  `json:"updatedAt" bson:"updatedAt"`
}

// DisplayName falls back to "User" the way the leaderboard shows anonymous learners.
func (u *User) DisplayName() string {
	if u == nil || u.Fullname == "" {
		return "User"
	}
	return u.Fullname
}
