package models

import (
	"time"
)

type LoginTracking struct {
	ID        uint      `gorm:"primaryKey" json:"id" bson:"-"`
	LearnerID string    `gorm:"index;type:varchar(36)" json:"learnerId" bson:"learnerId"`
	IPAddress string    `json:"ipAddress" bson:"ipAddress"`
	Device    string    `json:"device" bson:"device"`
	Timestamp time.Time `json:"timestamp" bson:"timestamp"`
}
