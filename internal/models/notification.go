package models

import (
	"time"

	"gorm.io/datatypes"
)

type Notification struct {
	BaseModel
	UserID  string `gorm:"type:uuid;not null;index"`
	Type    string `gorm:"type:varchar(32);not null"`
	Title   string `gorm:"not null"`
	Message string
	Data    datatypes.JSON
	IsRead  bool `gorm:"not null;default:false"`
	ReadAt  *time.Time
}
