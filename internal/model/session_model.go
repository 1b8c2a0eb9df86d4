package model

import (
	"time"

	"gorm.io/datatypes"
)

type Session struct {
	Id                string         `gorm:"type:varchar(64);primaryKey"`
	OverallConfidence int            `gorm:"not null;default:0"`
	Status            string         `gorm:"type:varchar(20);not null;default:'in_progress'"`
	Topics            datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt         time.Time      `gorm:"autoCreateTime:false"`
	UpdatedAt         time.Time      `gorm:"autoUpdateTime:false;index"`
	Messages          []Message      `gorm:"foreignKey:SessionId;constraint:OnDelete:CASCADE"`
}

func (Session) TableName() string {
	return "kt_sessions"
}
