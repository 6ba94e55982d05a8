package model

import (
	"time"

	"gorm.io/datatypes"
)

// ActionLog 是只追加的用户行为记录，仅用于回看和分析。
type ActionLog struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	UserID     string         `gorm:"type:varchar(64);index;not null" json:"userId"`
	ActionType string         `gorm:"type:varchar(64);not null" json:"actionType"`
	Details    datatypes.JSON `json:"details,omitempty"`
	CreatedAt  time.Time      `gorm:"autoCreateTime;index" json:"timestamp"`
}

func (ActionLog) TableName() string {
	return "user_logs"
}

// ActionLogDTO 是对外返回的日志格式。
type ActionLogDTO struct {
	ActionType string         `json:"actionType"`
	Details    map[string]any `json:"details,omitempty"`
	Timestamp  LocalTime      `json:"timestamp"`
}
