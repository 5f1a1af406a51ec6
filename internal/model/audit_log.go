package model

import (
	"time"

	"gorm.io/datatypes"
)

// AuditLog 只追加，不提供修改和删除
type AuditLog struct {
	ID         string         `gorm:"primaryKey;size:36" json:"id"`
	UserID     *string        `gorm:"size:36;index" json:"user_id"`
	ActorRole  *string        `gorm:"size:16" json:"actor_role"`
	ActionType string         `gorm:"size:48;not null;index" json:"action_type"`
	Module     string         `gorm:"size:24;not null;index" json:"module"`
	EntityType *string        `gorm:"size:32" json:"entity_type"`
	EntityID   *string        `gorm:"size:64" json:"entity_id"`
	EntityCode *string        `gorm:"size:64" json:"entity_code"`
	Summary    string         `gorm:"type:text" json:"summary"`
	Metadata   datatypes.JSON `json:"metadata"`
	IsError    bool           `gorm:"not null;default:false" json:"is_error"`
	IP         *string        `gorm:"column:ip;size:64" json:"ip"`
	UserAgent  *string        `gorm:"size:255" json:"user_agent"`
	RequestID  *string        `gorm:"size:64" json:"request_id"`
	CreatedAt  time.Time      `gorm:"index" json:"created_at"`
}
